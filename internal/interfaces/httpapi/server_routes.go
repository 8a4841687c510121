package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerDraftRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	authorized := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, RequireAuth(verifier, fn))
	}

	authorized("POST /v1/drafts", handler.CreateDraft)
	authorized("GET /v1/drafts/{draftID}", handler.GetDraft)
	authorized("POST /v1/drafts/{draftID}/join", handler.JoinDraft)
	authorized("POST /v1/drafts/{draftID}/leave", handler.LeaveDraft)
	authorized("POST /v1/drafts/{draftID}/confirm", handler.ConfirmDraft)
	authorized("POST /v1/drafts/{draftID}/start", handler.StartDraft)
	authorized("POST /v1/drafts/{draftID}/complete", handler.CompleteDraft)

	authorized("POST /v1/drafts/{draftID}/picks", handler.MakePick)
	authorized("PUT /v1/drafts/{draftID}/picks/queue", handler.QueueAutoPick)
	authorized("POST /v1/drafts/{draftID}/picks/auto", handler.AutoPick)
	authorized("POST /v1/drafts/{draftID}/pass", handler.PassPacks)
	authorized("POST /v1/drafts/{draftID}/rounds", handler.AdvanceRound)

	authorized("POST /v1/drafts/{draftID}/pile", handler.InitPileDraft)
	authorized("GET /v1/drafts/{draftID}/pile/{pileIndex}", handler.LookAtPile)
	authorized("POST /v1/drafts/{draftID}/pile/take", handler.TakePile)
	authorized("POST /v1/drafts/{draftID}/pile/pass", handler.PassPile)

	authorized("POST /v1/drafts/{draftID}/deck", handler.StartDeckBuilding)
	authorized("POST /v1/drafts/{draftID}/deck/moves", handler.MoveCard)
	authorized("PUT /v1/drafts/{draftID}/deck/lands", handler.SetBasicLands)
	authorized("GET /v1/drafts/{draftID}/deck/lands/suggestion", handler.SuggestLands)
	authorized("GET /v1/drafts/{draftID}/deck/validation", handler.ValidateDeck)
	authorized("POST /v1/drafts/{draftID}/deck/submit", handler.SubmitDeck)
	authorized("POST /v1/drafts/{draftID}/deck/unsubmit", handler.UnsubmitDeck)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/autopick", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunAutoPickJob)))
}
