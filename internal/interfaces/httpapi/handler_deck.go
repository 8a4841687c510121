package httpapi

import (
	"net/http"

	"github.com/riskibarqy/card-draft/internal/domain/draft"
)

type moveCardRequest struct {
	CardID string `json:"card_id" validate:"required"`
	To     string `json:"to" validate:"required,oneof=deck sideboard"`
}

type basicLandsRequest struct {
	W int `json:"W" validate:"min=0"`
	U int `json:"U" validate:"min=0"`
	B int `json:"B" validate:"min=0"`
	R int `json:"R" validate:"min=0"`
	G int `json:"G" validate:"min=0"`
}

func (h *Handler) StartDeckBuilding(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartDeckBuilding")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	snap, err := h.drafts.StartDeckBuilding(ctx, draftID, principal.UserID)
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

func (h *Handler) MoveCard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MoveCard")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	var req moveCardRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	snap, err := h.drafts.MoveCard(ctx, draftID, principal.UserID, req.CardID, req.To == "sideboard")
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

func (h *Handler) SetBasicLands(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetBasicLands")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	var req basicLandsRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	snap, err := h.drafts.SetBasicLands(ctx, draftID, principal.UserID, draft.BasicLandCounts{
		W: req.W,
		U: req.U,
		B: req.B,
		R: req.R,
		G: req.G,
	})
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

func (h *Handler) SuggestLands(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SuggestLands")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	counts, err := h.drafts.SuggestLands(ctx, draftID, principal.UserID)
	h.writeResult(ctx, w, http.StatusOK, counts, err)
}

func (h *Handler) ValidateDeck(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ValidateDeck")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	validity, err := h.drafts.ValidateDeck(ctx, draftID, principal.UserID)
	h.writeResult(ctx, w, http.StatusOK, validity, err)
}

func (h *Handler) SubmitDeck(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitDeck")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	snap, err := h.drafts.SubmitDeck(ctx, draftID, principal.UserID)
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

func (h *Handler) UnsubmitDeck(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UnsubmitDeck")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	snap, err := h.drafts.UnsubmitDeck(ctx, draftID, principal.UserID)
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}
