package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/card-draft/internal/domain/card"
	"github.com/riskibarqy/card-draft/internal/domain/draft"
	"github.com/riskibarqy/card-draft/internal/usecase"
)

type createDraftRequest struct {
	DisplayName         string             `json:"display_name" validate:"omitempty,max=64"`
	Config              draft.FormatConfig `json:"config"`
	Pacing              string             `json:"pacing" validate:"omitempty,oneof=realtime async"`
	Timer               string             `json:"timer" validate:"omitempty,oneof=none fast standard slow"`
	PlayerCount         int                `json:"player_count" validate:"required,min=1"`
	PacksPerPlayer      int                `json:"packs_per_player" validate:"min=0"`
	CardsPerPack        int                `json:"cards_per_pack" validate:"min=0"`
	DeckBuildingEnabled *bool              `json:"deck_building_enabled"`
}

type joinDraftRequest struct {
	DisplayName string `json:"display_name" validate:"omitempty,max=64"`
}

// packsRequest carries card content produced outside the engine, one entry
// per seat in seat order.
type packsRequest struct {
	Packs [][]card.Card `json:"packs" validate:"required,min=1,dive,required,min=1"`
}

func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateDraft")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createDraftRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	deckBuilding := true
	if req.DeckBuildingEnabled != nil {
		deckBuilding = *req.DeckBuildingEnabled
	}

	snap, err := h.drafts.CreateDraft(ctx, usecase.CreateDraftInput{
		UserID:              principal.UserID,
		DisplayName:         displayNameOf(req.DisplayName, principal.Email),
		Config:              req.Config,
		Pacing:              draft.PacingMode(req.Pacing),
		Timer:               draft.TimerPreset(req.Timer),
		PlayerCount:         req.PlayerCount,
		PacksPerPlayer:      req.PacksPerPlayer,
		CardsPerPack:        req.CardsPerPack,
		DeckBuildingEnabled: deckBuilding,
	})
	annotateDraftSpan(span, snap.Draft.ID, principal.UserID)
	h.writeDraft(ctx, w, http.StatusCreated, snap, principal.UserID, err)
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDraft")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	view, err := h.drafts.ViewDraft(ctx, draftID, principal.UserID)
	h.writeResult(ctx, w, http.StatusOK, view, err)
}

func (h *Handler) JoinDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinDraft")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	var req joinDraftRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	snap, err := h.drafts.JoinDraft(ctx, draftID, principal.UserID, displayNameOf(req.DisplayName, principal.Email))
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

func (h *Handler) LeaveDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeaveDraft")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	snap, err := h.drafts.LeaveDraft(ctx, draftID, principal.UserID)
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

func (h *Handler) ConfirmDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ConfirmDraft")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	snap, err := h.drafts.ConfirmDraft(ctx, draftID, principal.UserID)
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

func (h *Handler) StartDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartDraft")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	var req packsRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	snap, err := h.drafts.StartDraft(ctx, draftID, principal.UserID, req.Packs)
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

func (h *Handler) CompleteDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CompleteDraft")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	snap, err := h.drafts.CompleteDraft(ctx, draftID, principal.UserID)
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

// displayNameOf falls back to the local part of the account email.
func displayNameOf(requested, email string) string {
	if name := strings.TrimSpace(requested); name != "" {
		return name
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
