package httpapi

import (
	"net/http"

	"github.com/riskibarqy/card-draft/internal/domain/card"
)

type pickRequest struct {
	CardID string `json:"card_id" validate:"required"`
}

type autoPickRequest struct {
	Position int `json:"position" validate:"min=0"`
}

type pileInitRequest struct {
	Pool []card.Card `json:"pool" validate:"required,min=1"`
}

func (h *Handler) MakePick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MakePick")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	var req pickRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	snap, err := h.drafts.MakePick(ctx, draftID, principal.UserID, req.CardID)
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

func (h *Handler) QueueAutoPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.QueueAutoPick")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	var req pickRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	snap, err := h.drafts.QueueAutoPick(ctx, draftID, principal.UserID, req.CardID)
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

func (h *Handler) AutoPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AutoPick")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	var req autoPickRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	snap, err := h.drafts.AutoPick(ctx, draftID, principal.UserID, req.Position)
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

func (h *Handler) PassPacks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PassPacks")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	snap, err := h.drafts.PassPacks(ctx, draftID, principal.UserID)
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

func (h *Handler) AdvanceRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdvanceRound")
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

	snap, err := h.drafts.AdvanceRound(ctx, draftID, principal.UserID, req.Packs)
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

func (h *Handler) InitPileDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.InitPileDraft")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	var req pileInitRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	snap, err := h.drafts.InitPileDraft(ctx, draftID, principal.UserID, req.Pool)
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

func (h *Handler) LookAtPile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LookAtPile")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	index, err := pathInt(r, "pileIndex")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	cards, err := h.drafts.LookAtPile(ctx, draftID, principal.UserID, index)
	h.writeResult(ctx, w, http.StatusOK, map[string]any{
		"pile_index": index,
		"cards":      cards,
	}, err)
}

func (h *Handler) TakePile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TakePile")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	snap, err := h.drafts.TakePile(ctx, draftID, principal.UserID)
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}

func (h *Handler) PassPile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PassPile")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	draftID := r.PathValue("draftID")
	annotateDraftSpan(span, draftID, principal.UserID)

	snap, err := h.drafts.PassPile(ctx, draftID, principal.UserID)
	h.writeDraft(ctx, w, http.StatusOK, snap, principal.UserID, err)
}
