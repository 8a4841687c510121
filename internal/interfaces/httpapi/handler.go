package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/card-draft/internal/domain/user"
	"github.com/riskibarqy/card-draft/internal/platform/logging"
	"github.com/riskibarqy/card-draft/internal/usecase"
)

// maxRequestBody bounds request payloads. Start and advance-round bodies carry
// whole packs, so this is larger than a typical JSON API.
const maxRequestBody = 4 << 20

type Handler struct {
	drafts    *usecase.DraftService
	sweeper   *usecase.AutoPickSweeper
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(
	drafts *usecase.DraftService,
	sweeper *usecase.AutoPickSweeper,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		drafts:    drafts,
		sweeper:   sweeper,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeJSON reads the request body into dst and validates it. An empty body
// leaves dst untouched and only runs validation.
func (h *Handler) decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(body) > maxRequestBody {
		return fmt.Errorf("%w: request body exceeds %d bytes", usecase.ErrInvalidInput, maxRequestBody)
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := sonic.Unmarshal(body, dst); err != nil {
			return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
		}
	}

	return h.validateRequest(r.Context(), dst)
}

func requirePrincipal(ctx context.Context) (user.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return principal, nil
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", usecase.ErrInvalidInput, name, raw)
	}
	return v, nil
}

// writeDraft answers a draft mutation with the caller's view of the result.
func (h *Handler) writeDraft(ctx context.Context, w http.ResponseWriter, status int, snap usecase.DraftSnapshot, viewerUserID string, err error) {
	if err != nil {
		h.writeResult(ctx, w, status, nil, err)
		return
	}
	h.writeResult(ctx, w, status, usecase.NewDraftView(snap, viewerUserID), nil)
}

// writeResult writes err through the error mapper, logging only failures the
// caller cannot fix.
func (h *Handler) writeResult(ctx context.Context, w http.ResponseWriter, status int, data any, err error) {
	if err == nil {
		writeSuccess(ctx, w, status, data)
		return
	}

	mapped := mapError(ctx, err)
	if mapped.HTTPStatus >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed", "error", err)
	} else if errors.Is(err, usecase.ErrWriteConflict) {
		h.logger.WarnContext(ctx, "request lost draft write race", "error", err)
	}
	writeError(ctx, w, err)
}
