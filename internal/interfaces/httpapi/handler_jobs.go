package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/card-draft/internal/usecase"
)

type internalJobRequest struct {
	DispatchID string `json:"dispatch_id" validate:"omitempty,max=128"`
}

type internalJobResponse struct {
	DispatchID string                      `json:"dispatch_id,omitempty"`
	Result     usecase.AutoPickSweepResult `json:"result"`
	DurationMS int64                       `json:"duration_ms"`
}

// RunAutoPickJob is called by an external scheduler to settle seats whose
// pick clock ran out.
func (h *Handler) RunAutoPickJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunAutoPickJob")
	defer span.End()

	if h.sweeper == nil {
		writeError(ctx, w, fmt.Errorf("%w: auto-pick sweeper is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req internalJobRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	dispatchID := strings.TrimSpace(req.DispatchID)

	started := time.Now()
	result, err := h.sweeper.Sweep(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run auto-pick job failed", "dispatch_id", dispatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, internalJobResponse{
		DispatchID: dispatchID,
		Result:     result,
		DurationMS: time.Since(started).Milliseconds(),
	})
}
