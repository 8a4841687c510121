package notify

import (
	"context"

	"github.com/riskibarqy/card-draft/internal/platform/logging"
	"github.com/riskibarqy/card-draft/internal/usecase"
)

// LogNotifier writes every change event to the log. Useful when no webhook is
// configured and as an audit trail next to one.
type LogNotifier struct {
	logger *logging.Logger
}

func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyDraftChanged(ctx context.Context, event usecase.DraftChangedEvent) error {
	n.logger.InfoContext(ctx, "draft changed",
		"draft_id", event.DraftID,
		"version", event.Version,
		"op", event.Operation,
		"status", event.Status,
		"round", event.Round,
	)
	return nil
}
