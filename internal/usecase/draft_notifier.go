package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/card-draft/internal/domain/draft"
)

// DraftChangedEvent tells subscribers a draft has a new version to fetch.
type DraftChangedEvent struct {
	DraftID    string       `json:"draft_id"`
	Version    int64        `json:"version"`
	Operation  string       `json:"operation"`
	Status     draft.Status `json:"status"`
	Round      int          `json:"round"`
	OccurredAt time.Time    `json:"occurred_at"`
}

type DraftNotifier interface {
	NotifyDraftChanged(ctx context.Context, event DraftChangedEvent) error
}

type noopDraftNotifier struct{}

func (noopDraftNotifier) NotifyDraftChanged(_ context.Context, _ DraftChangedEvent) error {
	return nil
}

func NewNoopDraftNotifier() DraftNotifier {
	return noopDraftNotifier{}
}
