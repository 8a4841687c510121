package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/card-draft/internal/domain/draft"
	draftmock "github.com/riskibarqy/card-draft/internal/mocks/domain/draft"
	"github.com/riskibarqy/card-draft/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func TestAutoPickSweeper_PicksForExpiredSeats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo, _ := newTestDraftService()
	seedActiveDraft(t, repo, "a", 2, 1, 3, draft.PacingRealtime)
	seedActiveDraft(t, repo, "b", 2, 1, 3, draft.PacingRealtime)

	later := serviceNow.Add(time.Minute)
	svc.now = func() time.Time { return later }
	sweeper := NewAutoPickSweeper(repo, svc, AutoPickSweepConfig{Workers: 2}, logging.NewNop())
	sweeper.now = func() time.Time { return later }

	result, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.DraftCount != 2 || result.ExpiredSeats != 4 || result.PickedCount != 4 || result.FailedCount != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	for _, id := range []string{"a", "b"} {
		d, version, _, _ := repo.Get(ctx, id)
		if version != draft.InitialVersion+2 {
			t.Fatalf("draft %s: expected two writes, version=%d", id, version)
		}
		for i, seat := range d.Seats {
			if len(seat.Picks) != 1 || seat.CurrentPack == nil || seat.HasPicked {
				t.Fatalf("draft %s seat %d should have picked once and hold the passed pack", id, i)
			}
		}
	}

	result, err = sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if result.ExpiredSeats != 0 {
		t.Fatalf("fresh packs should not be expired, got %+v", result)
	}
}

func TestAutoPickSweeper_CountsUnloadableDrafts(t *testing.T) {
	t.Parallel()

	repo := draftmock.NewRepository(t)
	repo.On("ListActiveIDs", mock.Anything, defaultSweepBatchSize).Return([]string{"gone"}, nil).Once()
	repo.On("Get", mock.Anything, "gone").Return(draft.Draft{}, int64(0), false, nil).Once()

	sweeper := NewAutoPickSweeper(repo, nil, AutoPickSweepConfig{}, logging.NewNop())
	result, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.FailedCount != 1 || result.WorkerCount != defaultSweepWorkers {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestAutoPickSweeper_ListError(t *testing.T) {
	t.Parallel()

	repo := draftmock.NewRepository(t)
	repo.On("ListActiveIDs", mock.Anything, 10).Return(nil, errors.New("db down")).Once()

	sweeper := NewAutoPickSweeper(repo, nil, AutoPickSweepConfig{BatchSize: 10}, logging.NewNop())
	if _, err := sweeper.Sweep(context.Background()); err == nil {
		t.Fatalf("expected list error")
	}
}
