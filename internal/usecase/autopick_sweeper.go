package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/card-draft/internal/domain/draft"
	"github.com/riskibarqy/card-draft/internal/platform/logging"
)

const (
	defaultSweepWorkers   = 4
	defaultSweepBatchSize = 200
)

type AutoPickSweepConfig struct {
	Workers   int
	BatchSize int
}

type AutoPickSweepResult struct {
	DraftCount   int `json:"draft_count"`
	ExpiredSeats int `json:"expired_seats"`
	PickedCount  int `json:"picked_count"`
	SkippedCount int `json:"skipped_count"`
	FailedCount  int `json:"failed_count"`
	WorkerCount  int `json:"worker_count"`
}

// AutoPickSweeper picks on behalf of seats whose pick clock has run out so a
// single idle player cannot stall the pod.
type AutoPickSweeper struct {
	repo   draft.Repository
	drafts *DraftService
	cfg    AutoPickSweepConfig
	logger *logging.Logger
	now    func() time.Time
}

func NewAutoPickSweeper(repo draft.Repository, drafts *DraftService, cfg AutoPickSweepConfig, logger *logging.Logger) *AutoPickSweeper {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultSweepWorkers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultSweepBatchSize
	}

	return &AutoPickSweeper{
		repo:   repo,
		drafts: drafts,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *AutoPickSweeper) Sweep(ctx context.Context) (AutoPickSweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AutoPickSweeper.Sweep")
	defer span.End()

	ids, err := s.repo.ListActiveIDs(ctx, s.cfg.BatchSize)
	if err != nil {
		return AutoPickSweepResult{}, fmt.Errorf("list active drafts: %w", err)
	}

	result := AutoPickSweepResult{
		DraftCount:  len(ids),
		WorkerCount: s.cfg.Workers,
	}
	if len(ids) == 0 {
		return result, nil
	}

	var expired, picked, skipped, failed atomic.Int32

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return AutoPickSweepResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, id := range ids {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			d, _, ok, err := s.repo.Get(ctx, id)
			if err != nil || !ok {
				failed.Add(1)
				s.logger.WarnContext(ctx, "auto-pick sweep could not load draft", "draft_id", id, "error", err)
				return
			}

			for _, position := range d.ExpiredSeats(s.now().UTC()) {
				expired.Add(1)
				_, did, err := s.drafts.ExpireSeat(ctx, id, position)
				switch {
				case err != nil:
					failed.Add(1)
					s.logger.WarnContext(ctx, "auto-pick failed", "draft_id", id, "position", position, "error", err)
				case did:
					picked.Add(1)
				default:
					skipped.Add(1)
				}
			}
		}); err != nil {
			workers.Done()
			failed.Add(1)
			s.logger.WarnContext(ctx, "auto-pick sweep submit failed", "draft_id", id, "error", err)
		}
	}
	workers.Wait()

	result.ExpiredSeats = int(expired.Load())
	result.PickedCount = int(picked.Load())
	result.SkippedCount = int(skipped.Load())
	result.FailedCount = int(failed.Load())

	s.logger.InfoContext(ctx, "auto-pick sweep finished",
		"drafts", result.DraftCount,
		"expired_seats", result.ExpiredSeats,
		"picked", result.PickedCount,
		"failed", result.FailedCount,
	)
	return result, nil
}
