package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/card-draft/internal/domain/draft"
	"github.com/riskibarqy/card-draft/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const defaultMutationMaxAttempts = 3

// DraftSnapshot is a draft together with the persisted version it was read at.
type DraftSnapshot struct {
	Draft   draft.Draft `json:"draft"`
	Version int64       `json:"version"`
}

// DraftTransition computes the next state of a draft. It receives a private
// copy and must not touch storage.
type DraftTransition func(draft.Draft) (draft.Draft, error)

// DraftMutator runs read, transition and compare-and-swap as one unit and
// retries on version conflicts.
type DraftMutator struct {
	repo        draft.Repository
	maxAttempts int
	logger      *logging.Logger
	conflicts   atomic.Int64
}

func NewDraftMutator(repo draft.Repository, maxAttempts int, logger *logging.Logger) *DraftMutator {
	if maxAttempts <= 0 {
		maxAttempts = defaultMutationMaxAttempts
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &DraftMutator{
		repo:        repo,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Conflicts is the number of lost compare-and-swap races so far.
func (m *DraftMutator) Conflicts() int64 {
	return m.conflicts.Load()
}

// Mutate applies fn to the latest stored draft. Domain errors from fn are
// returned untouched and never retried. A lost race re-reads and re-applies
// fn, up to the attempt budget, after which ErrWriteConflict is returned.
func (m *DraftMutator) Mutate(ctx context.Context, draftID, operation string, fn DraftTransition) (DraftSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftMutator.Mutate")
	defer span.End()
	span.SetAttributes(
		attribute.String("draft.id", draftID),
		attribute.String("draft.operation", operation),
	)

	draftID = strings.TrimSpace(draftID)
	if draftID == "" {
		return DraftSnapshot{}, fmt.Errorf("%w: draft id is required", ErrInvalidInput)
	}

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		current, version, ok, err := m.repo.Get(ctx, draftID)
		if err != nil {
			return DraftSnapshot{}, crerr.Wrapf(err, "load draft %s", draftID)
		}
		if !ok {
			return DraftSnapshot{}, fmt.Errorf("%w: draft id=%s", ErrNotFound, draftID)
		}

		next, err := fn(current.Clone())
		if err != nil {
			return DraftSnapshot{}, err
		}

		swapped, err := m.repo.CompareAndSwap(ctx, next, version)
		if err != nil {
			return DraftSnapshot{}, crerr.Wrapf(err, "save draft %s", draftID)
		}
		if swapped {
			span.SetAttributes(attribute.Int("draft.attempts", attempt))
			return DraftSnapshot{Draft: next, Version: version + 1}, nil
		}

		m.conflicts.Add(1)
		m.logger.DebugContext(ctx, "draft version moved, retrying",
			"draft_id", draftID,
			"operation", operation,
			"attempt", attempt,
			"expected_version", version,
		)
	}

	m.logger.WarnContext(ctx, "draft mutation gave up after conflicts",
		"draft_id", draftID,
		"operation", operation,
		"attempts", m.maxAttempts,
	)
	return DraftSnapshot{}, crerr.Wrapf(ErrWriteConflict, "%s on draft %s after %d attempts", operation, draftID, m.maxAttempts)
}
