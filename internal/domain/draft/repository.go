package draft

import "context"

// InitialVersion is the version assigned to a newly created draft.
const InitialVersion int64 = 1

// Repository persists drafts with optimistic concurrency. The version is a
// storage concern and travels beside the aggregate, never inside it.
type Repository interface {
	Create(ctx context.Context, d Draft) error
	Get(ctx context.Context, id string) (Draft, int64, bool, error)
	// CompareAndSwap writes d and bumps the version only when the stored
	// version still equals expectedVersion. It reports false on a mismatch.
	CompareAndSwap(ctx context.Context, d Draft, expectedVersion int64) (bool, error)
	ListActiveIDs(ctx context.Context, limit int) ([]string, error)
}
