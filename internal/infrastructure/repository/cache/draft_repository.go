package cache

import (
	"context"
	"errors"
	"time"

	"github.com/riskibarqy/card-draft/internal/domain/draft"
	basecache "github.com/riskibarqy/card-draft/internal/platform/cache"
)

// CachedDraft is the cache entry for one draft. Misses are not cached.
type CachedDraft struct {
	Draft   draft.Draft
	Version int64
}

var errDraftNotFound = errors.New("draft not found")

// NewDraftStore builds the entry store for DraftRepository. An entry is only
// replaced by a strictly newer version, so a slow read cannot roll back a
// fresher swap.
func NewDraftStore(ttl time.Duration, maxEntries int) *basecache.Store[CachedDraft] {
	return basecache.NewStore[CachedDraft](ttl, maxEntries,
		basecache.WithReplaceIf(func(current, incoming CachedDraft) bool {
			return incoming.Version > current.Version
		}),
	)
}

// DraftRepository is a read-through cache in front of another draft store.
// A successful swap refreshes the entry and a lost swap drops it, so the
// next read after a conflict always goes to the store.
type DraftRepository struct {
	next  draft.Repository
	cache *basecache.Store[CachedDraft]
}

func NewDraftRepository(next draft.Repository, cache *basecache.Store[CachedDraft]) *DraftRepository {
	return &DraftRepository{next: next, cache: cache}
}

func draftKey(id string) string {
	return "draft:" + id
}

func (r *DraftRepository) Create(ctx context.Context, d draft.Draft) error {
	if err := r.next.Create(ctx, d); err != nil {
		return err
	}
	r.cache.Set(ctx, draftKey(d.ID), CachedDraft{Draft: d.Clone(), Version: draft.InitialVersion})
	return nil
}

func (r *DraftRepository) Get(ctx context.Context, id string) (draft.Draft, int64, bool, error) {
	cached, err := r.cache.GetOrLoad(ctx, draftKey(id), func(ctx context.Context) (CachedDraft, error) {
		d, version, ok, err := r.next.Get(ctx, id)
		if err != nil {
			return CachedDraft{}, err
		}
		if !ok {
			return CachedDraft{}, errDraftNotFound
		}
		return CachedDraft{Draft: d.Clone(), Version: version}, nil
	})
	if errors.Is(err, errDraftNotFound) {
		return draft.Draft{}, 0, false, nil
	}
	if err != nil {
		return draft.Draft{}, 0, false, err
	}
	return cached.Draft.Clone(), cached.Version, true, nil
}

func (r *DraftRepository) CompareAndSwap(ctx context.Context, d draft.Draft, expectedVersion int64) (bool, error) {
	key := draftKey(d.ID)
	swapped, err := r.next.CompareAndSwap(ctx, d, expectedVersion)
	if err != nil || !swapped {
		r.cache.Delete(ctx, key)
		return swapped, err
	}

	r.cache.Set(ctx, key, CachedDraft{Draft: d.Clone(), Version: expectedVersion + 1})
	return true, nil
}

// ListActiveIDs always reads through; the active set changes on every start
// and finish.
func (r *DraftRepository) ListActiveIDs(ctx context.Context, limit int) ([]string, error) {
	return r.next.ListActiveIDs(ctx, limit)
}
