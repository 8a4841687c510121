package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/card-draft/internal/domain/draft"
)

type storedDraft struct {
	draft   draft.Draft
	version int64
}

// DraftRepository keeps drafts in process. Every read and write copies the
// aggregate so callers never share state with the store.
type DraftRepository struct {
	mu    sync.RWMutex
	items map[string]storedDraft
}

func NewDraftRepository() *DraftRepository {
	return &DraftRepository{items: make(map[string]storedDraft)}
}

func (r *DraftRepository) Create(_ context.Context, d draft.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[d.ID]; exists {
		return fmt.Errorf("draft %s already exists", d.ID)
	}
	r.items[d.ID] = storedDraft{draft: d.Clone(), version: draft.InitialVersion}
	return nil
}

func (r *DraftRepository) Get(_ context.Context, id string) (draft.Draft, int64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return draft.Draft{}, 0, false, nil
	}
	return item.draft.Clone(), item.version, true, nil
}

func (r *DraftRepository) CompareAndSwap(_ context.Context, d draft.Draft, expectedVersion int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[d.ID]
	if !ok {
		return false, fmt.Errorf("draft %s does not exist", d.ID)
	}
	if item.version != expectedVersion {
		return false, nil
	}
	r.items[d.ID] = storedDraft{draft: d.Clone(), version: expectedVersion + 1}
	return true, nil
}

func (r *DraftRepository) ListActiveIDs(_ context.Context, limit int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0)
	for id, item := range r.items {
		if item.draft.Status == draft.StatusActive {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
