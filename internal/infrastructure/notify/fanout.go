package notify

import (
	"context"

	"github.com/riskibarqy/card-draft/internal/usecase"
	"github.com/sourcegraph/conc/pool"
)

// Fanout delivers each event to every notifier concurrently and joins their
// errors.
type Fanout struct {
	notifiers []usecase.DraftNotifier
}

func NewFanout(notifiers ...usecase.DraftNotifier) *Fanout {
	out := make([]usecase.DraftNotifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return &Fanout{notifiers: out}
}

func (f *Fanout) NotifyDraftChanged(ctx context.Context, event usecase.DraftChangedEvent) error {
	switch len(f.notifiers) {
	case 0:
		return nil
	case 1:
		return f.notifiers[0].NotifyDraftChanged(ctx, event)
	}

	p := pool.New().WithErrors().WithContext(ctx)
	for _, n := range f.notifiers {
		p.Go(func(ctx context.Context) error {
			return n.NotifyDraftChanged(ctx, event)
		})
	}
	return p.Wait()
}
