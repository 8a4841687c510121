package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/card-draft/internal/domain/card"
	"github.com/riskibarqy/card-draft/internal/domain/draft"
	"github.com/riskibarqy/card-draft/internal/infrastructure/repository/memory"
	idgen "github.com/riskibarqy/card-draft/internal/platform/id"
	"github.com/riskibarqy/card-draft/internal/platform/logging"
)

var serviceNow = time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC)

func testPack(prefix string, size int) []card.Card {
	out := make([]card.Card, size)
	for i := range out {
		out[i] = card.Card{
			ID:       fmt.Sprintf("%s-c%d", prefix, i),
			Name:     fmt.Sprintf("%s card %d", prefix, i),
			ManaCost: "{1}{G}",
			Rarity:   card.RarityCommon,
		}
	}
	return out
}

func testPacks(round, seats, size int) [][]card.Card {
	out := make([][]card.Card, seats)
	for i := range out {
		out[i] = testPack(fmt.Sprintf("r%d-p%d", round, i), size)
	}
	return out
}

// lockedRandom lets sweeper workers share one seeded source.
type lockedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (r *lockedRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []DraftChangedEvent
	err    error
}

func (n *recordingNotifier) NotifyDraftChanged(_ context.Context, event DraftChangedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) operations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Operation)
	}
	return out
}

func newTestDraftService(ids ...string) (*DraftService, *memory.DraftRepository, *recordingNotifier) {
	repo := memory.NewDraftRepository()
	notifier := &recordingNotifier{}
	svc := NewDraftService(repo, nil, notifier, idgen.NewSequenceGenerator(ids...), logging.NewNop(),
		WithRandom(&lockedRandom{rng: rand.New(rand.NewPCG(7, 11))}))
	svc.now = func() time.Time { return serviceNow }
	return svc, repo, notifier
}

// seedActiveDraft stores a started standard draft seated by u0..uN-1.
func seedActiveDraft(t *testing.T, repo draft.Repository, id string, players, packs, size int, pacing draft.PacingMode) draft.Draft {
	t.Helper()

	d, err := draft.New(draft.NewDraftParams{
		ID:                  id,
		Config:              draft.FormatConfig{Kind: draft.FormatStandard, Standard: &draft.StandardConfig{SetCode: "NEO", AsyncDeadlineHours: 24}},
		Pacing:              pacing,
		Timer:               draft.TimerFast,
		PlayerCount:         players,
		PacksPerPlayer:      packs,
		CardsPerPack:        size,
		DeckBuildingEnabled: true,
	}, serviceNow)
	if err != nil {
		t.Fatalf("new draft: %v", err)
	}
	for i := 0; i < players; i++ {
		if d, err = d.AddPlayer(fmt.Sprintf("u%d", i), fmt.Sprintf("Player %d", i)); err != nil {
			t.Fatalf("add player: %v", err)
		}
	}
	if d, err = d.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if d, err = d.Start(testPacks(1, players, size), serviceNow); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("create: %v", err)
	}
	return d
}
