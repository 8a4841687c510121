package draft

import (
	"fmt"
	"testing"
	"time"

	"github.com/riskibarqy/card-draft/internal/domain/card"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func makePack(prefix string, size int) []card.Card {
	out := make([]card.Card, size)
	for i := range out {
		out[i] = card.Card{
			ID:     fmt.Sprintf("%s-c%d", prefix, i),
			Name:   fmt.Sprintf("%s card %d", prefix, i),
			Rarity: card.RarityCommon,
		}
	}
	return out
}

func makePacks(round, seats, size int) [][]card.Card {
	out := make([][]card.Card, seats)
	for i := range out {
		out[i] = makePack(fmt.Sprintf("r%d-p%d", round, i), size)
	}
	return out
}

func standardParams(players, packs, size int) NewDraftParams {
	return NewDraftParams{
		ID:                  "d1",
		Config:              FormatConfig{Kind: FormatStandard, Standard: &StandardConfig{SetCode: "NEO"}},
		PlayerCount:         players,
		PacksPerPlayer:      packs,
		CardsPerPack:        size,
		DeckBuildingEnabled: true,
	}
}

// activeDraft returns a started standard draft with players seated u0..uN-1.
func activeDraft(t *testing.T, p NewDraftParams) Draft {
	t.Helper()

	d, err := New(p, testNow)
	if err != nil {
		t.Fatalf("new draft: %v", err)
	}
	for i := 0; i < p.PlayerCount; i++ {
		d, err = d.AddPlayer(fmt.Sprintf("u%d", i), fmt.Sprintf("Player %d", i))
		if err != nil {
			t.Fatalf("add player %d: %v", i, err)
		}
	}
	if d, err = d.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if d, err = d.Start(makePacks(1, p.PlayerCount, p.CardsPerPack), testNow); err != nil {
		t.Fatalf("start: %v", err)
	}
	return d
}

// pickFirstAll has every seat hold-pick the first card of its pack.
func pickFirstAll(t *testing.T, d Draft) Draft {
	t.Helper()

	var err error
	for i := range d.Seats {
		if d.Seats[i].CurrentPack == nil {
			continue
		}
		d, err = d.Pick(i, d.Seats[i].CurrentPack.Cards[0].ID, testNow)
		if err != nil {
			t.Fatalf("pick seat %d: %v", i, err)
		}
	}
	return d
}
