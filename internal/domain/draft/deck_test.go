package draft

import (
	"errors"
	"testing"

	"github.com/riskibarqy/card-draft/internal/domain/card"
)

func deckBuildingDraft(t *testing.T) Draft {
	t.Helper()

	d := activeDraft(t, standardParams(2, 1, 3))
	for i := 0; i < 3; i++ {
		d = pickFirstAll(t, d)
		var err error
		if d, err = d.PassPacks(testNow); err != nil {
			t.Fatalf("pass: %v", err)
		}
	}
	if !d.IsPickingComplete() {
		t.Fatalf("expected picking complete")
	}

	d, err := d.StartDeckBuilding(testNow)
	if err != nil {
		t.Fatalf("start deck building: %v", err)
	}
	return d
}

func TestMoveCardBetweenZones(t *testing.T) {
	d := deckBuildingDraft(t)
	moved := d.Seats[0].Deck[1].ID
	first, last := d.Seats[0].Deck[0].ID, d.Seats[0].Deck[2].ID

	d, err := d.MoveToSideboard(0, moved)
	if err != nil {
		t.Fatalf("move to sideboard: %v", err)
	}
	seat := d.Seats[0]
	if len(seat.Deck) != 2 || seat.Deck[0].ID != first || seat.Deck[1].ID != last {
		t.Fatalf("deck order not preserved: %+v", seat.Deck)
	}
	if len(seat.Sideboard) != 1 || seat.Sideboard[0].ID != moved {
		t.Fatalf("card not in sideboard")
	}

	if _, err := d.MoveToSideboard(0, moved); !errors.Is(err, ErrCardNotInZone) {
		t.Fatalf("expected card not in zone, got %v", err)
	}
	if d, err = d.MoveToDeck(0, moved); err != nil {
		t.Fatalf("move back: %v", err)
	}
	if len(d.Seats[0].Deck) != 3 || len(d.Seats[0].Sideboard) != 0 {
		t.Fatalf("card not returned to deck")
	}
}

func TestDeckOperationsRequireDeckBuilding(t *testing.T) {
	d := activeDraft(t, standardParams(2, 1, 3))

	if _, err := d.MoveToSideboard(0, "x"); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
	if _, err := d.SetBasicLands(0, BasicLandCounts{W: 1}); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
}

func TestSetBasicLandsRejectsNegative(t *testing.T) {
	d := deckBuildingDraft(t)

	if _, err := d.SetBasicLands(0, BasicLandCounts{W: 3, U: -1}); !errors.Is(err, ErrNegativeLandCount) {
		t.Fatalf("expected negative land error, got %v", err)
	}
	next, err := d.SetBasicLands(0, BasicLandCounts{U: 9, R: 8})
	if err != nil {
		t.Fatalf("set lands: %v", err)
	}
	if next.Seats[0].BasicLands.Total() != 17 {
		t.Fatalf("expected 17 lands, got %d", next.Seats[0].BasicLands.Total())
	}
}

func TestSuggestLandCountsFromSymbols(t *testing.T) {
	tests := []struct {
		name    string
		symbols map[card.Color]int
		want    BasicLandCounts
	}{
		{
			name:    "mono blue",
			symbols: map[card.Color]int{card.ColorBlue: 6},
			want:    BasicLandCounts{U: 17},
		},
		{
			name:    "colorless falls back",
			symbols: map[card.Color]int{},
			want:    BasicLandCounts{W: 4, U: 4, B: 3, R: 3, G: 3},
		},
		{
			name:    "even split gives extra land to first color",
			symbols: map[card.Color]int{card.ColorWhite: 5, card.ColorRed: 5},
			want:    BasicLandCounts{W: 9, R: 8},
		},
		{
			name:    "largest remainder wins",
			symbols: map[card.Color]int{card.ColorBlue: 7, card.ColorBlack: 3, card.ColorGreen: 2},
			// exact shares 9.92, 4.25, 2.83
			want: BasicLandCounts{U: 10, B: 4, G: 3},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SuggestLandCountsFromSymbols(tc.symbols)
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
			if got.Total() != SuggestedLandTotal {
				t.Fatalf("expected %d lands, got %d", SuggestedLandTotal, got.Total())
			}
		})
	}
}

func TestSuggestLandCountsSkipsAbsentColors(t *testing.T) {
	pool := []card.Card{
		{ID: "a", ManaCost: "{1}{G}{G}"},
		{ID: "b", ManaCost: "{W}"},
		{ID: "c", ManaCost: "{3}"},
	}

	got := SuggestLandCounts(pool)
	if got.U != 0 || got.B != 0 || got.R != 0 {
		t.Fatalf("lands suggested for absent colors: %+v", got)
	}
	if got.Total() != SuggestedLandTotal {
		t.Fatalf("expected %d lands, got %d", SuggestedLandTotal, got.Total())
	}
}

func TestValidateDeckThreshold(t *testing.T) {
	seat := Seat{Deck: makePack("deck", 23), BasicLands: BasicLandCounts{U: 7, R: 7}}

	got := ValidateDeck(seat)
	if got.Valid || got.MainCount != 37 {
		t.Fatalf("expected invalid at 37, got %+v", got)
	}

	seat.BasicLands.R += 3
	got = ValidateDeck(seat)
	if !got.Valid || got.MainCount != 40 {
		t.Fatalf("expected valid at 40, got %+v", got)
	}
}

func TestSubmitAndUnsubmit(t *testing.T) {
	d := deckBuildingDraft(t)

	d, err := d.SubmitDeck(0, testNow)
	if err != nil {
		t.Fatalf("submit 0: %v", err)
	}
	if d.Status != StatusDeckBuilding {
		t.Fatalf("draft should wait for every seat, got %s", d.Status)
	}
	if d, err = d.SubmitDeck(1, testNow); err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	if d.Status != StatusComplete || d.CompletedAt == nil {
		t.Fatalf("expected complete, got %s", d.Status)
	}
	if _, err := d.MoveToSideboard(0, d.Seats[0].Deck[0].ID); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("completed draft should be read only, got %v", err)
	}

	if d, err = d.UnsubmitDeck(1); err != nil {
		t.Fatalf("unsubmit: %v", err)
	}
	if d.Status != StatusDeckBuilding || d.CompletedAt != nil || d.Seats[1].DeckSubmitted {
		t.Fatalf("unsubmit should reopen deck building")
	}
	if !d.Seats[0].DeckSubmitted {
		t.Fatalf("other seat's submission must be kept")
	}
}
