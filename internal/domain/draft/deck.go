package draft

import (
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/card-draft/internal/domain/card"
)

const (
	// SuggestedLandTotal is the basic land count suggested for a 40-card deck.
	SuggestedLandTotal = 17
	// MinimumDeckSize is the advisory main deck size.
	MinimumDeckSize = 40
)

// MoveToSideboard moves one copy of cardID from the seat's deck to its sideboard.
func (d Draft) MoveToSideboard(position int, cardID string) (Draft, error) {
	return d.moveCard("move card to sideboard", position, cardID, true)
}

// MoveToDeck moves one copy of cardID from the seat's sideboard to its deck.
func (d Draft) MoveToDeck(position int, cardID string) (Draft, error) {
	return d.moveCard("move card to deck", position, cardID, false)
}

func (d Draft) moveCard(op string, position int, cardID string, toSideboard bool) (Draft, error) {
	if err := d.requireStatus(op, StatusDeckBuilding); err != nil {
		return Draft{}, err
	}
	if _, ok := d.Seat(position); !ok {
		return Draft{}, fmt.Errorf("%w: position=%d", ErrSeatNotFound, position)
	}

	next := d.Clone()
	seat := &next.Seats[position]
	from, to := &seat.Deck, &seat.Sideboard
	if !toSideboard {
		from, to = &seat.Sideboard, &seat.Deck
	}

	idx := card.IndexOf(*from, cardID)
	if idx < 0 {
		return Draft{}, fmt.Errorf("%w: card=%s", ErrCardNotInZone, cardID)
	}
	moved := (*from)[idx]
	*from = card.Remove(*from, idx)
	*to = append(*to, moved)

	return next, nil
}

// SetBasicLands replaces the seat's basic land counts.
func (d Draft) SetBasicLands(position int, counts BasicLandCounts) (Draft, error) {
	if err := d.requireStatus("set basic lands", StatusDeckBuilding); err != nil {
		return Draft{}, err
	}
	if _, ok := d.Seat(position); !ok {
		return Draft{}, fmt.Errorf("%w: position=%d", ErrSeatNotFound, position)
	}
	if err := counts.Validate(); err != nil {
		return Draft{}, err
	}

	next := d.Clone()
	next.Seats[position].BasicLands = counts
	return next, nil
}

// SuggestLands proposes basic land counts from the seat's pool.
func (d Draft) SuggestLands(position int) (BasicLandCounts, error) {
	seat, ok := d.Seat(position)
	if !ok {
		return BasicLandCounts{}, fmt.Errorf("%w: position=%d", ErrSeatNotFound, position)
	}
	return SuggestLandCounts(seat.Pool), nil
}

// SuggestLandCounts splits SuggestedLandTotal lands across colors in
// proportion to the mana symbols printed on pool.
func SuggestLandCounts(pool []card.Card) BasicLandCounts {
	return SuggestLandCountsFromSymbols(card.CountColorSymbols(pool))
}

// SuggestLandCountsFromSymbols does the split for pre-counted symbols. Each
// color gets the floor of its share and leftover lands go to the largest
// remainders. A pool without colored symbols gets an even-ish spread.
func SuggestLandCountsFromSymbols(symbols map[card.Color]int) BasicLandCounts {
	total := 0
	for _, color := range card.AllColors {
		total += symbols[color]
	}
	if total == 0 {
		return BasicLandCounts{W: 4, U: 4, B: 3, R: 3, G: 3}
	}

	type share struct {
		color     card.Color
		count     int
		remainder int
	}

	var out BasicLandCounts
	shares := make([]share, 0, len(card.AllColors))
	assigned := 0
	for _, color := range card.AllColors {
		n := symbols[color]
		if n <= 0 {
			continue
		}
		lands := n * SuggestedLandTotal / total
		out.Set(color, lands)
		assigned += lands
		shares = append(shares, share{
			color:     color,
			count:     n,
			remainder: n * SuggestedLandTotal % total,
		})
	}

	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].remainder != shares[j].remainder {
			return shares[i].remainder > shares[j].remainder
		}
		return shares[i].count > shares[j].count
	})
	for i := 0; assigned < SuggestedLandTotal; i++ {
		c := shares[i%len(shares)].color
		out.Set(c, out.Get(c)+1)
		assigned++
	}

	return out
}

// SubmitDeck marks the seat's deck final. The draft completes once every
// seat has submitted.
func (d Draft) SubmitDeck(position int, now time.Time) (Draft, error) {
	if err := d.requireStatus("submit deck", StatusDeckBuilding); err != nil {
		return Draft{}, err
	}
	if _, ok := d.Seat(position); !ok {
		return Draft{}, fmt.Errorf("%w: position=%d", ErrSeatNotFound, position)
	}

	next := d.Clone()
	next.Seats[position].DeckSubmitted = true
	for _, s := range next.Seats {
		if !s.DeckSubmitted {
			return next, nil
		}
	}
	next.Status = StatusComplete
	next.CompletedAt = &now

	return next, nil
}

// UnsubmitDeck reopens the seat's deck. A draft completed by deck
// submission returns to deck building.
func (d Draft) UnsubmitDeck(position int) (Draft, error) {
	if err := d.requireStatus("unsubmit deck", StatusDeckBuilding, StatusComplete); err != nil {
		return Draft{}, err
	}
	if d.Status == StatusComplete && !d.DeckBuildingEnabled {
		return Draft{}, illegal(d.Status, "unsubmit deck")
	}
	if _, ok := d.Seat(position); !ok {
		return Draft{}, fmt.Errorf("%w: position=%d", ErrSeatNotFound, position)
	}

	next := d.Clone()
	next.Seats[position].DeckSubmitted = false
	if next.Status == StatusComplete {
		next.Status = StatusDeckBuilding
		next.CompletedAt = nil
	}

	return next, nil
}

// DeckValidity is an advisory check of a seat's main deck.
type DeckValidity struct {
	MainCount   int  `json:"main_count"`
	MinimumSize int  `json:"minimum_size"`
	Valid       bool `json:"valid"`
}

// ValidateDeck counts main deck cards plus basic lands. It never blocks
// submission.
func ValidateDeck(seat Seat) DeckValidity {
	count := len(seat.Deck) + seat.BasicLands.Total()
	return DeckValidity{
		MainCount:   count,
		MinimumSize: MinimumDeckSize,
		Valid:       count >= MinimumDeckSize,
	}
}
