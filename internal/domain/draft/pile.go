package draft

import (
	"fmt"
	"time"

	"github.com/riskibarqy/card-draft/internal/domain/card"
)

const pileCount = 3

// InitPile shuffles pool into the shared stack and seeds each of the three
// piles with one card. Seat 0 looks at pile 0 first.
func (d Draft) InitPile(pool []card.Card, rng Random) (Draft, error) {
	if err := d.requireStatus("initialize pile draft", StatusActive); err != nil {
		return Draft{}, err
	}
	if d.Format() != FormatPile {
		return Draft{}, fmt.Errorf("%w: format=%s", ErrWrongFormat, d.Format())
	}
	if len(d.Seats) != 2 {
		return Draft{}, fmt.Errorf("%w: pile draft needs exactly 2 players, have %d", ErrNotEnoughPlayers, len(d.Seats))
	}
	if d.Pile != nil {
		return Draft{}, ErrPileAlreadyStarted
	}
	if len(pool) < minPilePoolSize {
		return Draft{}, fmt.Errorf("%w: got %d cards, need at least %d", ErrInsufficientCards, len(pool), minPilePoolSize)
	}

	stack := cloneCards(pool)
	r := orGlobal(rng)
	for i := len(stack) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		stack[i], stack[j] = stack[j], stack[i]
	}

	state := PileState{ActivePile: intPtr(0)}
	for i := range state.Piles {
		state.Piles[i] = []card.Card{stack[i]}
	}
	state.Stack = stack[pileCount:]

	next := d.Clone()
	next.Pile = &state
	return next, nil
}

func (d Draft) checkPileTurn(op string, position int) error {
	if err := d.requireStatus(op, StatusActive); err != nil {
		return err
	}
	if d.Format() != FormatPile {
		return fmt.Errorf("%w: format=%s", ErrWrongFormat, d.Format())
	}
	if d.Pile == nil {
		return ErrPileNotStarted
	}
	if _, ok := d.Seat(position); !ok {
		return fmt.Errorf("%w: position=%d", ErrSeatNotFound, position)
	}
	if d.Pile.ActivePile == nil {
		return ErrPileExhausted
	}
	if d.Pile.ActivePlayerIndex != position {
		return fmt.Errorf("%w: active seat is %d", ErrNotYourTurn, d.Pile.ActivePlayerIndex)
	}

	return nil
}

// LookAtPile shows the active player the contents of the pile under
// consideration. Nothing changes.
func (d Draft) LookAtPile(position, pileIndex int) ([]card.Card, error) {
	if err := d.checkPileTurn("look at pile", position); err != nil {
		return nil, err
	}
	if pileIndex != *d.Pile.ActivePile {
		return nil, fmt.Errorf("%w: asked for %d, active is %d", ErrWrongPile, pileIndex, *d.Pile.ActivePile)
	}

	return cloneCards(d.Pile.Piles[pileIndex]), nil
}

// TakePile moves the whole active pile into the seat's pool, refills it from
// the stack when possible and hands the turn to the other seat.
func (d Draft) TakePile(position int, now time.Time) (Draft, error) {
	if err := d.checkPileTurn("take pile", position); err != nil {
		return Draft{}, err
	}
	idx := *d.Pile.ActivePile
	if len(d.Pile.Piles[idx]) == 0 {
		return Draft{}, fmt.Errorf("%w: pile=%d", ErrEmptyPile, idx)
	}

	next := d.Clone()
	p := next.Pile
	next.addToPool(position, p.Piles[idx], idx+1, now)
	p.Piles[idx] = []card.Card{}
	if len(p.Stack) > 0 {
		p.Piles[idx] = append(p.Piles[idx], p.Stack[0])
		p.Stack = p.Stack[1:]
	}
	next.endPileTurn()

	return next, nil
}

// PassPile declines the active pile, growing it by one card from the stack.
// Declining the last pile forces a blind pick of the top stack card.
func (d Draft) PassPile(position int, now time.Time) (Draft, error) {
	if err := d.checkPileTurn("pass pile", position); err != nil {
		return Draft{}, err
	}

	next := d.Clone()
	p := next.Pile
	idx := *p.ActivePile
	if len(p.Stack) > 0 {
		p.Piles[idx] = append(p.Piles[idx], p.Stack[0])
		p.Stack = p.Stack[1:]
	}

	if idx < pileCount-1 {
		p.ActivePile = intPtr(idx + 1)
		if next.IsWinstonComplete() {
			p.ActivePile = nil
		}
		return next, nil
	}

	if len(p.Stack) > 0 {
		next.addToPool(position, p.Stack[:1], 0, now)
		p.Stack = p.Stack[1:]
	}
	next.endPileTurn()

	return next, nil
}

// IsWinstonComplete reports whether the stack and all three piles are empty.
func (d Draft) IsWinstonComplete() bool {
	return d.Pile != nil && d.Pile.CardCount() == 0
}

// addToPool records cards as picks by position. pileNumber is 1-based, zero
// marks a blind pick off the stack.
func (d *Draft) addToPool(position int, cards []card.Card, pileNumber int, now time.Time) {
	seat := &d.Seats[position]
	for _, c := range cards {
		seat.Pool = append(seat.Pool, c)
		seat.Picks = append(seat.Picks, DraftPick{
			PickNumber: len(seat.Picks) + 1,
			PackNumber: d.CurrentRound,
			PickInPack: pileNumber,
			CardID:     c.ID,
			CardName:   c.Name,
			PickedAt:   now,
		})
	}
}

func (d *Draft) endPileTurn() {
	p := d.Pile
	p.ActivePlayerIndex = 1 - p.ActivePlayerIndex
	p.ActivePile = intPtr(0)
	if d.IsWinstonComplete() {
		p.ActivePile = nil
	}
}

func intPtr(v int) *int {
	return &v
}
