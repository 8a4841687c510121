package draft

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/riskibarqy/card-draft/internal/domain/card"
)

// Random is the subset of *rand.Rand the engine needs.
type Random interface {
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int { return rand.IntN(n) }

func orGlobal(rng Random) Random {
	if rng == nil {
		return globalRandom{}
	}
	return rng
}

// Direction is the way leftover packs travel around the table.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// PassDirection alternates by round: odd rounds pass left, even rounds right.
func PassDirection(round int) Direction {
	if round%2 == 0 {
		return DirectionRight
	}
	return DirectionLeft
}

// NeighborPosition is the seat that receives position's leftover pack in round.
func NeighborPosition(position, round, seatCount int) int {
	if PassDirection(round) == DirectionLeft {
		return (position + 1) % seatCount
	}
	return (position - 1 + seatCount) % seatCount
}

func packID(draftID string, round, origin int) string {
	return fmt.Sprintf("%s-r%d-s%d", draftID, round, origin)
}

func (d *Draft) dealRound(round int, packs [][]card.Card, now time.Time) {
	for i := range d.Seats {
		d.deliver(i, PackState{
			ID:         packID(d.ID, round, i),
			OriginSeat: i,
			Cards:      cloneCards(packs[i]),
			PickNumber: 1,
			Round:      round,
		}, now)
	}
}

// deliver hands pack to position, queueing it when the seat is busy. Empty
// packs are dropped.
func (d *Draft) deliver(position int, pack PackState, now time.Time) {
	if len(pack.Cards) == 0 {
		return
	}
	seat := &d.Seats[position]
	if seat.CurrentPack == nil {
		seat.CurrentPack = &pack
		seat.PackReceivedAt = &now
		seat.HasPicked = false
		return
	}
	seat.PackQueue = append(seat.PackQueue, pack)
}

// promote moves the head of the seat's queue into its empty hand.
func (d *Draft) promote(position int, now time.Time) {
	seat := &d.Seats[position]
	if seat.CurrentPack != nil {
		return
	}
	seat.HasPicked = false
	if len(seat.PackQueue) == 0 {
		seat.PackReceivedAt = nil
		return
	}

	head := seat.PackQueue[0]
	seat.PackQueue = append([]PackState(nil), seat.PackQueue[1:]...)
	seat.CurrentPack = &head
	seat.PackReceivedAt = &now
	seat.QueuedPickID = ""
}

func (d Draft) checkPick(position int, cardID string) error {
	if err := d.requireStatus("pick", StatusActive); err != nil {
		return err
	}
	if !d.Format().Simultaneous() {
		return fmt.Errorf("%w: format=%s", ErrWrongFormat, d.Format())
	}
	seat, ok := d.Seat(position)
	if !ok {
		return fmt.Errorf("%w: position=%d", ErrSeatNotFound, position)
	}
	if seat.CurrentPack == nil {
		return fmt.Errorf("%w: position=%d", ErrNoCurrentPack, position)
	}
	if seat.HasPicked {
		return fmt.Errorf("%w: position=%d pack=%s", ErrAlreadyPicked, position, seat.CurrentPack.ID)
	}
	if card.IndexOf(seat.CurrentPack.Cards, cardID) < 0 {
		return fmt.Errorf("%w: card=%s pack=%s", ErrCardNotInPack, cardID, seat.CurrentPack.ID)
	}

	return nil
}

// take moves cardID from the seat's current pack into its pool and returns
// what is left of the pack. The seat's hand is left empty.
func (d *Draft) take(position int, cardID string, now time.Time) PackState {
	seat := &d.Seats[position]
	pack := *seat.CurrentPack
	idx := card.IndexOf(pack.Cards, cardID)
	picked := pack.Cards[idx]

	pack.Cards = card.Remove(pack.Cards, idx)
	seat.Pool = append(seat.Pool, picked)
	seat.Picks = append(seat.Picks, DraftPick{
		PickNumber: len(seat.Picks) + 1,
		PackNumber: pack.Round,
		PickInPack: pack.PickNumber,
		CardID:     picked.ID,
		CardName:   picked.Name,
		PickedAt:   now,
	})
	pack.PickNumber++

	seat.CurrentPack = nil
	seat.QueuedPickID = ""
	return pack
}

// Pick takes cardID and holds the rest of the pack until PassPacks runs.
// A pack emptied by the pick is discarded and the next queued pack, if any,
// becomes current.
func (d Draft) Pick(position int, cardID string, now time.Time) (Draft, error) {
	if err := d.checkPick(position, cardID); err != nil {
		return Draft{}, err
	}

	next := d.Clone()
	rest := next.take(position, cardID, now)
	if len(rest.Cards) == 0 {
		next.promote(position, now)
		return next, nil
	}

	seat := &next.Seats[position]
	seat.CurrentPack = &rest
	seat.HasPicked = true
	return next, nil
}

// PickAndPass takes cardID and sends the rest of the pack to the neighbor
// right away. Direction follows the pack's own round because seats may be
// working through different rounds.
func (d Draft) PickAndPass(position int, cardID string, now time.Time) (Draft, error) {
	if err := d.checkPick(position, cardID); err != nil {
		return Draft{}, err
	}

	next := d.Clone()
	rest := next.take(position, cardID, now)
	next.promote(position, now)
	next.deliver(NeighborPosition(position, rest.Round, len(next.Seats)), rest, now)
	return next, nil
}

// AllSeatsPicked reports whether every seat holding a pack has picked from it.
func (d Draft) AllSeatsPicked() bool {
	for _, s := range d.Seats {
		if s.CurrentPack != nil && !s.HasPicked {
			return false
		}
	}
	return true
}

// PassPacks moves every held, picked-from pack to its neighbor.
func (d Draft) PassPacks(now time.Time) (Draft, error) {
	if err := d.requireStatus("pass packs", StatusActive); err != nil {
		return Draft{}, err
	}
	if !d.Format().Simultaneous() {
		return Draft{}, fmt.Errorf("%w: format=%s", ErrWrongFormat, d.Format())
	}
	if !d.AllSeatsPicked() {
		return Draft{}, ErrSeatsNotReady
	}

	type outgoing struct {
		to   int
		pack PackState
	}

	next := d.Clone()
	moves := make([]outgoing, 0, len(next.Seats))
	for i := range next.Seats {
		seat := &next.Seats[i]
		if seat.CurrentPack == nil || !seat.HasPicked {
			continue
		}
		moves = append(moves, outgoing{
			to:   NeighborPosition(i, seat.CurrentPack.Round, len(next.Seats)),
			pack: *seat.CurrentPack,
		})
		seat.CurrentPack = nil
	}
	for i := range next.Seats {
		next.promote(i, now)
	}
	for _, m := range moves {
		next.deliver(m.to, m.pack, now)
	}

	return next, nil
}

// IsRoundComplete reports whether every pack of the current round, in hand or
// queued, has been used up.
func (d Draft) IsRoundComplete() bool {
	if d.Status != StatusActive || !d.Format().Simultaneous() || d.CurrentRound == 0 {
		return false
	}
	for _, s := range d.Seats {
		if s.CurrentPack != nil && s.CurrentPack.Round == d.CurrentRound {
			return false
		}
		for _, p := range s.PackQueue {
			if p.Round == d.CurrentRound {
				return false
			}
		}
	}
	return true
}

// IsPickingComplete reports whether the final round has been used up.
func (d Draft) IsPickingComplete() bool {
	return d.CurrentRound >= d.PacksPerPlayer && d.IsRoundComplete()
}

// AdvanceRound opens the next round with one fresh pack per seat.
func (d Draft) AdvanceRound(packs [][]card.Card, now time.Time) (Draft, error) {
	if err := d.requireStatus("advance round", StatusActive); err != nil {
		return Draft{}, err
	}
	if !d.Format().Simultaneous() {
		return Draft{}, fmt.Errorf("%w: format=%s", ErrWrongFormat, d.Format())
	}
	if d.CurrentRound >= d.PacksPerPlayer {
		return Draft{}, fmt.Errorf("%w: round=%d packs_per_player=%d", ErrNoMoreRounds, d.CurrentRound, d.PacksPerPlayer)
	}
	if !d.IsRoundComplete() {
		return Draft{}, fmt.Errorf("%w: round=%d", ErrRoundNotComplete, d.CurrentRound)
	}
	if len(packs) < len(d.Seats) {
		return Draft{}, fmt.Errorf("%w: got %d packs for %d seats", ErrInsufficientPacks, len(packs), len(d.Seats))
	}

	next := d.Clone()
	next.CurrentRound++
	next.dealRound(next.CurrentRound, packs, now)
	return next, nil
}

// QueueAutoPick remembers cardID as the seat's preferred pick if its timer
// runs out on the current pack.
func (d Draft) QueueAutoPick(position int, cardID string) (Draft, error) {
	if err := d.checkPick(position, cardID); err != nil {
		return Draft{}, err
	}

	next := d.Clone()
	next.Seats[position].QueuedPickID = cardID
	return next, nil
}

// ChooseAutoPick returns the queued card when it is still in the pack,
// otherwise a random card among those of the highest rarity present.
func ChooseAutoPick(pack PackState, queuedID string, rng Random) (card.Card, error) {
	if len(pack.Cards) == 0 {
		return card.Card{}, fmt.Errorf("%w: pack=%s", ErrNoCurrentPack, pack.ID)
	}
	if queuedID != "" {
		if idx := card.IndexOf(pack.Cards, queuedID); idx >= 0 {
			return pack.Cards[idx], nil
		}
	}

	best := -1
	var candidates []card.Card
	for _, c := range pack.Cards {
		rank := c.Rarity.Rank()
		switch {
		case rank > best:
			best = rank
			candidates = append(candidates[:0], c)
		case rank == best:
			candidates = append(candidates, c)
		}
	}

	return candidates[orGlobal(rng).IntN(len(candidates))], nil
}

// AutoPick picks on the seat's behalf when its clock runs out. Realtime
// drafts hold the pack like Pick; async drafts pass it like PickAndPass.
func (d Draft) AutoPick(position int, rng Random, now time.Time) (Draft, error) {
	if err := d.requireStatus("auto-pick", StatusActive); err != nil {
		return Draft{}, err
	}
	seat, ok := d.Seat(position)
	if !ok {
		return Draft{}, fmt.Errorf("%w: position=%d", ErrSeatNotFound, position)
	}
	if seat.CurrentPack == nil {
		return Draft{}, fmt.Errorf("%w: position=%d", ErrNoCurrentPack, position)
	}

	chosen, err := ChooseAutoPick(*seat.CurrentPack, seat.QueuedPickID, rng)
	if err != nil {
		return Draft{}, err
	}
	if d.Pacing == PacingAsync {
		return d.PickAndPass(position, chosen.ID, now)
	}
	return d.Pick(position, chosen.ID, now)
}
