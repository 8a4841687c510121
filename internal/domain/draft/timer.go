package draft

import (
	"fmt"
	"time"
)

// TimerPreset selects how long a seat gets per pick.
type TimerPreset string

const (
	TimerNone     TimerPreset = "none"
	TimerFast     TimerPreset = "fast"
	TimerStandard TimerPreset = "standard"
	TimerSlow     TimerPreset = "slow"
)

func (p TimerPreset) Validate() error {
	switch p {
	case TimerNone, TimerFast, TimerStandard, TimerSlow:
		return nil
	default:
		return fmt.Errorf("%w: unknown timer preset %q", ErrInvalidConfig, p)
	}
}

// PickTimerSeconds is the time allotted for one pick from a pack holding
// cardsInPack cards. Larger packs get more time. Zero means no limit.
func PickTimerSeconds(cardsInPack int, preset TimerPreset) int {
	if cardsInPack <= 0 {
		return 0
	}

	var base, perCard int
	switch preset {
	case TimerFast:
		base, perCard = 5, 3
	case TimerStandard:
		base, perCard = 10, 5
	case TimerSlow:
		base, perCard = 20, 8
	default:
		return 0
	}

	return base + perCard*cardsInPack
}

// PickDeadline is the instant the seat's current pick expires. It reports
// false when the seat has nothing to pick or the draft has no clock.
func (d Draft) PickDeadline(position int) (time.Time, bool) {
	seat, ok := d.Seat(position)
	if !ok || seat.CurrentPack == nil || seat.PackReceivedAt == nil || seat.HasPicked {
		return time.Time{}, false
	}

	var allotted time.Duration
	switch d.Pacing {
	case PacingAsync:
		allotted = d.Config.asyncDeadline()
	default:
		allotted = time.Duration(PickTimerSeconds(len(seat.CurrentPack.Cards), d.Timer)) * time.Second
	}
	if allotted <= 0 {
		return time.Time{}, false
	}

	return seat.PackReceivedAt.Add(allotted), true
}

// ExpiredSeats lists positions whose pick deadline is at or before now.
func (d Draft) ExpiredSeats(now time.Time) []int {
	if d.Status != StatusActive || !d.Format().Simultaneous() {
		return nil
	}

	var out []int
	for _, s := range d.Seats {
		deadline, ok := d.PickDeadline(s.Position)
		if ok && !deadline.After(now) {
			out = append(out, s.Position)
		}
	}

	return out
}
