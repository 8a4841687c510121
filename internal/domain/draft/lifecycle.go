package draft

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/card-draft/internal/domain/card"
)

const (
	minPlayers      = 2
	maxPlayers      = 16
	minPilePoolSize = 3
)

// NewDraftParams holds everything needed to propose a draft.
type NewDraftParams struct {
	ID                  string
	Config              FormatConfig
	Pacing              PacingMode
	Timer               TimerPreset
	PlayerCount         int
	PacksPerPlayer      int
	CardsPerPack        int
	DeckBuildingEnabled bool
}

// New creates a proposed draft with an empty roster.
func New(p NewDraftParams, now time.Time) (Draft, error) {
	if strings.TrimSpace(p.ID) == "" {
		return Draft{}, fmt.Errorf("%w: draft id is required", ErrInvalidConfig)
	}
	if p.PlayerCount < minPlayers || p.PlayerCount > maxPlayers {
		return Draft{}, fmt.Errorf("%w: player count must be between %d and %d", ErrInvalidConfig, minPlayers, maxPlayers)
	}
	if err := p.Config.Validate(p.PlayerCount); err != nil {
		return Draft{}, err
	}
	if p.Pacing == "" {
		p.Pacing = PacingRealtime
	}
	if p.Pacing != PacingRealtime && p.Pacing != PacingAsync {
		return Draft{}, fmt.Errorf("%w: unknown pacing %q", ErrInvalidConfig, p.Pacing)
	}
	if p.Timer == "" {
		p.Timer = TimerNone
	}
	if err := p.Timer.Validate(); err != nil {
		return Draft{}, err
	}
	if p.Config.Kind.Simultaneous() {
		if p.PacksPerPlayer < 1 {
			return Draft{}, fmt.Errorf("%w: packs per player must be >= 1", ErrInvalidConfig)
		}
		if p.CardsPerPack < 1 {
			return Draft{}, fmt.Errorf("%w: cards per pack must be >= 1", ErrInvalidConfig)
		}
	}

	return Draft{
		ID:                  p.ID,
		Config:              p.Config.clone(),
		Pacing:              p.Pacing,
		Timer:               p.Timer,
		Status:              StatusProposed,
		PlayerCount:         p.PlayerCount,
		PacksPerPlayer:      p.PacksPerPlayer,
		CardsPerPack:        p.CardsPerPack,
		DeckBuildingEnabled: p.DeckBuildingEnabled,
		Seats:               []Seat{},
		CreatedAt:           now,
	}, nil
}

// AddPlayer seats userID at the next free position.
func (d Draft) AddPlayer(userID, displayName string) (Draft, error) {
	if err := d.requireStatus("add player", StatusProposed, StatusConfirmed); err != nil {
		return Draft{}, err
	}
	if _, exists := d.SeatByUser(userID); exists {
		return Draft{}, fmt.Errorf("%w: user=%s", ErrDuplicatePlayer, userID)
	}
	if len(d.Seats) >= d.PlayerCount {
		return Draft{}, fmt.Errorf("%w: capacity=%d", ErrRosterFull, d.PlayerCount)
	}

	next := d.Clone()
	next.Seats = append(next.Seats, Seat{
		Position:    len(next.Seats),
		UserID:      userID,
		DisplayName: displayName,
		Picks:       []DraftPick{},
		Pool:        []card.Card{},
	})

	return next, nil
}

// RemovePlayer unseats userID and renumbers the remaining seats. This is only
// legal before packs circulate.
func (d Draft) RemovePlayer(userID string) (Draft, error) {
	if err := d.requireStatus("remove player", StatusProposed, StatusConfirmed); err != nil {
		return Draft{}, err
	}
	seat, ok := d.SeatByUser(userID)
	if !ok {
		return Draft{}, fmt.Errorf("%w: user=%s", ErrSeatNotFound, userID)
	}

	next := d.Clone()
	seats := make([]Seat, 0, len(next.Seats)-1)
	for _, s := range next.Seats {
		if s.Position == seat.Position {
			continue
		}
		s.Position = len(seats)
		seats = append(seats, s)
	}
	next.Seats = seats

	return next, nil
}

// Confirm locks in a roster of at least two players.
func (d Draft) Confirm() (Draft, error) {
	if err := d.requireStatus("confirm draft", StatusProposed); err != nil {
		return Draft{}, err
	}
	if err := d.checkRoster(); err != nil {
		return Draft{}, err
	}

	next := d.Clone()
	next.Status = StatusConfirmed
	return next, nil
}

func (d Draft) checkRoster() error {
	if len(d.Seats) < minPlayers {
		return fmt.Errorf("%w: have %d, need %d", ErrNotEnoughPlayers, len(d.Seats), minPlayers)
	}
	if d.Format() == FormatPile && len(d.Seats) != 2 {
		return fmt.Errorf("%w: pile draft needs exactly 2 players, have %d", ErrNotEnoughPlayers, len(d.Seats))
	}
	return nil
}

// Start activates a confirmed draft. Simultaneous formats hand each seat its
// first-round pack from packs; the pile format ignores packs and is set up
// separately by InitPile.
func (d Draft) Start(packs [][]card.Card, now time.Time) (Draft, error) {
	if err := d.requireStatus("start draft", StatusConfirmed); err != nil {
		return Draft{}, err
	}
	// Players may leave a confirmed draft, so the roster is checked again.
	if err := d.checkRoster(); err != nil {
		return Draft{}, err
	}

	next := d.Clone()
	next.Status = StatusActive
	next.StartedAt = &now

	switch d.Format() {
	case FormatStandard, FormatCube:
		if len(packs) < len(d.Seats) {
			return Draft{}, fmt.Errorf("%w: got %d packs for %d seats", ErrInsufficientPacks, len(packs), len(d.Seats))
		}
		next.CurrentRound = 1
		next.dealRound(1, packs, now)
	case FormatPile:
		next.CurrentRound = 1
	default:
		return Draft{}, fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, d.Format())
	}

	return next, nil
}

// StartDeckBuilding ends picking. Every seat's deck starts as a copy of its
// pool with an empty sideboard. Drafts without deck building complete here.
func (d Draft) StartDeckBuilding(now time.Time) (Draft, error) {
	if err := d.requireStatus("start deck building", StatusActive); err != nil {
		return Draft{}, err
	}

	next := d.Clone()
	for i := range next.Seats {
		next.Seats[i].Deck = cloneCards(next.Seats[i].Pool)
		if next.Seats[i].Deck == nil {
			next.Seats[i].Deck = []card.Card{}
		}
		next.Seats[i].Sideboard = []card.Card{}
		next.Seats[i].QueuedPickID = ""
	}

	if !d.DeckBuildingEnabled {
		next.Status = StatusComplete
		next.CompletedAt = &now
		return next, nil
	}

	next.Status = StatusDeckBuilding
	return next, nil
}

// Complete finishes the draft.
func (d Draft) Complete(now time.Time) (Draft, error) {
	if err := d.requireStatus("complete draft", StatusActive, StatusDeckBuilding); err != nil {
		return Draft{}, err
	}

	next := d.Clone()
	next.Status = StatusComplete
	next.CompletedAt = &now
	return next, nil
}
