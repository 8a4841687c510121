package draft

import (
	"fmt"
	"time"

	"github.com/riskibarqy/card-draft/internal/domain/card"
)

// Format selects how cards circulate between seats.
type Format string

const (
	FormatStandard Format = "standard"
	FormatPile     Format = "pile"
	FormatCube     Format = "cube"
)

// Simultaneous reports whether the format uses pick-and-pass packs.
func (f Format) Simultaneous() bool {
	return f == FormatStandard || f == FormatCube
}

// Status is the lifecycle state of a draft.
type Status string

const (
	StatusProposed     Status = "proposed"
	StatusConfirmed    Status = "confirmed"
	StatusActive       Status = "active"
	StatusDeckBuilding Status = "deck_building"
	StatusComplete     Status = "complete"
)

// PacingMode decides whether seats pick in lockstep or independently.
type PacingMode string

const (
	// PacingRealtime holds picked packs until every seat has picked, then passes.
	PacingRealtime PacingMode = "realtime"
	// PacingAsync passes each pack the moment it is picked from.
	PacingAsync PacingMode = "async"
)

// StandardConfig configures a retail booster draft.
type StandardConfig struct {
	SetCode            string `json:"set_code"`
	AsyncDeadlineHours int    `json:"async_deadline_hours,omitempty"`
}

// CubeConfig configures a draft from a curated cube list.
type CubeConfig struct {
	CubeID             string `json:"cube_id"`
	CubeName           string `json:"cube_name,omitempty"`
	AsyncDeadlineHours int    `json:"async_deadline_hours,omitempty"`
}

// PileConfig configures the two-player pile draft.
type PileConfig struct {
	PoolSize int `json:"pool_size"`
}

// FormatConfig is a tagged variant: exactly the member matching Kind is set.
type FormatConfig struct {
	Kind     Format          `json:"kind"`
	Standard *StandardConfig `json:"standard,omitempty"`
	Pile     *PileConfig     `json:"pile,omitempty"`
	Cube     *CubeConfig     `json:"cube,omitempty"`
}

func (c FormatConfig) Validate(playerCount int) error {
	switch c.Kind {
	case FormatStandard:
		if c.Standard == nil || c.Pile != nil || c.Cube != nil {
			return fmt.Errorf("%w: standard format requires only standard config", ErrInvalidConfig)
		}
		if c.Standard.SetCode == "" {
			return fmt.Errorf("%w: set code is required", ErrInvalidConfig)
		}
		if c.Standard.AsyncDeadlineHours < 0 {
			return fmt.Errorf("%w: async deadline cannot be negative", ErrInvalidConfig)
		}
	case FormatCube:
		if c.Cube == nil || c.Pile != nil || c.Standard != nil {
			return fmt.Errorf("%w: cube format requires only cube config", ErrInvalidConfig)
		}
		if c.Cube.CubeID == "" {
			return fmt.Errorf("%w: cube id is required", ErrInvalidConfig)
		}
		if c.Cube.AsyncDeadlineHours < 0 {
			return fmt.Errorf("%w: async deadline cannot be negative", ErrInvalidConfig)
		}
	case FormatPile:
		if c.Pile == nil || c.Standard != nil || c.Cube != nil {
			return fmt.Errorf("%w: pile format requires only pile config", ErrInvalidConfig)
		}
		if playerCount != 2 {
			return fmt.Errorf("%w: pile format requires exactly 2 players, got %d", ErrInvalidConfig, playerCount)
		}
		if c.Pile.PoolSize < minPilePoolSize {
			return fmt.Errorf("%w: pile pool size must be >= %d", ErrInvalidConfig, minPilePoolSize)
		}
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Kind)
	}

	return nil
}

func (c FormatConfig) asyncDeadline() time.Duration {
	switch c.Kind {
	case FormatStandard:
		if c.Standard != nil {
			return time.Duration(c.Standard.AsyncDeadlineHours) * time.Hour
		}
	case FormatCube:
		if c.Cube != nil {
			return time.Duration(c.Cube.AsyncDeadlineHours) * time.Hour
		}
	case FormatPile:
	}

	return 0
}

// BasicLandCounts holds the number of each basic land added to a deck.
type BasicLandCounts struct {
	W int `json:"W"`
	U int `json:"U"`
	B int `json:"B"`
	R int `json:"R"`
	G int `json:"G"`
}

func (b BasicLandCounts) Total() int {
	return b.W + b.U + b.B + b.R + b.G
}

func (b BasicLandCounts) Get(color card.Color) int {
	switch color {
	case card.ColorWhite:
		return b.W
	case card.ColorBlue:
		return b.U
	case card.ColorBlack:
		return b.B
	case card.ColorRed:
		return b.R
	case card.ColorGreen:
		return b.G
	default:
		return 0
	}
}

func (b *BasicLandCounts) Set(color card.Color, n int) {
	switch color {
	case card.ColorWhite:
		b.W = n
	case card.ColorBlue:
		b.U = n
	case card.ColorBlack:
		b.B = n
	case card.ColorRed:
		b.R = n
	case card.ColorGreen:
		b.G = n
	}
}

func (b BasicLandCounts) Validate() error {
	for _, color := range card.AllColors {
		if b.Get(color) < 0 {
			return fmt.Errorf("%w: %s=%d", ErrNegativeLandCount, color, b.Get(color))
		}
	}

	return nil
}

// PackState is one pack in circulation.
type PackState struct {
	ID         string      `json:"id"`
	OriginSeat int         `json:"origin_seat"`
	Cards      []card.Card `json:"cards"`
	// PickNumber is the 1-based number of the next pick taken from this pack.
	PickNumber int `json:"pick_number"`
	Round      int `json:"round"`
}

// DraftPick records one card taken by a seat.
type DraftPick struct {
	PickNumber int       `json:"pick_number"`
	PackNumber int       `json:"pack_number"`
	PickInPack int       `json:"pick_in_pack"`
	CardID     string    `json:"card_id"`
	CardName   string    `json:"card_name"`
	PickedAt   time.Time `json:"picked_at"`
}

// Seat is one player's slot. Position never changes once the draft starts.
type Seat struct {
	Position       int             `json:"position"`
	UserID         string          `json:"user_id"`
	DisplayName    string          `json:"display_name"`
	CurrentPack    *PackState      `json:"current_pack,omitempty"`
	PackQueue      []PackState     `json:"pack_queue,omitempty"`
	PackReceivedAt *time.Time      `json:"pack_received_at,omitempty"`
	HasPicked      bool            `json:"has_picked"`
	Picks          []DraftPick     `json:"picks"`
	Pool           []card.Card     `json:"pool"`
	Deck           []card.Card     `json:"deck,omitempty"`
	Sideboard      []card.Card     `json:"sideboard,omitempty"`
	BasicLands     BasicLandCounts `json:"basic_lands"`
	DeckSubmitted  bool            `json:"deck_submitted"`
	QueuedPickID   string          `json:"queued_pick_id,omitempty"`
}

// PileState is the shared state of a two-player pile draft.
type PileState struct {
	Stack             []card.Card    `json:"stack"`
	Piles             [3][]card.Card `json:"piles"`
	ActivePile        *int           `json:"active_pile"`
	ActivePlayerIndex int            `json:"active_player_index"`
}

// CardCount is the number of undistributed cards.
func (p PileState) CardCount() int {
	return len(p.Stack) + len(p.Piles[0]) + len(p.Piles[1]) + len(p.Piles[2])
}

// Draft is the aggregate root. Its persisted version lives at the storage
// boundary; transition functions never see it.
type Draft struct {
	ID                  string       `json:"id"`
	Config              FormatConfig `json:"config"`
	Pacing              PacingMode   `json:"pacing"`
	Timer               TimerPreset  `json:"timer"`
	Status              Status       `json:"status"`
	PlayerCount         int          `json:"player_count"`
	PacksPerPlayer      int          `json:"packs_per_player"`
	CardsPerPack        int          `json:"cards_per_pack"`
	DeckBuildingEnabled bool         `json:"deck_building_enabled"`
	CurrentRound        int          `json:"current_round"`
	Seats               []Seat       `json:"seats"`
	Pile                *PileState   `json:"pile,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	StartedAt           *time.Time   `json:"started_at,omitempty"`
	CompletedAt         *time.Time   `json:"completed_at,omitempty"`
}

func (d Draft) Format() Format {
	return d.Config.Kind
}

// Seat returns the seat at position.
func (d Draft) Seat(position int) (Seat, bool) {
	if position < 0 || position >= len(d.Seats) {
		return Seat{}, false
	}
	return d.Seats[position], true
}

// SeatByUser returns the seat held by userID.
func (d Draft) SeatByUser(userID string) (Seat, bool) {
	for _, s := range d.Seats {
		if s.UserID == userID {
			return s, true
		}
	}
	return Seat{}, false
}

// TotalCards counts every card the draft holds: seat pools, packs in hand or
// queued, and undistributed pile cards.
func (d Draft) TotalCards() int {
	total := 0
	for _, s := range d.Seats {
		total += len(s.Pool)
		if s.CurrentPack != nil {
			total += len(s.CurrentPack.Cards)
		}
		for _, p := range s.PackQueue {
			total += len(p.Cards)
		}
	}
	if d.Pile != nil {
		total += d.Pile.CardCount()
	}

	return total
}

// Clone returns a deep copy sharing no mutable state with d.
func (d Draft) Clone() Draft {
	out := d
	out.Config = d.Config.clone()
	out.StartedAt = cloneTime(d.StartedAt)
	out.CompletedAt = cloneTime(d.CompletedAt)
	if d.Seats != nil {
		out.Seats = make([]Seat, len(d.Seats))
		for i := range d.Seats {
			out.Seats[i] = d.Seats[i].clone()
		}
	}
	if d.Pile != nil {
		p := d.Pile.clone()
		out.Pile = &p
	}

	return out
}

func (c FormatConfig) clone() FormatConfig {
	out := c
	if c.Standard != nil {
		v := *c.Standard
		out.Standard = &v
	}
	if c.Pile != nil {
		v := *c.Pile
		out.Pile = &v
	}
	if c.Cube != nil {
		v := *c.Cube
		out.Cube = &v
	}
	return out
}

func (s Seat) clone() Seat {
	out := s
	if s.CurrentPack != nil {
		p := s.CurrentPack.clone()
		out.CurrentPack = &p
	}
	if s.PackQueue != nil {
		out.PackQueue = make([]PackState, len(s.PackQueue))
		for i := range s.PackQueue {
			out.PackQueue[i] = s.PackQueue[i].clone()
		}
	}
	out.PackReceivedAt = cloneTime(s.PackReceivedAt)
	out.Picks = cloneSlice(s.Picks)
	out.Pool = cloneCards(s.Pool)
	out.Deck = cloneCards(s.Deck)
	out.Sideboard = cloneCards(s.Sideboard)
	return out
}

func (p PackState) clone() PackState {
	out := p
	out.Cards = cloneCards(p.Cards)
	return out
}

func (p PileState) clone() PileState {
	out := p
	out.Stack = cloneCards(p.Stack)
	for i := range p.Piles {
		out.Piles[i] = cloneCards(p.Piles[i])
	}
	if p.ActivePile != nil {
		v := *p.ActivePile
		out.ActivePile = &v
	}
	return out
}

func cloneCards(cards []card.Card) []card.Card {
	if cards == nil {
		return nil
	}
	out := make([]card.Card, len(cards))
	for i, c := range cards {
		out[i] = c
		out[i].Colors = cloneSlice(c.Colors)
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
