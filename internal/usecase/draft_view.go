package usecase

import (
	"time"

	"github.com/riskibarqy/card-draft/internal/domain/card"
	"github.com/riskibarqy/card-draft/internal/domain/draft"
)

// DraftView is a draft as one user is allowed to see it. Cards the viewer
// has no right to see are reported as counts only.
type DraftView struct {
	ID                  string             `json:"id"`
	Version             int64              `json:"version"`
	Config              draft.FormatConfig `json:"config"`
	Pacing              draft.PacingMode   `json:"pacing"`
	Timer               draft.TimerPreset  `json:"timer"`
	Status              draft.Status       `json:"status"`
	PlayerCount         int                `json:"player_count"`
	PacksPerPlayer      int                `json:"packs_per_player"`
	CardsPerPack        int                `json:"cards_per_pack"`
	DeckBuildingEnabled bool               `json:"deck_building_enabled"`
	CurrentRound        int                `json:"current_round"`
	ViewerPosition      *int               `json:"viewer_position"`
	Seats               []SeatView         `json:"seats"`
	Pile                *PileView          `json:"pile,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	StartedAt           *time.Time         `json:"started_at,omitempty"`
	CompletedAt         *time.Time         `json:"completed_at,omitempty"`
}

// SeatView is one seat. Pack contents and the queued pick are shown to the
// seat's own user only. Picks, pool and deck open up to everyone once the
// draft is complete.
type SeatView struct {
	Position        int                    `json:"position"`
	UserID          string                 `json:"user_id"`
	DisplayName     string                 `json:"display_name"`
	CurrentPack     *draft.PackState       `json:"current_pack,omitempty"`
	CurrentPackSize int                    `json:"current_pack_size"`
	PackQueueSize   int                    `json:"pack_queue_size"`
	PackReceivedAt  *time.Time             `json:"pack_received_at,omitempty"`
	HasPicked       bool                   `json:"has_picked"`
	PickCount       int                    `json:"pick_count"`
	Picks           []draft.DraftPick      `json:"picks,omitempty"`
	Pool            []card.Card            `json:"pool,omitempty"`
	Deck            []card.Card            `json:"deck,omitempty"`
	Sideboard       []card.Card            `json:"sideboard,omitempty"`
	BasicLands      *draft.BasicLandCounts `json:"basic_lands,omitempty"`
	DeckSubmitted   bool                   `json:"deck_submitted"`
	QueuedPickID    string                 `json:"queued_pick_id,omitempty"`
}

// PileView exposes only the sizes of the face-down stack and piles. The
// active player reads a pile's cards through LookAtPile.
type PileView struct {
	StackCount        int    `json:"stack_count"`
	PileCounts        [3]int `json:"pile_counts"`
	ActivePile        *int   `json:"active_pile"`
	ActivePlayerIndex int    `json:"active_player_index"`
}

// NewDraftView projects snap for viewerUserID. An empty or unseated viewer
// gets the public view.
func NewDraftView(snap DraftSnapshot, viewerUserID string) DraftView {
	d := snap.Draft.Clone()
	view := DraftView{
		ID:                  d.ID,
		Version:             snap.Version,
		Config:              d.Config,
		Pacing:              d.Pacing,
		Timer:               d.Timer,
		Status:              d.Status,
		PlayerCount:         d.PlayerCount,
		PacksPerPlayer:      d.PacksPerPlayer,
		CardsPerPack:        d.CardsPerPack,
		DeckBuildingEnabled: d.DeckBuildingEnabled,
		CurrentRound:        d.CurrentRound,
		Seats:               make([]SeatView, 0, len(d.Seats)),
		CreatedAt:           d.CreatedAt,
		StartedAt:           d.StartedAt,
		CompletedAt:         d.CompletedAt,
	}

	if viewerUserID != "" {
		if seat, ok := d.SeatByUser(viewerUserID); ok {
			position := seat.Position
			view.ViewerPosition = &position
		}
	}

	revealed := d.Status == draft.StatusComplete
	for _, seat := range d.Seats {
		own := view.ViewerPosition != nil && *view.ViewerPosition == seat.Position
		view.Seats = append(view.Seats, newSeatView(seat, own, revealed))
	}

	if d.Pile != nil {
		view.Pile = &PileView{
			StackCount:        len(d.Pile.Stack),
			PileCounts:        [3]int{len(d.Pile.Piles[0]), len(d.Pile.Piles[1]), len(d.Pile.Piles[2])},
			ActivePile:        d.Pile.ActivePile,
			ActivePlayerIndex: d.Pile.ActivePlayerIndex,
		}
	}

	return view
}

func newSeatView(seat draft.Seat, own, revealed bool) SeatView {
	view := SeatView{
		Position:       seat.Position,
		UserID:         seat.UserID,
		DisplayName:    seat.DisplayName,
		PackQueueSize:  len(seat.PackQueue),
		PackReceivedAt: seat.PackReceivedAt,
		HasPicked:      seat.HasPicked,
		PickCount:      len(seat.Picks),
		DeckSubmitted:  seat.DeckSubmitted,
	}
	if seat.CurrentPack != nil {
		view.CurrentPackSize = len(seat.CurrentPack.Cards)
	}

	if own {
		view.CurrentPack = seat.CurrentPack
		view.QueuedPickID = seat.QueuedPickID
	}
	if own || revealed {
		lands := seat.BasicLands
		view.Picks = seat.Picks
		view.Pool = seat.Pool
		view.Deck = seat.Deck
		view.Sideboard = seat.Sideboard
		view.BasicLands = &lands
	}

	return view
}
