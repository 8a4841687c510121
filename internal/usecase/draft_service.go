package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/card-draft/internal/domain/card"
	"github.com/riskibarqy/card-draft/internal/domain/draft"
	idgen "github.com/riskibarqy/card-draft/internal/platform/id"
	"github.com/riskibarqy/card-draft/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// errNoChange aborts a transition that turned out to have nothing to do, so
// no version is spent on it.
var errNoChange = errors.New("no change")

type CreateDraftInput struct {
	UserID              string
	DisplayName         string
	Config              draft.FormatConfig
	Pacing              draft.PacingMode
	Timer               draft.TimerPreset
	PlayerCount         int
	PacksPerPlayer      int
	CardsPerPack        int
	DeckBuildingEnabled bool
}

type DraftService struct {
	repo     draft.Repository
	mutator  *DraftMutator
	notifier DraftNotifier
	idGen    idgen.Generator
	rng      draft.Random
	logger   *logging.Logger
	now      func() time.Time
}

// DraftServiceOption customizes a DraftService.
type DraftServiceOption func(*DraftService)

// WithRandom sets the source used for pile shuffles and auto-pick ties. The
// source must be safe for concurrent use. Without it the global source is used.
func WithRandom(rng draft.Random) DraftServiceOption {
	return func(s *DraftService) {
		s.rng = rng
	}
}

func NewDraftService(
	repo draft.Repository,
	mutator *DraftMutator,
	notifier DraftNotifier,
	idGen idgen.Generator,
	logger *logging.Logger,
	opts ...DraftServiceOption,
) *DraftService {
	if logger == nil {
		logger = logging.Default()
	}
	if notifier == nil {
		notifier = NewNoopDraftNotifier()
	}
	if mutator == nil {
		mutator = NewDraftMutator(repo, defaultMutationMaxAttempts, logger)
	}

	s := &DraftService{
		repo:     repo,
		mutator:  mutator,
		notifier: notifier,
		idGen:    idGen,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDraft proposes a new draft and seats its creator.
func (s *DraftService) CreateDraft(ctx context.Context, input CreateDraftInput) (DraftSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.CreateDraft")
	defer span.End()

	userID, err := requireUserID(input.UserID)
	if err != nil {
		return DraftSnapshot{}, err
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return DraftSnapshot{}, fmt.Errorf("generate draft id: %w", err)
	}

	now := s.now().UTC()
	d, err := draft.New(draft.NewDraftParams{
		ID:                  id,
		Config:              input.Config,
		Pacing:              input.Pacing,
		Timer:               input.Timer,
		PlayerCount:         input.PlayerCount,
		PacksPerPlayer:      input.PacksPerPlayer,
		CardsPerPack:        input.CardsPerPack,
		DeckBuildingEnabled: input.DeckBuildingEnabled,
	}, now)
	if err != nil {
		return DraftSnapshot{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if d, err = d.AddPlayer(userID, strings.TrimSpace(input.DisplayName)); err != nil {
		return DraftSnapshot{}, err
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return DraftSnapshot{}, fmt.Errorf("create draft: %w", err)
	}

	snap := DraftSnapshot{Draft: d, Version: draft.InitialVersion}
	span.SetAttributes(attribute.String("draft.id", id))
	s.logger.InfoContext(ctx, "draft created", "draft_id", id, "format", d.Format(), "player_count", d.PlayerCount)
	s.publish(ctx, "create", snap)
	return snap, nil
}

func (s *DraftService) GetDraft(ctx context.Context, draftID string) (DraftSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.GetDraft")
	defer span.End()

	draftID = strings.TrimSpace(draftID)
	if draftID == "" {
		return DraftSnapshot{}, fmt.Errorf("%w: draft id is required", ErrInvalidInput)
	}

	d, version, ok, err := s.repo.Get(ctx, draftID)
	if err != nil {
		return DraftSnapshot{}, fmt.Errorf("get draft: %w", err)
	}
	if !ok {
		return DraftSnapshot{}, fmt.Errorf("%w: draft id=%s", ErrNotFound, draftID)
	}

	return DraftSnapshot{Draft: d, Version: version}, nil
}

// ViewDraft returns the draft as userID may see it. Anyone may look at a draft
// still in the lobby; once it starts only seated players can read it.
func (s *DraftService) ViewDraft(ctx context.Context, draftID, userID string) (DraftView, error) {
	userID, err := requireUserID(userID)
	if err != nil {
		return DraftView{}, err
	}
	snap, err := s.GetDraft(ctx, draftID)
	if err != nil {
		return DraftView{}, err
	}

	if _, seated := snap.Draft.SeatByUser(userID); !seated && !inLobby(snap.Draft.Status) {
		return DraftView{}, fmt.Errorf("%w: user %s is not seated in draft %s", ErrForbidden, userID, snap.Draft.ID)
	}
	return NewDraftView(snap, userID), nil
}

func (s *DraftService) JoinDraft(ctx context.Context, draftID, userID, displayName string) (DraftSnapshot, error) {
	userID, err := requireUserID(userID)
	if err != nil {
		return DraftSnapshot{}, err
	}

	return s.mutate(ctx, draftID, "join", func(d draft.Draft) (draft.Draft, error) {
		return d.AddPlayer(userID, strings.TrimSpace(displayName))
	})
}

func (s *DraftService) LeaveDraft(ctx context.Context, draftID, userID string) (DraftSnapshot, error) {
	userID, err := requireUserID(userID)
	if err != nil {
		return DraftSnapshot{}, err
	}

	return s.mutate(ctx, draftID, "leave", func(d draft.Draft) (draft.Draft, error) {
		return d.RemovePlayer(userID)
	})
}

func (s *DraftService) ConfirmDraft(ctx context.Context, draftID, userID string) (DraftSnapshot, error) {
	return s.mutateAsSeat(ctx, draftID, userID, "confirm", func(d draft.Draft, _ int) (draft.Draft, error) {
		return d.Confirm()
	})
}

// StartDraft activates the draft. Simultaneous formats need one first-round
// pack per seat.
func (s *DraftService) StartDraft(ctx context.Context, draftID, userID string, packs [][]card.Card) (DraftSnapshot, error) {
	now := s.now().UTC()
	return s.mutateAsSeat(ctx, draftID, userID, "start", func(d draft.Draft, _ int) (draft.Draft, error) {
		return d.Start(packs, now)
	})
}

func (s *DraftService) InitPileDraft(ctx context.Context, draftID, userID string, pool []card.Card) (DraftSnapshot, error) {
	return s.mutateAsSeat(ctx, draftID, userID, "init_pile", func(d draft.Draft, _ int) (draft.Draft, error) {
		return d.InitPile(pool, s.rng)
	})
}

// MakePick takes cardID for the caller. In realtime drafts the held packs move
// on once every seat has picked; async drafts pass the pack at once. The
// draft enters deck building when the last round runs dry.
func (s *DraftService) MakePick(ctx context.Context, draftID, userID, cardID string) (DraftSnapshot, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return DraftSnapshot{}, fmt.Errorf("%w: card id is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	return s.mutateAsSeat(ctx, draftID, userID, "pick", func(d draft.Draft, position int) (draft.Draft, error) {
		var err error
		if d.Pacing == draft.PacingAsync {
			d, err = d.PickAndPass(position, cardID, now)
		} else {
			d, err = d.Pick(position, cardID, now)
		}
		if err != nil {
			return draft.Draft{}, err
		}
		return settlePicks(d, now)
	})
}

func (s *DraftService) QueueAutoPick(ctx context.Context, draftID, userID, cardID string) (DraftSnapshot, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return DraftSnapshot{}, fmt.Errorf("%w: card id is required", ErrInvalidInput)
	}

	return s.mutateAsSeat(ctx, draftID, userID, "queue_pick", func(d draft.Draft, position int) (draft.Draft, error) {
		return d.QueueAutoPick(position, cardID)
	})
}

// AutoPick forces a pick for the seat at position. Any seated player may use
// it to unstick a pod waiting on someone.
func (s *DraftService) AutoPick(ctx context.Context, draftID, userID string, position int) (DraftSnapshot, error) {
	now := s.now().UTC()
	return s.mutateAsSeat(ctx, draftID, userID, "auto_pick", func(d draft.Draft, _ int) (draft.Draft, error) {
		next, err := d.AutoPick(position, s.rng, now)
		if err != nil {
			return draft.Draft{}, err
		}
		return settlePicks(next, now)
	})
}

// ExpireSeat auto-picks for position only if its clock has really run out at
// the time of the write. The bool reports whether a pick happened.
func (s *DraftService) ExpireSeat(ctx context.Context, draftID string, position int) (DraftSnapshot, bool, error) {
	now := s.now().UTC()
	snap, err := s.mutate(ctx, draftID, "expire_seat", func(d draft.Draft) (draft.Draft, error) {
		deadline, ok := d.PickDeadline(position)
		if d.Status != draft.StatusActive || !ok || deadline.After(now) {
			return draft.Draft{}, errNoChange
		}
		next, err := d.AutoPick(position, s.rng, now)
		if err != nil {
			return draft.Draft{}, err
		}
		return settlePicks(next, now)
	})
	if errors.Is(err, errNoChange) {
		return DraftSnapshot{}, false, nil
	}
	if err != nil {
		return DraftSnapshot{}, false, err
	}

	return snap, true, nil
}

func (s *DraftService) PassPacks(ctx context.Context, draftID, userID string) (DraftSnapshot, error) {
	now := s.now().UTC()
	return s.mutateAsSeat(ctx, draftID, userID, "pass", func(d draft.Draft, _ int) (draft.Draft, error) {
		next, err := d.PassPacks(now)
		if err != nil {
			return draft.Draft{}, err
		}
		return settlePicks(next, now)
	})
}

func (s *DraftService) AdvanceRound(ctx context.Context, draftID, userID string, packs [][]card.Card) (DraftSnapshot, error) {
	now := s.now().UTC()
	return s.mutateAsSeat(ctx, draftID, userID, "advance_round", func(d draft.Draft, _ int) (draft.Draft, error) {
		return d.AdvanceRound(packs, now)
	})
}

// LookAtPile is a read: it never writes or bumps the version.
func (s *DraftService) LookAtPile(ctx context.Context, draftID, userID string, pileIndex int) ([]card.Card, error) {
	snap, position, err := s.readAsSeat(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	return snap.Draft.LookAtPile(position, pileIndex)
}

func (s *DraftService) TakePile(ctx context.Context, draftID, userID string) (DraftSnapshot, error) {
	now := s.now().UTC()
	return s.mutateAsSeat(ctx, draftID, userID, "take_pile", func(d draft.Draft, position int) (draft.Draft, error) {
		next, err := d.TakePile(position, now)
		if err != nil {
			return draft.Draft{}, err
		}
		return settlePile(next, now)
	})
}

func (s *DraftService) PassPile(ctx context.Context, draftID, userID string) (DraftSnapshot, error) {
	now := s.now().UTC()
	return s.mutateAsSeat(ctx, draftID, userID, "pass_pile", func(d draft.Draft, position int) (draft.Draft, error) {
		next, err := d.PassPile(position, now)
		if err != nil {
			return draft.Draft{}, err
		}
		return settlePile(next, now)
	})
}

func (s *DraftService) StartDeckBuilding(ctx context.Context, draftID, userID string) (DraftSnapshot, error) {
	now := s.now().UTC()
	return s.mutateAsSeat(ctx, draftID, userID, "start_deck_building", func(d draft.Draft, _ int) (draft.Draft, error) {
		return d.StartDeckBuilding(now)
	})
}

func (s *DraftService) MoveCard(ctx context.Context, draftID, userID, cardID string, toSideboard bool) (DraftSnapshot, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return DraftSnapshot{}, fmt.Errorf("%w: card id is required", ErrInvalidInput)
	}

	return s.mutateAsSeat(ctx, draftID, userID, "move_card", func(d draft.Draft, position int) (draft.Draft, error) {
		if toSideboard {
			return d.MoveToSideboard(position, cardID)
		}
		return d.MoveToDeck(position, cardID)
	})
}

func (s *DraftService) SetBasicLands(ctx context.Context, draftID, userID string, counts draft.BasicLandCounts) (DraftSnapshot, error) {
	return s.mutateAsSeat(ctx, draftID, userID, "set_lands", func(d draft.Draft, position int) (draft.Draft, error) {
		return d.SetBasicLands(position, counts)
	})
}

func (s *DraftService) SuggestLands(ctx context.Context, draftID, userID string) (draft.BasicLandCounts, error) {
	snap, position, err := s.readAsSeat(ctx, draftID, userID)
	if err != nil {
		return draft.BasicLandCounts{}, err
	}
	return snap.Draft.SuggestLands(position)
}

func (s *DraftService) ValidateDeck(ctx context.Context, draftID, userID string) (draft.DeckValidity, error) {
	snap, position, err := s.readAsSeat(ctx, draftID, userID)
	if err != nil {
		return draft.DeckValidity{}, err
	}
	return draft.ValidateDeck(snap.Draft.Seats[position]), nil
}

func (s *DraftService) SubmitDeck(ctx context.Context, draftID, userID string) (DraftSnapshot, error) {
	now := s.now().UTC()
	return s.mutateAsSeat(ctx, draftID, userID, "submit_deck", func(d draft.Draft, position int) (draft.Draft, error) {
		return d.SubmitDeck(position, now)
	})
}

func (s *DraftService) UnsubmitDeck(ctx context.Context, draftID, userID string) (DraftSnapshot, error) {
	return s.mutateAsSeat(ctx, draftID, userID, "unsubmit_deck", func(d draft.Draft, position int) (draft.Draft, error) {
		return d.UnsubmitDeck(position)
	})
}

func (s *DraftService) CompleteDraft(ctx context.Context, draftID, userID string) (DraftSnapshot, error) {
	now := s.now().UTC()
	return s.mutateAsSeat(ctx, draftID, userID, "complete", func(d draft.Draft, _ int) (draft.Draft, error) {
		return d.Complete(now)
	})
}

func (s *DraftService) mutate(ctx context.Context, draftID, operation string, fn DraftTransition) (DraftSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService."+operation)
	defer span.End()

	snap, err := s.mutator.Mutate(ctx, draftID, operation, fn)
	if err != nil {
		return DraftSnapshot{}, err
	}

	s.logger.InfoContext(ctx, "draft updated",
		"draft_id", snap.Draft.ID,
		"op", operation,
		"version", snap.Version,
		"status", snap.Draft.Status,
	)
	s.publish(ctx, operation, snap)
	return snap, nil
}

// mutateAsSeat runs fn with the caller's seat position resolved against the
// same draft state fn receives.
func (s *DraftService) mutateAsSeat(
	ctx context.Context,
	draftID, userID, operation string,
	fn func(d draft.Draft, position int) (draft.Draft, error),
) (DraftSnapshot, error) {
	userID, err := requireUserID(userID)
	if err != nil {
		return DraftSnapshot{}, err
	}

	return s.mutate(ctx, draftID, operation, func(d draft.Draft) (draft.Draft, error) {
		position, err := participantPosition(d, userID)
		if err != nil {
			return draft.Draft{}, err
		}
		return fn(d, position)
	})
}

func (s *DraftService) readAsSeat(ctx context.Context, draftID, userID string) (DraftSnapshot, int, error) {
	userID, err := requireUserID(userID)
	if err != nil {
		return DraftSnapshot{}, 0, err
	}
	snap, err := s.GetDraft(ctx, draftID)
	if err != nil {
		return DraftSnapshot{}, 0, err
	}
	position, err := participantPosition(snap.Draft, userID)
	if err != nil {
		return DraftSnapshot{}, 0, err
	}

	return snap, position, nil
}

func (s *DraftService) publish(ctx context.Context, operation string, snap DraftSnapshot) {
	event := DraftChangedEvent{
		DraftID:    snap.Draft.ID,
		Version:    snap.Version,
		Operation:  operation,
		Status:     snap.Draft.Status,
		Round:      snap.Draft.CurrentRound,
		OccurredAt: s.now().UTC(),
	}
	if err := s.notifier.NotifyDraftChanged(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "draft change notification failed",
			"draft_id", event.DraftID,
			"version", event.Version,
			"op", operation,
			"error", err,
		)
	}
}

// settlePicks passes held packs once every seat has picked and opens deck
// building when the final round is used up.
func settlePicks(d draft.Draft, now time.Time) (draft.Draft, error) {
	var err error
	if d.Pacing == draft.PacingRealtime && d.AllSeatsPicked() && anyHeld(d) {
		if d, err = d.PassPacks(now); err != nil {
			return draft.Draft{}, err
		}
	}
	if d.IsPickingComplete() {
		return d.StartDeckBuilding(now)
	}
	return d, nil
}

func settlePile(d draft.Draft, now time.Time) (draft.Draft, error) {
	if d.IsWinstonComplete() {
		return d.StartDeckBuilding(now)
	}
	return d, nil
}

func anyHeld(d draft.Draft) bool {
	for _, seat := range d.Seats {
		if seat.CurrentPack != nil && seat.HasPicked {
			return true
		}
	}
	return false
}

func participantPosition(d draft.Draft, userID string) (int, error) {
	seat, ok := d.SeatByUser(userID)
	if !ok {
		return 0, fmt.Errorf("%w: user %s is not seated in draft %s", ErrForbidden, userID, d.ID)
	}
	return seat.Position, nil
}

func inLobby(status draft.Status) bool {
	return status == draft.StatusProposed || status == draft.StatusConfirmed
}

func requireUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return userID, nil
}
