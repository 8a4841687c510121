package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/riskibarqy/card-draft/internal/domain/draft"
	"github.com/riskibarqy/card-draft/internal/infrastructure/repository/memory"
	idgen "github.com/riskibarqy/card-draft/internal/platform/id"
	"github.com/riskibarqy/card-draft/internal/platform/logging"
)

func pickFirstCard(t *testing.T, svc *DraftService, draftID, userID string) DraftSnapshot {
	t.Helper()

	snap, err := svc.GetDraft(context.Background(), draftID)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	seat, ok := snap.Draft.SeatByUser(userID)
	if !ok || seat.CurrentPack == nil {
		t.Fatalf("%s has nothing to pick", userID)
	}
	snap, err = svc.MakePick(context.Background(), draftID, userID, seat.CurrentPack.Cards[0].ID)
	if err != nil {
		t.Fatalf("%s pick: %v", userID, err)
	}
	return snap
}

func createStandardDraft(t *testing.T, svc *DraftService, pacing draft.PacingMode, packs, size int) DraftSnapshot {
	t.Helper()

	ctx := context.Background()
	snap, err := svc.CreateDraft(ctx, CreateDraftInput{
		UserID:              "u0",
		DisplayName:         "Host",
		Config:              draft.FormatConfig{Kind: draft.FormatStandard, Standard: &draft.StandardConfig{SetCode: "NEO"}},
		Pacing:              pacing,
		Timer:               draft.TimerFast,
		PlayerCount:         2,
		PacksPerPlayer:      packs,
		CardsPerPack:        size,
		DeckBuildingEnabled: true,
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if _, err := svc.JoinDraft(ctx, snap.Draft.ID, "u1", "Guest"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := svc.ConfirmDraft(ctx, snap.Draft.ID, "u0"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if snap, err = svc.StartDraft(ctx, snap.Draft.ID, "u0", testPacks(1, 2, size)); err != nil {
		t.Fatalf("start: %v", err)
	}
	return snap
}

func TestDraftService_CreateDraftSeatsCreator(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestDraftService("draft-1")
	snap, err := svc.CreateDraft(context.Background(), CreateDraftInput{
		UserID:         " u0 ",
		DisplayName:    "Host",
		Config:         draft.FormatConfig{Kind: draft.FormatStandard, Standard: &draft.StandardConfig{SetCode: "NEO"}},
		PlayerCount:    4,
		PacksPerPlayer: 3,
		CardsPerPack:   15,
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if snap.Draft.ID != "draft-1" || snap.Version != draft.InitialVersion {
		t.Fatalf("unexpected snapshot id=%s version=%d", snap.Draft.ID, snap.Version)
	}
	if len(snap.Draft.Seats) != 1 || snap.Draft.Seats[0].UserID != "u0" {
		t.Fatalf("creator should hold seat 0: %+v", snap.Draft.Seats)
	}
	if snap.Draft.Status != draft.StatusProposed {
		t.Fatalf("expected proposed, got %s", snap.Draft.Status)
	}
	if ops := notifier.operations(); !slices.Equal(ops, []string{"create"}) {
		t.Fatalf("unexpected notifications: %v", ops)
	}
}

func TestDraftService_CreateDraftRejectsBadConfig(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestDraftService("draft-1")
	_, err := svc.CreateDraft(context.Background(), CreateDraftInput{
		UserID:      "u0",
		Config:      draft.FormatConfig{Kind: draft.FormatPile, Pile: &draft.PileConfig{PoolSize: 45}},
		PlayerCount: 3,
	})
	if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, draft.ErrInvalidConfig) {
		t.Fatalf("expected invalid input wrapping invalid config, got %v", err)
	}

	if _, err := svc.CreateDraft(context.Background(), CreateDraftInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing user to be invalid input, got %v", err)
	}
}

func TestDraftService_RealtimeDraftRunsToDeckBuilding(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _ := newTestDraftService("rt-1")
	snap := createStandardDraft(t, svc, draft.PacingRealtime, 2, 2)
	id := snap.Draft.ID

	snap = pickFirstCard(t, svc, id, "u0")
	if !snap.Draft.Seats[0].HasPicked || snap.Draft.Seats[0].CurrentPack == nil {
		t.Fatalf("realtime pick should hold the pack until everyone picked")
	}

	snap = pickFirstCard(t, svc, id, "u1")
	for i, seat := range snap.Draft.Seats {
		if seat.HasPicked || seat.CurrentPack == nil || len(seat.CurrentPack.Cards) != 1 {
			t.Fatalf("seat %d should hold a fresh 1-card pack after the pass: %+v", i, seat.CurrentPack)
		}
	}
	if got := snap.Draft.Seats[0].CurrentPack.OriginSeat; got != 1 {
		t.Fatalf("round 1 passes left, seat 0 should hold seat 1's pack, got origin %d", got)
	}

	pickFirstCard(t, svc, id, "u0")
	snap = pickFirstCard(t, svc, id, "u1")
	if !snap.Draft.IsRoundComplete() || snap.Draft.Status != draft.StatusActive {
		t.Fatalf("expected round 1 complete and draft still active")
	}

	if _, err := svc.AdvanceRound(ctx, id, "u1", testPacks(2, 2, 2)); err != nil {
		t.Fatalf("advance round: %v", err)
	}
	for i := 0; i < 2; i++ {
		pickFirstCard(t, svc, id, "u0")
		snap = pickFirstCard(t, svc, id, "u1")
	}

	if snap.Draft.Status != draft.StatusDeckBuilding {
		t.Fatalf("expected deck building, got %s", snap.Draft.Status)
	}
	for i, seat := range snap.Draft.Seats {
		if len(seat.Pool) != 4 || len(seat.Deck) != 4 {
			t.Fatalf("seat %d: pool=%d deck=%d, want 4/4", i, len(seat.Pool), len(seat.Deck))
		}
	}

	lands, err := svc.SuggestLands(ctx, id, "u0")
	if err != nil {
		t.Fatalf("suggest lands: %v", err)
	}
	if lands.G != draft.SuggestedLandTotal {
		t.Fatalf("green-only pool should get all lands as forests: %+v", lands)
	}
	if _, err := svc.SetBasicLands(ctx, id, "u0", lands); err != nil {
		t.Fatalf("set lands: %v", err)
	}
	validity, err := svc.ValidateDeck(ctx, id, "u0")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if validity.MainCount != 4+draft.SuggestedLandTotal || validity.Valid {
		t.Fatalf("unexpected validity: %+v", validity)
	}

	if _, err := svc.SubmitDeck(ctx, id, "u0"); err != nil {
		t.Fatalf("submit u0: %v", err)
	}
	snap, err = svc.SubmitDeck(ctx, id, "u1")
	if err != nil {
		t.Fatalf("submit u1: %v", err)
	}
	if snap.Draft.Status != draft.StatusComplete {
		t.Fatalf("expected complete after every seat submitted, got %s", snap.Draft.Status)
	}
}

func TestDraftService_AsyncPickPassesImmediately(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestDraftService("async-1")
	snap := createStandardDraft(t, svc, draft.PacingAsync, 1, 3)

	snap = pickFirstCard(t, svc, snap.Draft.ID, "u0")
	seat1 := snap.Draft.Seats[1]
	if len(seat1.PackQueue) != 1 || seat1.PackQueue[0].OriginSeat != 0 {
		t.Fatalf("seat 1 should have seat 0's pack queued: %+v", seat1.PackQueue)
	}
	if snap.Draft.Seats[0].CurrentPack != nil {
		t.Fatalf("seat 0 should be waiting for a pack")
	}
}

func TestDraftService_UnseatedUserIsForbidden(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _ := newTestDraftService("rt-1")
	snap := createStandardDraft(t, svc, draft.PacingRealtime, 1, 2)
	cardID := snap.Draft.Seats[0].CurrentPack.Cards[0].ID

	if _, err := svc.MakePick(ctx, snap.Draft.ID, "stranger", cardID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.SuggestLands(ctx, snap.Draft.ID, "stranger"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on read, got %v", err)
	}
	if _, err := svc.MakePick(ctx, snap.Draft.ID, "u0", "no-such-card"); !errors.Is(err, draft.ErrCardNotInPack) {
		t.Fatalf("expected card not in pack, got %v", err)
	}
	if _, err := svc.GetDraft(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDraftService_NotifierFailureDoesNotFailWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo, notifier := newTestDraftService("d-1")
	notifier.err = errors.New("webhook down")

	snap, err := svc.CreateDraft(ctx, CreateDraftInput{
		UserID:         "u0",
		Config:         draft.FormatConfig{Kind: draft.FormatCube, Cube: &draft.CubeConfig{CubeID: "vintage"}},
		PlayerCount:    2,
		PacksPerPlayer: 3,
		CardsPerPack:   15,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if snap, err = svc.JoinDraft(ctx, snap.Draft.ID, "u1", "Guest"); err != nil {
		t.Fatalf("join should succeed despite notifier error: %v", err)
	}
	if snap.Version != draft.InitialVersion+1 {
		t.Fatalf("expected version %d, got %d", draft.InitialVersion+1, snap.Version)
	}
	if _, version, _, _ := repo.Get(ctx, snap.Draft.ID); version != snap.Version {
		t.Fatalf("write not persisted")
	}
	if ops := notifier.operations(); !slices.Equal(ops, []string{"create", "join"}) {
		t.Fatalf("unexpected notifications: %v", ops)
	}

	if snap, err = svc.LeaveDraft(ctx, snap.Draft.ID, "u1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if len(snap.Draft.Seats) != 1 {
		t.Fatalf("expected one seat after leave, got %d", len(snap.Draft.Seats))
	}
}

func TestDraftService_ExpireSeat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo, _ := newTestDraftService()
	seedActiveDraft(t, repo, "timed", 2, 1, 3, draft.PacingRealtime)

	// fast preset: 5s + 3s per card
	svc.now = func() time.Time { return serviceNow.Add(13 * time.Second) }
	if _, did, err := svc.ExpireSeat(ctx, "timed", 0); err != nil || did {
		t.Fatalf("seat should not expire early: did=%t err=%v", did, err)
	}
	if _, version, _, _ := repo.Get(ctx, "timed"); version != draft.InitialVersion {
		t.Fatalf("no-op expiry must not bump version, got %d", version)
	}

	svc.now = func() time.Time { return serviceNow.Add(14 * time.Second) }
	snap, did, err := svc.ExpireSeat(ctx, "timed", 0)
	if err != nil || !did {
		t.Fatalf("expected auto pick: did=%t err=%v", did, err)
	}
	if len(snap.Draft.Seats[0].Picks) != 1 || !snap.Draft.Seats[0].HasPicked {
		t.Fatalf("seat 0 should have auto-picked and be holding")
	}

	if _, did, _ := svc.ExpireSeat(ctx, "timed", 0); did {
		t.Fatalf("holding seat has no running clock")
	}
}

func TestDraftService_QueuedPickIsUsedByAutoPick(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo, _ := newTestDraftService()
	d := seedActiveDraft(t, repo, "queued", 2, 1, 3, draft.PacingRealtime)
	wanted := d.Seats[1].CurrentPack.Cards[2].ID

	if _, err := svc.QueueAutoPick(ctx, "queued", "u1", wanted); err != nil {
		t.Fatalf("queue: %v", err)
	}
	snap, err := svc.AutoPick(ctx, "queued", "u0", 1)
	if err != nil {
		t.Fatalf("auto pick: %v", err)
	}
	picks := snap.Draft.Seats[1].Picks
	if len(picks) != 1 || picks[0].CardID != wanted {
		t.Fatalf("expected queued card %s, got %+v", wanted, picks)
	}
}

func TestDraftService_PileDraftRunsToDeckBuilding(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _ := newTestDraftService("pile-1")
	snap, err := svc.CreateDraft(ctx, CreateDraftInput{
		UserID:      "u0",
		Config:      draft.FormatConfig{Kind: draft.FormatPile, Pile: &draft.PileConfig{PoolSize: 9}},
		PlayerCount: 2,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := snap.Draft.ID
	if _, err := svc.JoinDraft(ctx, id, "u1", "Guest"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := svc.ConfirmDraft(ctx, id, "u1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := svc.StartDraft(ctx, id, "u0", nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap, err = svc.InitPileDraft(ctx, id, "u0", testPack("cube", 9)); err != nil {
		t.Fatalf("init pile: %v", err)
	}

	for steps := 0; snap.Draft.Status == draft.StatusActive; steps++ {
		if steps > 50 {
			t.Fatalf("pile draft did not finish")
		}
		pile := snap.Draft.Pile
		user := fmt.Sprintf("u%d", pile.ActivePlayerIndex)
		idx := *pile.ActivePile

		cards, err := svc.LookAtPile(ctx, id, user, idx)
		if err != nil {
			t.Fatalf("look: %v", err)
		}
		if len(cards) > 0 {
			snap, err = svc.TakePile(ctx, id, user)
		} else {
			snap, err = svc.PassPile(ctx, id, user)
		}
		if err != nil {
			t.Fatalf("step %d: %v", steps, err)
		}
	}

	if snap.Draft.Status != draft.StatusDeckBuilding {
		t.Fatalf("expected deck building, got %s", snap.Draft.Status)
	}
	total := 0
	for _, seat := range snap.Draft.Seats {
		total += len(seat.Pool)
	}
	if total != 9 {
		t.Fatalf("expected all 9 cards drafted, got %d", total)
	}
}

func TestDraftService_MoveCardAndUnsubmit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _ := newTestDraftService("rt-1")
	snap := createStandardDraft(t, svc, draft.PacingRealtime, 1, 1)
	id := snap.Draft.ID

	pickFirstCard(t, svc, id, "u0")
	snap = pickFirstCard(t, svc, id, "u1")
	if snap.Draft.Status != draft.StatusDeckBuilding {
		t.Fatalf("expected deck building, got %s", snap.Draft.Status)
	}

	moved := snap.Draft.Seats[0].Deck[0].ID
	if snap, err := svc.MoveCard(ctx, id, "u0", moved, true); err != nil || len(snap.Draft.Seats[0].Sideboard) != 1 {
		t.Fatalf("move to sideboard: %v", err)
	}
	if _, err := svc.MoveCard(ctx, id, "u0", moved, true); !errors.Is(err, draft.ErrCardNotInZone) {
		t.Fatalf("expected card not in zone, got %v", err)
	}

	if _, err := svc.SubmitDeck(ctx, id, "u0"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	snap, err := svc.UnsubmitDeck(ctx, id, "u0")
	if err != nil {
		t.Fatalf("unsubmit: %v", err)
	}
	if snap.Draft.Seats[0].DeckSubmitted {
		t.Fatalf("unsubmit should clear the flag")
	}

	snap, err = svc.CompleteDraft(ctx, id, "u1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if snap.Draft.Status != draft.StatusComplete || snap.Draft.CompletedAt == nil {
		t.Fatalf("expected complete draft")
	}
	if _, err := svc.MoveCard(ctx, id, "u0", moved, false); !errors.Is(err, draft.ErrIllegalTransition) {
		t.Fatalf("complete draft is read only, got %v", err)
	}
}

type countingRandom struct {
	calls int
}

func (r *countingRandom) IntN(int) int {
	r.calls++
	return 0
}

func TestDraftService_WithRandomDrivesPileShuffle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rng := &countingRandom{}
	repo := memory.NewDraftRepository()
	svc := NewDraftService(repo, nil, nil, idgen.NewSequenceGenerator("pile-rng"), logging.NewNop(), WithRandom(rng))

	snap, err := svc.CreateDraft(ctx, CreateDraftInput{
		UserID:      "u0",
		Config:      draft.FormatConfig{Kind: draft.FormatPile, Pile: &draft.PileConfig{PoolSize: 9}},
		PlayerCount: 2,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := snap.Draft.ID
	if _, err := svc.JoinDraft(ctx, id, "u1", ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := svc.ConfirmDraft(ctx, id, "u0"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := svc.StartDraft(ctx, id, "u0", nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.InitPileDraft(ctx, id, "u0", testPack("rng", 9)); err != nil {
		t.Fatalf("init pile: %v", err)
	}
	if rng.calls == 0 {
		t.Fatalf("injected random source was never used")
	}
}
