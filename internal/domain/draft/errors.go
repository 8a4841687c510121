package draft

import (
	"errors"
	"fmt"
)

// Error categories. Every specific error below matches exactly one of them.
var (
	ErrIllegalTransition = errors.New("illegal state transition")
	ErrInvalidReference  = errors.New("invalid reference")
	ErrCapacity          = errors.New("capacity violation")
	ErrInsufficientInput = errors.New("insufficient input")
)

var (
	ErrInvalidConfig = errors.New("invalid draft config")

	ErrSeatNotFound      = categorized(ErrInvalidReference, "seat not found")
	ErrNoCurrentPack     = categorized(ErrInvalidReference, "seat has no current pack")
	ErrCardNotInPack     = categorized(ErrInvalidReference, "card is not in the current pack")
	ErrCardNotInZone     = categorized(ErrInvalidReference, "card is not in the source zone")
	ErrNotYourTurn       = categorized(ErrInvalidReference, "not your turn")
	ErrWrongPile         = categorized(ErrInvalidReference, "pile is not the active pile")
	ErrEmptyPile         = categorized(ErrInvalidReference, "pile is empty")
	ErrAlreadyPicked     = categorized(ErrInvalidReference, "seat already picked from this pack")
	ErrNegativeLandCount = categorized(ErrInvalidReference, "land count cannot be negative")
	ErrWrongFormat       = categorized(ErrInvalidReference, "operation does not apply to this format")

	ErrRosterFull         = categorized(ErrCapacity, "draft roster is full")
	ErrDuplicatePlayer    = categorized(ErrCapacity, "player already seated")
	ErrNotEnoughPlayers   = categorized(ErrCapacity, "not enough players")
	ErrNoMoreRounds       = categorized(ErrCapacity, "no rounds left to advance to")
	ErrRoundNotComplete   = categorized(ErrCapacity, "current round is not complete")
	ErrSeatsNotReady      = categorized(ErrCapacity, "not every seat has picked")
	ErrPileAlreadyStarted = categorized(ErrCapacity, "pile draft already initialized")
	ErrPileNotStarted     = categorized(ErrCapacity, "pile draft not initialized")
	ErrPileExhausted      = categorized(ErrCapacity, "pile draft has no cards left")

	ErrInsufficientPacks = categorized(ErrInsufficientInput, "fewer packs than seats")
	ErrInsufficientCards = categorized(ErrInsufficientInput, "not enough cards in pool")
)

type categoryError struct {
	category error
	msg      string
}

func categorized(category error, msg string) error {
	return &categoryError{category: category, msg: msg}
}

func (e *categoryError) Error() string {
	return e.msg
}

func (e *categoryError) Unwrap() error {
	return e.category
}

// TransitionError reports an operation attempted outside its legal status.
type TransitionError struct {
	Status    Status
	Operation string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while draft is %s", e.Operation, e.Status)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

func illegal(status Status, op string) error {
	return &TransitionError{Status: status, Operation: op}
}

// requireStatus fails with a TransitionError unless d is in one of allowed.
func (d Draft) requireStatus(op string, allowed ...Status) error {
	for _, s := range allowed {
		if d.Status == s {
			return nil
		}
	}
	return illegal(d.Status, op)
}
