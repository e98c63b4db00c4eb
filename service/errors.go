package service

import (
	"errors"
	"fmt"
)

// User-facing race errors. Command handlers match these with errors.Is/As and
// localize them; balances are guaranteed unchanged when one is returned.
var (
	ErrRaceNotOpen       = errors.New("race is not accepting entries")
	ErrRaceClosed        = errors.New("race is closed for betting")
	ErrDuplicateEntry    = errors.New("pet is already entered in this race")
	ErrPetNotInRace      = errors.New("pet is not a selected runner in this race")
	ErrAmountInvalid     = errors.New("amount must be at least 1")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid race state transition")
)

// IneligibilityReason explains why a pet cannot race
type IneligibilityReason string

const (
	ReasonNotOwned          IneligibilityReason = "not-owned"
	ReasonNotAdult          IneligibilityReason = "not-adult"
	ReasonAlreadyRacedToday IneligibilityReason = "already-raced-today"
)

// PetIneligibleError reports a failed eligibility check with its reason
type PetIneligibleError struct {
	PetID  int64
	Reason IneligibilityReason
}

func (e *PetIneligibleError) Error() string {
	return fmt.Sprintf("pet %d is ineligible to race: %s", e.PetID, e.Reason)
}
