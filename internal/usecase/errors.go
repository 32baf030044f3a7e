package usecase

import (
	"errors"
	"fmt"

	"cinema-ticketing/pkg/seatlabel"

	"github.com/google/uuid"
)

// Validation
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidSeatFormat = seatlabel.ErrInvalidFormat
	ErrSeatOutOfRange    = seatlabel.ErrOutOfRange
)

// Not found
var (
	ErrShowingNotFound        = errors.New("showing not found")
	ErrHallNotFound           = errors.New("hall not found")
	ErrFilmNotFound           = errors.New("film not found")
	ErrPersonCategoryNotFound = errors.New("person category not found")
	ErrPayerNotFound          = errors.New("payer account not found")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrSeatLockNotFound       = errors.New("seat lock not found")
)

// Conflict
var (
	ErrSeatAlreadyBooked = errors.New("seat already booked")
	ErrSeatLocked        = errors.New("seat locked by another holder")
	ErrScheduleConflict  = errors.New("schedule conflict")
)

// Business rule
var (
	ErrShowingClosed          = errors.New("showing closed for sale")
	ErrShowingInPast          = errors.New("showing already started")
	ErrPayerDisabled          = errors.New("payer account not enabled")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrOutsideBroadcastWindow = errors.New("outside film broadcast window")
	ErrBeneficiaryNotMember   = errors.New("beneficiary is not a club member")
	ErrReassignNotPermitted   = errors.New("beneficiary reassignment not permitted for group bookings")
	ErrBookingCancelled       = errors.New("booking already cancelled")
	ErrTooManySeats           = errors.New("too many seats in one batch")
)

// ErrBatchGenerationExhausted means no free batch reference was drawn within
// the attempt budget.
var ErrBatchGenerationExhausted = errors.New("batch reference generation exhausted")

// ScheduleConflictError names the showing that occupies the hall.
type ScheduleConflictError struct {
	ShowingID uuid.UUID
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("%s with showing %s", ErrScheduleConflict, e.ShowingID)
}

func (e *ScheduleConflictError) Is(target error) bool {
	return target == ErrScheduleConflict
}

func invalidID(field, value string, err error) error {
	return fmt.Errorf("%w: %s %q is not a valid ID: %v", ErrValidation, field, value, err)
}
