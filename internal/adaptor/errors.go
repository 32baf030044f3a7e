package adaptor

import (
	"errors"
	"net/http"

	"cinema-ticketing/internal/usecase"
	"cinema-ticketing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type errorKind struct {
	err    error
	status int
	code   string
}

// Order matters only for errors that wrap more than one kind.
var errorKinds = []errorKind{
	{usecase.ErrShowingNotFound, http.StatusNotFound, "SHOWING_NOT_FOUND"},
	{usecase.ErrHallNotFound, http.StatusNotFound, "HALL_NOT_FOUND"},
	{usecase.ErrFilmNotFound, http.StatusNotFound, "FILM_NOT_FOUND"},
	{usecase.ErrPersonCategoryNotFound, http.StatusNotFound, "PERSON_CATEGORY_NOT_FOUND"},
	{usecase.ErrPayerNotFound, http.StatusNotFound, "PAYER_NOT_FOUND"},
	{usecase.ErrBookingNotFound, http.StatusNotFound, "BOOKING_NOT_FOUND"},
	{usecase.ErrSeatLockNotFound, http.StatusNotFound, "SEAT_LOCK_NOT_FOUND"},

	{usecase.ErrValidation, http.StatusBadRequest, utils.CodeValidation},
	{usecase.ErrInvalidSeatFormat, http.StatusBadRequest, utils.CodeInvalidSeatFormat},
	{usecase.ErrSeatOutOfRange, http.StatusBadRequest, "SEAT_OUT_OF_RANGE"},

	{usecase.ErrScheduleConflict, http.StatusConflict, "SCHEDULE_CONFLICT"},
	{usecase.ErrSeatAlreadyBooked, http.StatusConflict, "SEAT_ALREADY_BOOKED"},
	{usecase.ErrSeatLocked, http.StatusConflict, "SEAT_LOCKED"},

	{usecase.ErrInsufficientFunds, http.StatusPaymentRequired, "INSUFFICIENT_FUNDS"},

	{usecase.ErrPayerDisabled, http.StatusForbidden, "PAYER_DISABLED"},
	{usecase.ErrReassignNotPermitted, http.StatusForbidden, "REASSIGN_NOT_PERMITTED"},

	{usecase.ErrShowingClosed, http.StatusUnprocessableEntity, "SHOWING_CLOSED"},
	{usecase.ErrShowingInPast, http.StatusUnprocessableEntity, "SHOWING_IN_PAST"},
	{usecase.ErrOutsideBroadcastWindow, http.StatusUnprocessableEntity, "OUTSIDE_BROADCAST_WINDOW"},
	{usecase.ErrBeneficiaryNotMember, http.StatusUnprocessableEntity, "BENEFICIARY_NOT_MEMBER"},
	{usecase.ErrBookingCancelled, http.StatusUnprocessableEntity, "BOOKING_CANCELLED"},
	{usecase.ErrTooManySeats, http.StatusUnprocessableEntity, "TOO_MANY_SEATS"},

	{usecase.ErrBatchGenerationExhausted, http.StatusServiceUnavailable, "BATCH_GENERATION_EXHAUSTED"},
}

func classify(err error) (errorKind, bool) {
	for _, kind := range errorKinds {
		if errors.Is(err, kind.err) {
			return kind, true
		}
	}
	return errorKind{}, false
}

// handleServiceError maps usecase errors onto statuses so clients can tell a
// missing resource from a taken seat or an empty balance. Anything unknown is
// logged and hidden behind a 500.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	fields := []zap.Field{zap.Error(err), zap.String("operation", operation)}

	kind, ok := classify(err)
	if !ok {
		log.Error("Failed to "+operation, fields...)
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	fields = append(fields, zap.String("code", kind.code))
	if kind.status == http.StatusServiceUnavailable {
		log.Error(operation+" failed", fields...)
		utils.ResponseError(w, kind.status, kind.code, "Could not allocate a batch reference, try again", nil, nil)
		return
	}
	log.Warn(operation+" rejected", fields...)

	var data any
	var conflict *usecase.ScheduleConflictError
	if errors.As(err, &conflict) {
		data = map[string]string{"conflicting_showing_id": conflict.ShowingID.String()}
	}
	utils.ResponseError(w, kind.status, kind.code, err.Error(), data, nil)
}

// requireUser pulls the session user set by middleware.AuthSession.
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}
