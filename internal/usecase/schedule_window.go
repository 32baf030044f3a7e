package usecase

import (
	"fmt"
	"time"

	"cinema-ticketing/internal/data/entity"
)

// CheckFilmWindow fails unless the film is active and startsAt lies within
// its broadcast window, both ends inclusive.
func CheckFilmWindow(startsAt time.Time, film *entity.Film) error {
	if !film.IsActive {
		return fmt.Errorf("%w: film %s is not active", ErrOutsideBroadcastWindow, film.ID)
	}
	if startsAt.Before(film.OnAirFrom) || startsAt.After(film.OnAirTo) {
		return fmt.Errorf("%w: %s is outside %s - %s",
			ErrOutsideBroadcastWindow,
			startsAt.Format(time.RFC3339),
			film.OnAirFrom.Format(time.RFC3339),
			film.OnAirTo.Format(time.RFC3339),
		)
	}
	return nil
}

// CheckNoOverlap fails with a *ScheduleConflictError for the first existing
// slot whose occupied interval touches the candidate's. The candidate's own
// slot, matched by ID, is skipped so a retimed showing does not clash with
// its old time.
func CheckNoOverlap(candidate entity.ShowingSlot, existing []entity.ShowingSlot) error {
	start, end := candidate.StartsAt, candidate.EndsAt()

	for _, other := range existing {
		if other.ShowingID == candidate.ShowingID {
			continue
		}
		if !start.After(other.EndsAt()) && !other.StartsAt.After(end) {
			return &ScheduleConflictError{ShowingID: other.ShowingID}
		}
	}
	return nil
}
