package entity

import (
	"time"

	"github.com/google/uuid"
)

// TurnaroundBuffer is the cleaning gap appended to every showing's runtime.
const TurnaroundBuffer = 15 * time.Minute

type Showing struct {
	Record
	HallID      uuid.UUID `db:"hall_id"`
	FilmID      uuid.UUID `db:"film_id"`
	StartsAt    time.Time `db:"starts_at"`
	TicketPrice float64   `db:"ticket_price"`
	OnSale      bool      `db:"on_sale"`
}

// ShowingSlot is the occupied interval of a showing inside its hall.
type ShowingSlot struct {
	ShowingID    uuid.UUID
	StartsAt     time.Time
	FilmDuration time.Duration
}

func (s ShowingSlot) EndsAt() time.Time {
	return s.StartsAt.Add(s.FilmDuration + TurnaroundBuffer)
}
