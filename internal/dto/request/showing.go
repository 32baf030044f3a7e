package request

import "time"

type CreateShowingRequest struct {
	HallID      string    `json:"hall_id" validate:"required,uuid"`
	FilmID      string    `json:"film_id" validate:"required,uuid"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	TicketPrice float64   `json:"ticket_price" validate:"gte=0"`
	OnSale      bool      `json:"on_sale"`
}

// UpdateShowingRequest changes only the fields that are set.
type UpdateShowingRequest struct {
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	TicketPrice *float64   `json:"ticket_price,omitempty" validate:"omitempty,gte=0"`
	OnSale      *bool      `json:"on_sale,omitempty"`
}

type AcquireSeatLockRequest struct {
	SeatLabel string `json:"seat_label" validate:"required,seatlabel"`
}
