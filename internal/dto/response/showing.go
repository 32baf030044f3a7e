package response

import (
	"time"

	"cinema-ticketing/internal/data/entity"
)

type ShowingResponse struct {
	ID          string    `json:"id"`
	HallID      string    `json:"hall_id"`
	FilmID      string    `json:"film_id"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	TicketPrice float64   `json:"ticket_price"`
	OnSale      bool      `json:"on_sale"`
}

type SeatLockResponse struct {
	ID        string    `json:"id"`
	SeatLabel string    `json:"seat_label"`
	ShowingID string    `json:"showing_id"`
	HolderID  string    `json:"holder_id"`
	Released  bool      `json:"released"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ShowingToResponse needs the film to report when the hall frees up.
func ShowingToResponse(s *entity.Showing, film *entity.Film) ShowingResponse {
	slot := entity.ShowingSlot{ShowingID: s.ID, StartsAt: s.StartsAt, FilmDuration: film.Duration()}
	return ShowingResponse{
		ID:          s.ID.String(),
		HallID:      s.HallID.String(),
		FilmID:      s.FilmID.String(),
		StartsAt:    s.StartsAt,
		EndsAt:      slot.EndsAt(),
		TicketPrice: s.TicketPrice,
		OnSale:      s.OnSale,
	}
}

func SeatLockToResponse(l *entity.SeatLock, window time.Duration) SeatLockResponse {
	return SeatLockResponse{
		ID:        l.ID.String(),
		SeatLabel: l.SeatLabel,
		ShowingID: l.ShowingID.String(),
		HolderID:  l.HolderID.String(),
		Released:  l.Released,
		CreatedAt: l.CreatedAt,
		ExpiresAt: l.ExpiresAt(window),
	}
}
