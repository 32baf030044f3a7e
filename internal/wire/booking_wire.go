package wire

import (
	"cinema-ticketing/internal/adaptor"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/pkg/middleware"
	"cinema-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// POST /api/bookings - one seat, one fresh batch reference
		r.Post("/", bookingHandler.CreateBooking)

		// POST /api/bookings/batch - all seats or none
		r.Post("/batch", bookingHandler.CreateBatchBooking)

		r.Get("/{id}", bookingHandler.GetBooking)
		r.Patch("/{id}/beneficiary", bookingHandler.ReassignBeneficiary)
		r.Put("/{id}/cancel", bookingHandler.CancelBooking)
	})

	r.With(middleware.AuthSession(repo.Session, log)).Get("/api/batches/{ref}", bookingHandler.GetBatch)
}
