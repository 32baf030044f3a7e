package wire

import (
	"cinema-ticketing/internal/adaptor"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/pkg/middleware"
	"cinema-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireShowing(
	r chi.Router,
	showingHandler *adaptor.ShowingHandler,
	seatLockHandler *adaptor.SeatLockHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/showings", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		r.Post("/", showingHandler.CreateShowing)
		r.Get("/{id}", showingHandler.GetShowing)
		r.Patch("/{id}", showingHandler.UpdateShowing)
		r.Get("/{id}/batches", showingHandler.ListBatches)

		// POST /api/showings/{id}/seat-locks - hold a seat while paying
		r.Post("/{id}/seat-locks", seatLockHandler.AcquireSeatLock)
	})
}
