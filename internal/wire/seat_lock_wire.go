package wire

import (
	"cinema-ticketing/internal/adaptor"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/pkg/middleware"
	"cinema-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireSeatLock(
	r chi.Router,
	seatLockHandler *adaptor.SeatLockHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// DELETE /api/seat-locks/{id} - releasing twice is fine
		r.Delete("/api/seat-locks/{id}", seatLockHandler.ReleaseSeatLock)
	})
}
