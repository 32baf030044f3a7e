package wire

import (
	"net/http"

	"cinema-ticketing/internal/adaptor"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/internal/usecase"
	"cinema-ticketing/internal/worker"
	"cinema-ticketing/pkg/middleware"
	"cinema-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router and the background workers main has to run.
type App struct {
	Router           *chi.Mux
	SettlementWorker *worker.SettlementWorker
	// SeatLockJanitor is nil when seat locks live in redis.
	SeatLockJanitor *worker.SeatLockJanitor
}

// Wiring builds services, workers and routes on top of the repositories.
func Wiring(repo *repository.Repository, config *utils.Config, logger *zap.Logger) *App {
	ledger := usecase.NewLedgerService(repo, logger)
	settlements := worker.NewSettlementWorker(repo.Settlement, ledger, config.Settlement, logger)

	service := usecase.NewService(repo, config, settlements, logger)
	handler := adaptor.NewHandler(service, logger)

	app := &App{
		Router:           setupRouter(handler, repo, config, logger),
		SettlementWorker: settlements,
	}
	if config.SeatLock.Backend != utils.SeatLockBackendRedis {
		app.SeatLockJanitor = worker.NewSeatLockJanitor(service.SeatLock, config.SeatLock.CompactInterval, logger)
	}

	return app
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	wireBooking(r, handler.Booking, repo, config, logger)
	wireShowing(r, handler.Showing, handler.SeatLock, repo, config, logger)
	wireSeatLock(r, handler.SeatLock, repo, config, logger)
	wireAccount(r, handler.Account, repo, config, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := repo.DB.Ping(r.Context()); err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			utils.ResponseServiceUnavailable(w, "database unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
