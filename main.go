package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"cinema-ticketing/cmd"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/internal/wire"
	"cinema-ticketing/pkg/cache"
	"cinema-ticketing/pkg/database"
	"cinema-ticketing/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("seat_lock_backend", config.SeatLock.Backend),
	)

	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.App.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		logger.Info("Schema applied")
	}

	var rdb *redis.Client
	if config.SeatLock.Backend == utils.SeatLockBackendRedis {
		rdb, err = cache.NewRedisClient(ctx, config.Redis, logger)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		logger.Info("Redis connected", zap.String("addr", config.Redis.Addr))
	}

	repos := repository.NewRepository(db, rdb, config, logger)
	app := wire.Wiring(repos, config, logger)

	if err := app.SettlementWorker.Start(ctx); err != nil {
		logger.Fatal("Failed to start settlement worker", zap.Error(err))
	}
	defer app.SettlementWorker.Stop()

	if app.SeatLockJanitor != nil {
		if err := app.SeatLockJanitor.Start(ctx); err != nil {
			logger.Fatal("Failed to start seat lock janitor", zap.Error(err))
		}
		defer app.SeatLockJanitor.Stop()
	}

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
	logger.Info("Server exited")
}
