package repository

import (
	"cinema-ticketing/pkg/database"
	"cinema-ticketing/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Repository struct {
	DB             database.PgxIface
	Session        SessionRepository
	Film           FilmRepository
	Hall           HallRepository
	Showing        ShowingRepository
	PersonCategory PersonCategoryRepository
	Account        AccountRepository
	Club           ClubRepository
	Booking        BookingRepository
	SeatLock       SeatLockRepository
	Settlement     SettlementRepository
}

// NewRepository builds every repository on the shared pool. rdb is only used
// when seat locks are configured to live in redis.
func NewRepository(db database.PgxIface, rdb *redis.Client, config *utils.Config, log *zap.Logger) *Repository {
	seatLocks := NewSeatLockRepository(db, log)
	if config.SeatLock.Backend == utils.SeatLockBackendRedis && rdb != nil {
		seatLocks = NewRedisSeatLockRepository(rdb, config.SeatLock.Retention, log)
	}

	return &Repository{
		DB:             db,
		Session:        NewSessionRepository(db, log),
		Film:           NewFilmRepository(db, log),
		Hall:           NewHallRepository(db, log),
		Showing:        NewShowingRepository(db, log),
		PersonCategory: NewPersonCategoryRepository(db, log),
		Account:        NewAccountRepository(db, log),
		Club:           NewClubRepository(db, log),
		Booking:        NewBookingRepository(db, log),
		SeatLock:       seatLocks,
		Settlement:     NewSettlementRepository(db, log),
	}
}
