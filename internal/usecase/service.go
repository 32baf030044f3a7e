package usecase

import (
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Booking  BookingService
	Schedule ScheduleService
	SeatLock SeatLockService
	Ledger   LedgerService
}

func NewService(repo *repository.Repository, config *utils.Config, notifier SettlementNotifier, log *zap.Logger) *Service {
	return &Service{
		Booking:  NewBookingService(repo, config, notifier, log),
		Schedule: NewScheduleService(repo, log),
		SeatLock: NewSeatLockService(repo, config, log),
		Ledger:   NewLedgerService(repo, log),
	}
}
