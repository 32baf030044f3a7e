package adaptor

import (
	"cinema-ticketing/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Booking  *BookingHandler
	Showing  *ShowingHandler
	SeatLock *SeatLockHandler
	Account  *AccountHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Booking:  NewBookingHandler(service.Booking, log),
		Showing:  NewShowingHandler(service.Schedule, service.Booking, log),
		SeatLock: NewSeatLockHandler(service.SeatLock, log),
		Account:  NewAccountHandler(service.Ledger, service.Booking, log),
	}
}
