package usecase

import (
	"context"
	"fmt"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/internal/dto/request"
	"cinema-ticketing/internal/dto/response"
	"cinema-ticketing/pkg/seatlabel"
	"cinema-ticketing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SeatLockService hands out advisory holds during seat selection. A lock
// never stops a booking insert by itself; the active-seat unique index does.
type SeatLockService interface {
	Acquire(ctx context.Context, holderID uuid.UUID, showingID string, req *request.AcquireSeatLockRequest) (*response.SeatLockResponse, error)
	Release(ctx context.Context, lockID string) error
	// Compact drops locks that can no longer matter and returns how many.
	Compact(ctx context.Context) (int64, error)
}

type seatLockService struct {
	repo      *repository.Repository
	window    time.Duration
	retention time.Duration
	now       func() time.Time
	log       *zap.Logger
}

func NewSeatLockService(repo *repository.Repository, config *utils.Config, log *zap.Logger) SeatLockService {
	window := config.SeatLock.Window
	if window <= 0 {
		window = entity.SeatLockWindow
	}

	return &seatLockService{
		repo:      repo,
		window:    window,
		retention: config.SeatLock.Retention,
		now:       time.Now,
		log:       log.With(zap.String("service", "seat_lock")),
	}
}

func (s *seatLockService) Acquire(ctx context.Context, holderID uuid.UUID, showingID string, req *request.AcquireSeatLockRequest) (*response.SeatLockResponse, error) {
	sid, err := uuid.Parse(showingID)
	if err != nil {
		return nil, invalidID("showing_id", showingID, err)
	}
	if holderID == uuid.Nil {
		return nil, fmt.Errorf("%w: holder is required", ErrValidation)
	}

	showing, err := s.repo.Showing.FindByID(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("acquire seat lock: %w", err)
	}
	if showing == nil {
		return nil, fmt.Errorf("%w: %s", ErrShowingNotFound, showingID)
	}

	hall, err := s.repo.Hall.FindByID(ctx, showing.HallID)
	if err != nil {
		return nil, fmt.Errorf("acquire seat lock: %w", err)
	}
	if hall == nil {
		return nil, fmt.Errorf("%w: %s", ErrHallNotFound, showing.HallID)
	}

	seat, err := seatlabel.Validate(req.SeatLabel, hall.Rows, hall.SeatsPerRow)
	if err != nil {
		return nil, err
	}

	lock := &entity.SeatLock{
		AppendOnly: entity.AppendOnly{ID: uuid.New(), CreatedAt: s.now()},
		SeatLabel:  seat.Label(),
		ShowingID:  sid,
		HolderID:   holderID,
	}

	acquired, err := s.repo.SeatLock.Acquire(ctx, lock, s.window)
	if err != nil {
		return nil, fmt.Errorf("acquire seat lock %s: %w", lock.SeatLabel, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s for showing %s", ErrSeatLocked, lock.SeatLabel, showingID)
	}

	s.log.Debug("Seat lock acquired",
		zap.String("lock_id", lock.ID.String()),
		zap.String("seat_label", lock.SeatLabel),
		zap.String("showing_id", showingID),
	)

	resp := response.SeatLockToResponse(lock, s.window)
	return &resp, nil
}

func (s *seatLockService) Release(ctx context.Context, lockID string) error {
	id, err := uuid.Parse(lockID)
	if err != nil {
		return invalidID("lock_id", lockID, err)
	}

	lock, err := s.repo.SeatLock.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("release seat lock %s: %w", lockID, err)
	}
	if lock == nil {
		return fmt.Errorf("%w: %s", ErrSeatLockNotFound, lockID)
	}
	if lock.Released {
		return nil
	}

	if err := s.repo.SeatLock.Release(ctx, lock, s.now()); err != nil {
		return fmt.Errorf("release seat lock %s: %w", lockID, err)
	}
	return nil
}

func (s *seatLockService) Compact(ctx context.Context) (int64, error) {
	keep := s.retention
	if keep < s.window {
		keep = s.window
	}

	removed, err := s.repo.SeatLock.Compact(ctx, s.now().Add(-keep))
	if err != nil {
		return 0, fmt.Errorf("compact seat locks: %w", err)
	}
	return removed, nil
}
