package usecase

import (
	"context"
	"fmt"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/internal/dto/request"
	"cinema-ticketing/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ScheduleService interface {
	CreateShowing(ctx context.Context, req *request.CreateShowingRequest) (*response.ShowingResponse, error)
	UpdateShowing(ctx context.Context, showingID string, req *request.UpdateShowingRequest) (*response.ShowingResponse, error)
	GetShowing(ctx context.Context, showingID string) (*response.ShowingResponse, error)
}

type scheduleService struct {
	repo *repository.Repository
	now  func() time.Time
	log  *zap.Logger
}

func NewScheduleService(repo *repository.Repository, log *zap.Logger) ScheduleService {
	return &scheduleService{
		repo: repo,
		now:  time.Now,
		log:  log.With(zap.String("service", "schedule")),
	}
}

func (s *scheduleService) CreateShowing(ctx context.Context, req *request.CreateShowingRequest) (*response.ShowingResponse, error) {
	hallID, err := uuid.Parse(req.HallID)
	if err != nil {
		return nil, invalidID("hall_id", req.HallID, err)
	}
	filmID, err := uuid.Parse(req.FilmID)
	if err != nil {
		return nil, invalidID("film_id", req.FilmID, err)
	}

	hall, err := s.repo.Hall.FindByID(ctx, hallID)
	if err != nil {
		return nil, fmt.Errorf("create showing: %w", err)
	}
	if hall == nil {
		return nil, fmt.Errorf("%w: %s", ErrHallNotFound, req.HallID)
	}

	film, err := s.findFilm(ctx, filmID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	showing := &entity.Showing{
		Record: entity.Record{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		HallID:      hallID,
		FilmID:      filmID,
		StartsAt:    req.StartsAt,
		TicketPrice: req.TicketPrice,
		OnSale:      req.OnSale,
	}

	if err := s.checkTiming(ctx, showing, film); err != nil {
		return nil, err
	}

	if err := s.repo.Showing.Create(ctx, showing); err != nil {
		return nil, fmt.Errorf("create showing: %w", err)
	}

	s.log.Info("Showing scheduled",
		zap.String("showing_id", showing.ID.String()),
		zap.String("hall_id", req.HallID),
		zap.Time("starts_at", showing.StartsAt),
	)

	resp := response.ShowingToResponse(showing, film)
	return &resp, nil
}

func (s *scheduleService) UpdateShowing(ctx context.Context, showingID string, req *request.UpdateShowingRequest) (*response.ShowingResponse, error) {
	showing, err := s.findShowing(ctx, showingID)
	if err != nil {
		return nil, err
	}

	film, err := s.findFilm(ctx, showing.FilmID)
	if err != nil {
		return nil, err
	}

	if req.StartsAt != nil && !req.StartsAt.Equal(showing.StartsAt) {
		showing.StartsAt = *req.StartsAt
		if err := s.checkTiming(ctx, showing, film); err != nil {
			return nil, err
		}
	}
	if req.TicketPrice != nil {
		showing.TicketPrice = *req.TicketPrice
	}
	if req.OnSale != nil {
		showing.OnSale = *req.OnSale
	}
	showing.Touch(s.now())

	if err := s.repo.Showing.Update(ctx, showing); err != nil {
		return nil, fmt.Errorf("update showing %s: %w", showingID, err)
	}

	resp := response.ShowingToResponse(showing, film)
	return &resp, nil
}

func (s *scheduleService) GetShowing(ctx context.Context, showingID string) (*response.ShowingResponse, error) {
	showing, err := s.findShowing(ctx, showingID)
	if err != nil {
		return nil, err
	}

	film, err := s.findFilm(ctx, showing.FilmID)
	if err != nil {
		return nil, err
	}

	resp := response.ShowingToResponse(showing, film)
	return &resp, nil
}

// checkTiming runs both schedule rules against the showing's current start.
func (s *scheduleService) checkTiming(ctx context.Context, showing *entity.Showing, film *entity.Film) error {
	if err := CheckFilmWindow(showing.StartsAt, film); err != nil {
		return err
	}

	slots, err := s.repo.Showing.FindSlotsByHallID(ctx, showing.HallID)
	if err != nil {
		return fmt.Errorf("load hall schedule: %w", err)
	}

	candidate := entity.ShowingSlot{
		ShowingID:    showing.ID,
		StartsAt:     showing.StartsAt,
		FilmDuration: film.Duration(),
	}
	return CheckNoOverlap(candidate, slots)
}

func (s *scheduleService) findShowing(ctx context.Context, showingID string) (*entity.Showing, error) {
	id, err := uuid.Parse(showingID)
	if err != nil {
		return nil, invalidID("showing_id", showingID, err)
	}

	showing, err := s.repo.Showing.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get showing %s: %w", showingID, err)
	}
	if showing == nil {
		return nil, fmt.Errorf("%w: %s", ErrShowingNotFound, showingID)
	}
	return showing, nil
}

func (s *scheduleService) findFilm(ctx context.Context, filmID uuid.UUID) (*entity.Film, error) {
	film, err := s.repo.Film.FindByID(ctx, filmID)
	if err != nil {
		return nil, fmt.Errorf("get film %s: %w", filmID, err)
	}
	if film == nil {
		return nil, fmt.Errorf("%w: %s", ErrFilmNotFound, filmID)
	}
	return film, nil
}
