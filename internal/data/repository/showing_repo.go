package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ShowingRepository interface {
	Create(ctx context.Context, showing *entity.Showing) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Showing, error)
	// FindSlotsByHallID returns the occupied interval of every showing in the hall.
	FindSlotsByHallID(ctx context.Context, hallID uuid.UUID) ([]entity.ShowingSlot, error)
	Update(ctx context.Context, showing *entity.Showing) error
}

type showingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewShowingRepository(db database.PgxIface, log *zap.Logger) ShowingRepository {
	return &showingRepository{
		db:  db,
		log: log.With(zap.String("repository", "showing")),
	}
}

func (r *showingRepository) Create(ctx context.Context, showing *entity.Showing) error {
	query := `
		INSERT INTO showings (id, hall_id, film_id, starts_at, ticket_price, on_sale, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		showing.ID,
		showing.HallID,
		showing.FilmID,
		showing.StartsAt,
		showing.TicketPrice,
		showing.OnSale,
		showing.CreatedAt,
		showing.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create showing",
			zap.Error(err),
			zap.String("hall_id", showing.HallID.String()),
			zap.String("film_id", showing.FilmID.String()),
			zap.Time("starts_at", showing.StartsAt),
		)
		return fmt.Errorf("create showing in hall %s: %w", showing.HallID, translatePgError(err))
	}

	return nil
}

func (r *showingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Showing, error) {
	query := `
		SELECT id, hall_id, film_id, starts_at, ticket_price, on_sale, created_at, updated_at
		FROM showings
		WHERE id = $1
	`

	var s entity.Showing
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.HallID,
		&s.FilmID,
		&s.StartsAt,
		&s.TicketPrice,
		&s.OnSale,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find showing by ID",
			zap.Error(err),
			zap.String("showing_id", id.String()),
		)
		return nil, fmt.Errorf("find showing by ID %s: %w", id, err)
	}

	return &s, nil
}

func (r *showingRepository) FindSlotsByHallID(ctx context.Context, hallID uuid.UUID) ([]entity.ShowingSlot, error) {
	query := `
		SELECT s.id, s.starts_at, f.duration_seconds
		FROM showings s
		JOIN films f ON f.id = s.film_id
		WHERE s.hall_id = $1
		ORDER BY s.starts_at
	`

	rows, err := r.db.Query(ctx, query, hallID)
	if err != nil {
		r.log.Error("Failed to find showing slots by hall ID",
			zap.Error(err),
			zap.String("hall_id", hallID.String()),
		)
		return nil, fmt.Errorf("find showing slots by hall ID %s: %w", hallID, err)
	}
	defer rows.Close()

	var slots []entity.ShowingSlot
	for rows.Next() {
		var (
			slot     entity.ShowingSlot
			duration int
		)
		if err := rows.Scan(&slot.ShowingID, &slot.StartsAt, &duration); err != nil {
			r.log.Error("Failed to scan showing slot row", zap.Error(err))
			return nil, fmt.Errorf("scan showing slot row: %w", err)
		}
		slot.FilmDuration = time.Duration(duration) * time.Second
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

func (r *showingRepository) Update(ctx context.Context, showing *entity.Showing) error {
	query := `
		UPDATE showings
		SET hall_id = $2, film_id = $3, starts_at = $4, ticket_price = $5, on_sale = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		showing.ID,
		showing.HallID,
		showing.FilmID,
		showing.StartsAt,
		showing.TicketPrice,
		showing.OnSale,
		showing.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update showing",
			zap.Error(err),
			zap.String("showing_id", showing.ID.String()),
		)
		return fmt.Errorf("update showing %s: %w", showing.ID, translatePgError(err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update showing %s: %w", showing.ID, ErrNoRowsAffected)
	}

	return nil
}
