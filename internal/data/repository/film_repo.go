package repository

import (
	"context"
	"errors"
	"fmt"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type FilmRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Film, error)
}

type filmRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewFilmRepository(db database.PgxIface, log *zap.Logger) FilmRepository {
	return &filmRepository{
		db:  db,
		log: log.With(zap.String("repository", "film")),
	}
}

func (r *filmRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Film, error) {
	query := `
		SELECT id, title, duration_seconds, on_air_from, on_air_to, is_active,
		       created_at, updated_at, deleted_at
		FROM films
		WHERE id = $1 AND deleted_at IS NULL
	`

	var f entity.Film
	err := r.db.QueryRow(ctx, query, id).Scan(
		&f.ID,
		&f.Title,
		&f.DurationSeconds,
		&f.OnAirFrom,
		&f.OnAirTo,
		&f.IsActive,
		&f.CreatedAt,
		&f.UpdatedAt,
		&f.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find film by ID",
			zap.Error(err),
			zap.String("film_id", id.String()),
		)
		return nil, fmt.Errorf("find film by ID %s: %w", id, err)
	}

	return &f, nil
}
