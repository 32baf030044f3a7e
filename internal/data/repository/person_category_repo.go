package repository

import (
	"context"
	"fmt"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PersonCategoryRepository interface {
	// FindByIDs returns the categories that exist, keyed by ID. Missing IDs are
	// simply absent from the map.
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.PersonCategory, error)
}

type personCategoryRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPersonCategoryRepository(db database.PgxIface, log *zap.Logger) PersonCategoryRepository {
	return &personCategoryRepository{
		db:  db,
		log: log.With(zap.String("repository", "person_category")),
	}
}

func (r *personCategoryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.PersonCategory, error) {
	found := make(map[uuid.UUID]*entity.PersonCategory, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	query := `
		SELECT id, name, discount_pct, created_at, updated_at
		FROM person_categories
		WHERE id = ANY($1::uuid[])
	`

	params := make([]string, len(ids))
	for i, id := range ids {
		params[i] = id.String()
	}

	rows, err := r.db.Query(ctx, query, params)
	if err != nil {
		r.log.Error("Failed to find person categories",
			zap.Error(err),
			zap.Int("count", len(ids)),
		)
		return nil, fmt.Errorf("find person categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pc entity.PersonCategory
		if err := rows.Scan(&pc.ID, &pc.Name, &pc.DiscountPct, &pc.CreatedAt, &pc.UpdatedAt); err != nil {
			r.log.Error("Failed to scan person category row", zap.Error(err))
			return nil, fmt.Errorf("scan person category row: %w", err)
		}
		found[pc.ID] = &pc
	}

	return found, rows.Err()
}
