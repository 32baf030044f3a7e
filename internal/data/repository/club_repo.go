package repository

import (
	"context"
	"fmt"

	"cinema-ticketing/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ClubRepository interface {
	MemberIDs(ctx context.Context, clubID uuid.UUID) (map[uuid.UUID]struct{}, error)
}

type clubRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewClubRepository(db database.PgxIface, log *zap.Logger) ClubRepository {
	return &clubRepository{
		db:  db,
		log: log.With(zap.String("repository", "club")),
	}
}

func (r *clubRepository) MemberIDs(ctx context.Context, clubID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM club_members WHERE club_id = $1`, clubID)
	if err != nil {
		r.log.Error("Failed to list club members",
			zap.Error(err),
			zap.String("club_id", clubID.String()),
		)
		return nil, fmt.Errorf("list members of club %s: %w", clubID, err)
	}
	defer rows.Close()

	members := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan club member row: %w", err)
		}
		members[userID] = struct{}{}
	}

	return members, rows.Err()
}
