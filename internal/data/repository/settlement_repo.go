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

// SettlementRepository is the balance outbox. Rows are written next to the
// bookings they pay for and applied later.
type SettlementRepository interface {
	FindPending(ctx context.Context, limit int) ([]*entity.Settlement, error)
	// Apply marks a pending settlement settled and moves the balance in one
	// transaction. It returns false when the row was no longer pending.
	Apply(ctx context.Context, settlement *entity.Settlement, at time.Time) (bool, error)
	// RecordFailure bumps the attempt counter and parks the row as failed once
	// maxAttempts is reached, or at once when permanent is set. It returns the
	// resulting status.
	RecordFailure(ctx context.Context, id uuid.UUID, cause string, maxAttempts int, permanent bool) (entity.SettlementStatus, error)
}

type settlementRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSettlementRepository(db database.PgxIface, log *zap.Logger) SettlementRepository {
	return &settlementRepository{
		db:  db,
		log: log.With(zap.String("repository", "settlement")),
	}
}

func insertSettlement(ctx context.Context, tx pgx.Tx, s *entity.Settlement) error {
	query := `
		INSERT INTO settlements (id, account_id, kind, amount, reference, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(ctx, query,
		s.ID,
		s.AccountID,
		s.Kind,
		s.Amount,
		s.Reference,
		s.Status,
		s.Attempts,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert %s settlement %s: %w", s.Kind, s.Reference, translatePgError(err))
	}
	return nil
}

func (r *settlementRepository) FindPending(ctx context.Context, limit int) ([]*entity.Settlement, error) {
	query := `
		SELECT id, account_id, kind, amount, reference, status, attempts, last_error, settled_at, created_at
		FROM settlements
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.log.Error("Failed to find pending settlements", zap.Error(err))
		return nil, fmt.Errorf("find pending settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*entity.Settlement
	for rows.Next() {
		var s entity.Settlement
		err := rows.Scan(
			&s.ID,
			&s.AccountID,
			&s.Kind,
			&s.Amount,
			&s.Reference,
			&s.Status,
			&s.Attempts,
			&s.LastError,
			&s.SettledAt,
			&s.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan settlement row", zap.Error(err))
			return nil, fmt.Errorf("scan settlement row: %w", err)
		}
		settlements = append(settlements, &s)
	}

	return settlements, rows.Err()
}

func (r *settlementRepository) Apply(ctx context.Context, s *entity.Settlement, at time.Time) (bool, error) {
	claim := `
		UPDATE settlements
		SET status = 'settled', settled_at = $2, attempts = attempts + 1
		WHERE id = $1 AND status = 'pending'
	`

	applied := false
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, claim, s.ID, at)
		if err != nil {
			return fmt.Errorf("claim settlement %s: %w", s.ID, err)
		}
		if result.RowsAffected() == 0 {
			return nil
		}

		if _, err := adjustBalance(ctx, tx, s.AccountID, s.SignedAmount()); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		r.log.Error("Failed to apply settlement",
			zap.Error(err),
			zap.String("settlement_id", s.ID.String()),
			zap.String("account_id", s.AccountID.String()),
		)
		return false, err
	}

	return applied, nil
}

func (r *settlementRepository) RecordFailure(ctx context.Context, id uuid.UUID, cause string, maxAttempts int, permanent bool) (entity.SettlementStatus, error) {
	query := `
		UPDATE settlements
		SET attempts = attempts + 1,
		    last_error = $2,
		    status = CASE WHEN $4::boolean OR attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END
		WHERE id = $1 AND status = 'pending'
		RETURNING status
	`

	var status entity.SettlementStatus
	err := r.db.QueryRow(ctx, query, id, cause, maxAttempts, permanent).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("record failure of settlement %s: %w", id, ErrNoRowsAffected)
	}
	if err != nil {
		r.log.Error("Failed to record settlement failure",
			zap.Error(err),
			zap.String("settlement_id", id.String()),
		)
		return "", fmt.Errorf("record failure of settlement %s: %w", id, err)
	}

	return status, nil
}
