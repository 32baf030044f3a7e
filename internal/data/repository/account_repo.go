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

type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	// AdjustBalance adds delta to the balance and returns the new balance.
	// Crossing the floor fails with ErrCheckViolation.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta float64) (float64, error)
}

type accountRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewAccountRepository(db database.PgxIface, log *zap.Logger) AccountRepository {
	return &accountRepository{
		db:  db,
		log: log.With(zap.String("repository", "account")),
	}
}

func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	query := `
		SELECT a.id, a.owner_type, a.owner_id, a.name, a.status, a.discount_pct, a.balance,
		       COALESCE((
		           SELECT SUM(s.amount) FROM settlements s
		           WHERE s.account_id = a.id AND s.kind = 'debit' AND s.status = 'pending'
		       ), 0) AS pending_debits,
		       a.created_at, a.updated_at
		FROM accounts a
		WHERE a.id = $1
	`

	var a entity.Account
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.OwnerType,
		&a.OwnerID,
		&a.Name,
		&a.Status,
		&a.DiscountPct,
		&a.Balance,
		&a.PendingDebits,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find account by ID",
			zap.Error(err),
			zap.String("account_id", id.String()),
		)
		return nil, fmt.Errorf("find account by ID %s: %w", id, err)
	}

	return &a, nil
}

func (r *accountRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta float64) (float64, error) {
	balance, err := adjustBalance(ctx, r.db, id, delta)
	if err != nil {
		r.log.Error("Failed to adjust balance",
			zap.Error(err),
			zap.String("account_id", id.String()),
			zap.Float64("delta", delta),
		)
		return 0, err
	}
	return balance, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// adjustBalance is shared with the settlement repository so the balance
// statement lives in one place.
func adjustBalance(ctx context.Context, q rowQuerier, id uuid.UUID, delta float64) (float64, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING balance
	`

	var balance float64
	err := q.QueryRow(ctx, query, id, delta).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("adjust balance of account %s: %w", id, ErrNoRowsAffected)
	}
	if err != nil {
		return 0, fmt.Errorf("adjust balance of account %s: %w", id, translatePgError(err))
	}

	return balance, nil
}
