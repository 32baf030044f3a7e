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

// SeatLockRepository stores advisory seat locks. A lock is active while it is
// not released and younger than the window passed in by the caller.
type SeatLockRepository interface {
	// Acquire stores lock unless another active lock guards the same seat.
	// It returns false, and stores nothing, when the seat is taken.
	Acquire(ctx context.Context, lock *entity.SeatLock, window time.Duration) (bool, error)
	FindActive(ctx context.Context, showingID uuid.UUID, seatLabel string, now time.Time, window time.Duration) (*entity.SeatLock, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SeatLock, error)
	// Release marks the lock released. Releasing twice is not an error.
	Release(ctx context.Context, lock *entity.SeatLock, at time.Time) error
	// Compact deletes locks created before cutoff and returns how many went.
	Compact(ctx context.Context, cutoff time.Time) (int64, error)
}

type seatLockRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSeatLockRepository(db database.PgxIface, log *zap.Logger) SeatLockRepository {
	return &seatLockRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat_lock")),
	}
}

const seatLockColumns = `id, seat_label, showing_id, holder_id, released, released_at, created_at`

func scanSeatLock(row pgx.Row) (*entity.SeatLock, error) {
	var l entity.SeatLock
	err := row.Scan(&l.ID, &l.SeatLabel, &l.ShowingID, &l.HolderID, &l.Released, &l.ReleasedAt, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Acquire takes a transaction scoped advisory lock on the seat before the
// conditional insert. Two acquires of one seat therefore run one after the
// other, and the second insert sees the first lock row.
func (r *seatLockRepository) Acquire(ctx context.Context, lock *entity.SeatLock, window time.Duration) (bool, error) {
	guard := `SELECT pg_advisory_xact_lock(hashtextextended($1::text || ':' || $2::text, 0))`
	insert := `
		INSERT INTO seat_locks (id, seat_label, showing_id, holder_id, released, created_at)
		SELECT $1::uuid, $2::varchar, $3::uuid, $4::uuid, FALSE, $5::timestamptz
		WHERE NOT EXISTS (
			SELECT 1 FROM seat_locks
			WHERE showing_id = $3::uuid
			  AND seat_label = $2::varchar
			  AND released = FALSE
			  AND created_at >= $6::timestamptz
		)
	`

	acquired := false
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, guard, lock.ShowingID.String(), lock.SeatLabel); err != nil {
			return fmt.Errorf("guard seat: %w", err)
		}

		result, err := tx.Exec(ctx, insert,
			lock.ID,
			lock.SeatLabel,
			lock.ShowingID,
			lock.HolderID,
			lock.CreatedAt,
			lock.CreatedAt.Add(-window),
		)
		if err != nil {
			return fmt.Errorf("insert lock: %w", translatePgError(err))
		}
		acquired = result.RowsAffected() == 1
		return nil
	})
	if err != nil {
		r.log.Error("Failed to acquire seat lock",
			zap.Error(err),
			zap.String("showing_id", lock.ShowingID.String()),
			zap.String("seat", lock.SeatLabel),
		)
		return false, fmt.Errorf("acquire seat lock %s/%s: %w", lock.ShowingID, lock.SeatLabel, err)
	}

	return acquired, nil
}

func (r *seatLockRepository) FindActive(ctx context.Context, showingID uuid.UUID, seatLabel string, now time.Time, window time.Duration) (*entity.SeatLock, error) {
	query := `
		SELECT ` + seatLockColumns + `
		FROM seat_locks
		WHERE showing_id = $1 AND seat_label = $2 AND released = FALSE AND created_at >= $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	lock, err := scanSeatLock(r.db.QueryRow(ctx, query, showingID, seatLabel, now.Add(-window)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active seat lock",
			zap.Error(err),
			zap.String("showing_id", showingID.String()),
			zap.String("seat", seatLabel),
		)
		return nil, fmt.Errorf("find active seat lock %s/%s: %w", showingID, seatLabel, err)
	}

	return lock, nil
}

func (r *seatLockRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SeatLock, error) {
	query := `SELECT ` + seatLockColumns + ` FROM seat_locks WHERE id = $1`

	lock, err := scanSeatLock(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find seat lock by ID",
			zap.Error(err),
			zap.String("lock_id", id.String()),
		)
		return nil, fmt.Errorf("find seat lock by ID %s: %w", id, err)
	}

	return lock, nil
}

func (r *seatLockRepository) Release(ctx context.Context, lock *entity.SeatLock, at time.Time) error {
	query := `UPDATE seat_locks SET released = TRUE, released_at = $2 WHERE id = $1 AND released = FALSE`

	if _, err := r.db.Exec(ctx, query, lock.ID, at); err != nil {
		r.log.Error("Failed to release seat lock",
			zap.Error(err),
			zap.String("lock_id", lock.ID.String()),
		)
		return fmt.Errorf("release seat lock %s: %w", lock.ID, err)
	}

	return nil
}

func (r *seatLockRepository) Compact(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM seat_locks WHERE created_at < $1`, cutoff)
	if err != nil {
		r.log.Error("Failed to compact seat locks",
			zap.Error(err),
			zap.Time("cutoff", cutoff),
		)
		return 0, fmt.Errorf("compact seat locks before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	return result.RowsAffected(), nil
}
