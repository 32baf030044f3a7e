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

type BookingRepository interface {
	// CreateBatch inserts every booking and the optional settlement in one
	// transaction. Nothing is written when any insert fails. A debit
	// settlement first locks the payer row and fails with ErrBalanceFloor
	// when balance minus pending debits cannot cover it.
	CreateBatch(ctx context.Context, bookings []*entity.Booking, settlement *entity.Settlement) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByBatchRef(ctx context.Context, batchRef string) ([]*entity.Booking, error)
	FindByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)
	SummarizeBatches(ctx context.Context, showingID uuid.UUID) ([]*entity.BatchSummary, error)
	// BatchRefs returns every batch reference currently used by a booking.
	BatchRefs(ctx context.Context) (map[string]struct{}, error)
	UpdateBeneficiary(ctx context.Context, id, beneficiaryID uuid.UUID) error
	// Cancel flips an active booking to cancelled and stores the optional
	// refund settlement in the same transaction.
	Cancel(ctx context.Context, id uuid.UUID, refund *entity.Settlement) error
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, seat_label, showing_id, account_id, person_category_id, beneficiary_id,
	amount, serial_no, batch_ref, cash_settled, status, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.SeatLabel,
		&b.ShowingID,
		&b.AccountID,
		&b.PersonCategoryID,
		&b.BeneficiaryID,
		&b.Amount,
		&b.SerialNo,
		&b.BatchRef,
		&b.CashSettled,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) CreateBatch(ctx context.Context, bookings []*entity.Booking, settlement *entity.Settlement) error {
	insertBooking := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if settlement != nil && settlement.Kind == entity.SettlementKindDebit {
			if err := reserveDebit(ctx, tx, settlement); err != nil {
				return err
			}
		}

		for _, b := range bookings {
			_, err := tx.Exec(ctx, insertBooking,
				b.ID,
				b.SeatLabel,
				b.ShowingID,
				b.AccountID,
				b.PersonCategoryID,
				b.BeneficiaryID,
				b.Amount,
				b.SerialNo,
				b.BatchRef,
				b.CashSettled,
				b.Status,
				b.CreatedAt,
				b.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert booking %s seat %s: %w", b.BatchRef, b.SeatLabel, translatePgError(err))
			}
		}

		if settlement != nil {
			if err := insertSettlement(ctx, tx, settlement); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUniqueViolation):
			r.log.Warn("Booking batch rejected by unique constraint", zap.Error(err))
		case errors.Is(err, ErrBalanceFloor):
			r.log.Warn("Booking batch rejected by balance floor", zap.Error(err))
		default:
			r.log.Error("Failed to create booking batch",
				zap.Error(err),
				zap.Int("count", len(bookings)),
			)
		}
		return err
	}

	return nil
}

// reserveDebit serializes checkouts of one payer on its account row. The
// pending sum is read after the lock so debits applied meanwhile are not
// counted twice.
func reserveDebit(ctx context.Context, tx pgx.Tx, debit *entity.Settlement) error {
	var locked uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, debit.AccountID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("lock account %s: %w", debit.AccountID, ErrNoRowsAffected)
	}
	if err != nil {
		return fmt.Errorf("lock account %s: %w", debit.AccountID, err)
	}

	query := `
		SELECT a.balance - COALESCE((
		           SELECT SUM(s.amount) FROM settlements s
		           WHERE s.account_id = a.id AND s.kind = 'debit' AND s.status = 'pending'
		       ), 0) - $2::numeric >= $3::numeric
		FROM accounts a
		WHERE a.id = $1
	`

	var covered bool
	if err := tx.QueryRow(ctx, query, debit.AccountID, debit.Amount, entity.BalanceFloor).Scan(&covered); err != nil {
		return fmt.Errorf("check balance of account %s: %w", debit.AccountID, err)
	}
	if !covered {
		return fmt.Errorf("debit %.2f on account %s: %w", debit.Amount, debit.AccountID, ErrBalanceFloor)
	}
	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByBatchRef(ctx context.Context, batchRef string) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE batch_ref = $1 ORDER BY seat_label`

	bookings, err := r.queryBookings(ctx, query, batchRef)
	if err != nil {
		r.log.Error("Failed to find bookings by batch ref",
			zap.Error(err),
			zap.String("batch_ref", batchRef),
		)
		return nil, fmt.Errorf("find bookings by batch ref %s: %w", batchRef, err)
	}

	return bookings, nil
}

func (r *bookingRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	bookings, err := r.queryBookings(ctx, query, accountID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by account ID",
			zap.Error(err),
			zap.String("account_id", accountID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by account ID %s: %w", accountID, err)
	}

	return bookings, nil
}

func (r *bookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]*entity.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func (r *bookingRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by account ID",
			zap.Error(err),
			zap.String("account_id", accountID.String()),
		)
		return 0, fmt.Errorf("count bookings by account ID %s: %w", accountID, err)
	}

	return count, nil
}

func (r *bookingRepository) SummarizeBatches(ctx context.Context, showingID uuid.UUID) ([]*entity.BatchSummary, error) {
	query := `
		SELECT batch_ref, account_id, MIN(created_at), COUNT(*), SUM(amount)
		FROM bookings
		WHERE showing_id = $1 AND status = 'active'
		GROUP BY batch_ref, account_id
		ORDER BY MIN(created_at)
	`

	rows, err := r.db.Query(ctx, query, showingID)
	if err != nil {
		r.log.Error("Failed to summarize batches",
			zap.Error(err),
			zap.String("showing_id", showingID.String()),
		)
		return nil, fmt.Errorf("summarize batches of showing %s: %w", showingID, err)
	}
	defer rows.Close()

	var summaries []*entity.BatchSummary
	for rows.Next() {
		var s entity.BatchSummary
		if err := rows.Scan(&s.BatchRef, &s.AccountID, &s.FirstCreatedAt, &s.Count, &s.Total); err != nil {
			return nil, fmt.Errorf("scan batch summary row: %w", err)
		}
		summaries = append(summaries, &s)
	}

	return summaries, rows.Err()
}

func (r *bookingRepository) BatchRefs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT batch_ref FROM bookings`)
	if err != nil {
		r.log.Error("Failed to list batch refs", zap.Error(err))
		return nil, fmt.Errorf("list batch refs: %w", err)
	}
	defer rows.Close()

	refs := make(map[string]struct{})
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scan batch ref row: %w", err)
		}
		refs[ref] = struct{}{}
	}

	return refs, rows.Err()
}

func (r *bookingRepository) UpdateBeneficiary(ctx context.Context, id, beneficiaryID uuid.UUID) error {
	query := `UPDATE bookings SET beneficiary_id = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, beneficiaryID)
	if err != nil {
		r.log.Error("Failed to update booking beneficiary",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return fmt.Errorf("update beneficiary of booking %s: %w", id, translatePgError(err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update beneficiary of booking %s: %w", id, ErrNoRowsAffected)
	}

	return nil
}

func (r *bookingRepository) Cancel(ctx context.Context, id uuid.UUID, refund *entity.Settlement) error {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, query, id)
		if err != nil {
			return fmt.Errorf("cancel booking %s: %w", id, translatePgError(err))
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("cancel booking %s: %w", id, ErrNoRowsAffected)
		}

		if refund != nil {
			return insertSettlement(ctx, tx, refund)
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNoRowsAffected) {
		r.log.Error("Failed to cancel booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
	}

	return err
}
