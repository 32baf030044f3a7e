package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	Record
	SeatLabel        string        `db:"seat_label"`
	ShowingID        uuid.UUID     `db:"showing_id"`
	AccountID        uuid.UUID     `db:"account_id"`
	PersonCategoryID uuid.UUID     `db:"person_category_id"`
	BeneficiaryID    uuid.UUID     `db:"beneficiary_id"`
	Amount           float64       `db:"amount"`
	SerialNo         string        `db:"serial_no"`
	BatchRef         string        `db:"batch_ref"`
	CashSettled      bool          `db:"cash_settled"`
	Status           BookingStatus `db:"status"`
}

// BatchSummary aggregates the bookings sharing one batch reference.
type BatchSummary struct {
	BatchRef       string
	AccountID      uuid.UUID
	FirstCreatedAt time.Time
	Count          int
	Total          float64
}
