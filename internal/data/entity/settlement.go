package entity

import (
	"time"

	"github.com/google/uuid"
)

type SettlementKind string

const (
	SettlementKindDebit  SettlementKind = "debit"
	SettlementKindCredit SettlementKind = "credit"
)

type SettlementStatus string

const (
	SettlementStatusPending SettlementStatus = "pending"
	SettlementStatusSettled SettlementStatus = "settled"
	SettlementStatusFailed  SettlementStatus = "failed"
)

// Settlement is an outbox row: a balance change written in the same
// transaction as the bookings it pays for, applied later by the worker.
type Settlement struct {
	AppendOnly
	AccountID uuid.UUID        `db:"account_id"`
	Kind      SettlementKind   `db:"kind"`
	Amount    float64          `db:"amount"`
	Reference string           `db:"reference"`
	Status    SettlementStatus `db:"status"`
	Attempts  int              `db:"attempts"`
	LastError *string          `db:"last_error"`
	SettledAt *time.Time       `db:"settled_at"`
}

// SignedAmount is the balance delta the settlement applies.
func (s *Settlement) SignedAmount() float64 {
	if s.Kind == SettlementKindDebit {
		return -s.Amount
	}
	return s.Amount
}
