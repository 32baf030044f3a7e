package entity

import "github.com/google/uuid"

// BalanceFloor is the lowest balance an account may reach.
const BalanceFloor = -100.0

type OwnerType string

const (
	OwnerTypeIndividual OwnerType = "individual"
	OwnerTypeGroup      OwnerType = "group"
)

type AccountStatus string

const (
	AccountStatusEnabled  AccountStatus = "enabled"
	AccountStatusDisabled AccountStatus = "disabled"
	AccountStatusPending  AccountStatus = "pending"
	AccountStatusRejected AccountStatus = "rejected"
)

type Account struct {
	Record
	OwnerType   OwnerType     `db:"owner_type"`
	OwnerID     uuid.UUID     `db:"owner_id"`
	Name        string        `db:"name"`
	Status      AccountStatus `db:"status"`
	DiscountPct float64       `db:"discount_pct"`
	Balance     float64       `db:"balance"`

	// PendingDebits sums debit settlements not yet applied to Balance.
	PendingDebits float64 `db:"pending_debits"`
}

func (a *Account) IsGroup() bool {
	return a.OwnerType == OwnerTypeGroup
}

// Available is the balance once every pending debit lands.
func (a *Account) Available() float64 {
	return a.Balance - a.PendingDebits
}

// EffectiveDiscount is the account-level discount; only group accounts carry one.
func (a *Account) EffectiveDiscount() float64 {
	if !a.IsGroup() {
		return 0
	}
	return a.DiscountPct
}
