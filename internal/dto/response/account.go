package response

import "cinema-ticketing/internal/data/entity"

type AccountResponse struct {
	ID            string               `json:"id"`
	OwnerType     entity.OwnerType     `json:"owner_type"`
	Name          string               `json:"name"`
	Status        entity.AccountStatus `json:"status"`
	DiscountPct   float64              `json:"discount_pct"`
	Balance       float64              `json:"balance"`
	PendingDebits float64              `json:"pending_debits"`
}

func AccountToResponse(a *entity.Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID.String(),
		OwnerType:     a.OwnerType,
		Name:          a.Name,
		Status:        a.Status,
		DiscountPct:   a.DiscountPct,
		Balance:       a.Balance,
		PendingDebits: a.PendingDebits,
	}
}
