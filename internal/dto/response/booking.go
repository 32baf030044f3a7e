package response

import (
	"time"

	"cinema-ticketing/internal/data/entity"
)

type BookingResponse struct {
	ID               string               `json:"id"`
	SeatLabel        string               `json:"seat_label"`
	ShowingID        string               `json:"showing_id"`
	AccountID        string               `json:"account_id"`
	PersonCategoryID string               `json:"person_category_id"`
	BeneficiaryID    string               `json:"beneficiary_id"`
	Amount           float64              `json:"amount"`
	SerialNo         string               `json:"serial_no"`
	BatchRef         string               `json:"batch_ref"`
	CashSettled      bool                 `json:"cash_settled"`
	Status           entity.BookingStatus `json:"status"`
	CreatedAt        time.Time            `json:"created_at"`
}

type BatchBookingResponse struct {
	BatchRef    string            `json:"batch_ref"`
	Total       float64           `json:"total"`
	CashSettled bool              `json:"cash_settled"`
	Bookings    []BookingResponse `json:"bookings"`
}

type BatchSummaryResponse struct {
	BatchRef       string    `json:"batch_ref"`
	AccountID      string    `json:"account_id"`
	FirstCreatedAt time.Time `json:"first_created_at"`
	Count          int       `json:"count"`
	Total          float64   `json:"total"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID.String(),
		SeatLabel:        b.SeatLabel,
		ShowingID:        b.ShowingID.String(),
		AccountID:        b.AccountID.String(),
		PersonCategoryID: b.PersonCategoryID.String(),
		BeneficiaryID:    b.BeneficiaryID.String(),
		Amount:           b.Amount,
		SerialNo:         b.SerialNo,
		BatchRef:         b.BatchRef,
		CashSettled:      b.CashSettled,
		Status:           b.Status,
		CreatedAt:        b.CreatedAt,
	}
}

func BatchSummaryToResponse(s *entity.BatchSummary) BatchSummaryResponse {
	return BatchSummaryResponse{
		BatchRef:       s.BatchRef,
		AccountID:      s.AccountID.String(),
		FirstCreatedAt: s.FirstCreatedAt,
		Count:          s.Count,
		Total:          s.Total,
	}
}
