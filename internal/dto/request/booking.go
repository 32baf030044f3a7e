package request

type CreateBookingRequest struct {
	AccountID        string `json:"account_id" validate:"required,uuid"`
	ShowingID        string `json:"showing_id" validate:"required,uuid"`
	SeatLabel        string `json:"seat_label" validate:"required,seatlabel"`
	PersonCategoryID string `json:"person_category_id" validate:"required,uuid"`
	BeneficiaryID    string `json:"beneficiary_id" validate:"required,uuid"`
	CashSettled      bool   `json:"cash_settled"`
}

type BatchSeatRequest struct {
	SeatLabel        string `json:"seat_label" validate:"required,seatlabel"`
	PersonCategoryID string `json:"person_category_id" validate:"required,uuid"`
	BeneficiaryID    string `json:"beneficiary_id" validate:"required,uuid"`
}

type CreateBatchBookingRequest struct {
	AccountID   string             `json:"account_id" validate:"required,uuid"`
	ShowingID   string             `json:"showing_id" validate:"required,uuid"`
	ClubID      *string            `json:"club_id,omitempty" validate:"omitempty,uuid"`
	Seats       []BatchSeatRequest `json:"seats" validate:"required,min=1,dive"`
	CashSettled bool               `json:"cash_settled"`
}

type ReassignBeneficiaryRequest struct {
	BeneficiaryID string `json:"beneficiary_id" validate:"required,uuid"`
}
