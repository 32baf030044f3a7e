package request

type TopUpRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}
