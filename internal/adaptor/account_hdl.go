package adaptor

import (
	"encoding/json"
	"net/http"

	"cinema-ticketing/internal/dto/request"
	"cinema-ticketing/internal/usecase"
	"cinema-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AccountHandler struct {
	ledger   usecase.LedgerService
	bookings usecase.BookingService
	log      *zap.Logger
}

func NewAccountHandler(ledger usecase.LedgerService, bookings usecase.BookingService, log *zap.Logger) *AccountHandler {
	return &AccountHandler{
		ledger:   ledger,
		bookings: bookings,
		log:      log.With(zap.String("handler", "account")),
	}
}

// GetAccount handles GET /api/accounts/{id}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.ledger.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get account")
		return
	}

	utils.ResponseSuccess(w, "success", account)
}

// TopUp handles POST /api/accounts/{id}/top-up
func (h *AccountHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req request.TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if !utils.ValidateRequest(w, req) {
		return
	}

	account, err := h.ledger.TopUp(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "top up account")
		return
	}

	utils.ResponseSuccess(w, "success", account)
}

// ListBookings handles GET /api/accounts/{id}/bookings?page=&per_page=
func (h *AccountHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	req := request.PaginatedRequestFromQuery(r.URL.Query())

	if !utils.ValidateRequest(w, req) {
		return
	}

	bookings, err := h.bookings.ListAccountBookings(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list account bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}
