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

type ShowingHandler struct {
	schedule usecase.ScheduleService
	bookings usecase.BookingService
	log      *zap.Logger
}

func NewShowingHandler(schedule usecase.ScheduleService, bookings usecase.BookingService, log *zap.Logger) *ShowingHandler {
	return &ShowingHandler{
		schedule: schedule,
		bookings: bookings,
		log:      log.With(zap.String("handler", "showing")),
	}
}

// CreateShowing handles POST /api/showings
func (h *ShowingHandler) CreateShowing(w http.ResponseWriter, r *http.Request) {
	var req request.CreateShowingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if !utils.ValidateRequest(w, req) {
		return
	}

	showing, err := h.schedule.CreateShowing(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create showing")
		return
	}

	utils.ResponseCreated(w, "success", showing)
}

// GetShowing handles GET /api/showings/{id}
func (h *ShowingHandler) GetShowing(w http.ResponseWriter, r *http.Request) {
	showing, err := h.schedule.GetShowing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get showing")
		return
	}

	utils.ResponseSuccess(w, "success", showing)
}

// UpdateShowing handles PATCH /api/showings/{id}
func (h *ShowingHandler) UpdateShowing(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateShowingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if !utils.ValidateRequest(w, req) {
		return
	}

	showing, err := h.schedule.UpdateShowing(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update showing")
		return
	}

	utils.ResponseSuccess(w, "success", showing)
}

// ListBatches handles GET /api/showings/{id}/batches
func (h *ShowingHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.bookings.ListShowingBatches(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "list showing batches")
		return
	}

	utils.ResponseSuccess(w, "success", batches)
}
