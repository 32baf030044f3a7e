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

type SeatLockHandler struct {
	service usecase.SeatLockService
	log     *zap.Logger
}

func NewSeatLockHandler(service usecase.SeatLockService, log *zap.Logger) *SeatLockHandler {
	return &SeatLockHandler{
		service: service,
		log:     log.With(zap.String("handler", "seat_lock")),
	}
}

// AcquireSeatLock handles POST /api/showings/{id}/seat-locks
// The session user becomes the lock holder.
func (h *SeatLockHandler) AcquireSeatLock(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req request.AcquireSeatLockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if !utils.ValidateRequest(w, req) {
		return
	}

	lock, err := h.service.Acquire(r.Context(), userID, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "acquire seat lock")
		return
	}

	utils.ResponseCreated(w, "success", lock)
}

// ReleaseSeatLock handles DELETE /api/seat-locks/{id}
func (h *SeatLockHandler) ReleaseSeatLock(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Release(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "release seat lock")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}
