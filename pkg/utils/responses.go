package utils

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope of every API reply. Code carries a stable error
// kind (SEAT_ALREADY_BOOKED, INSUFFICIENT_FUNDS, ...) on failures.
type Response struct {
	Status  bool   `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func ResponseSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, Response{Status: true, Message: message, Data: data})
}

func ResponseCreated(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, Response{Status: true, Message: message, Data: data})
}

// Error codes set outside the usecase error table.
const (
	CodeValidation        = "VALIDATION"
	CodeInvalidSeatFormat = "INVALID_SEAT_FORMAT"
)

// ResponseError writes a failed reply. data is optional context such as the
// conflicting showing of a schedule clash; errors holds per-field faults.
func ResponseError(w http.ResponseWriter, status int, code, message string, data, errors any) {
	writeJSON(w, status, Response{Code: code, Message: message, Data: data, Errors: errors})
}

func ResponseBadRequest(w http.ResponseWriter, message string, errors any) {
	ResponseError(w, http.StatusBadRequest, CodeValidation, message, nil, errors)
}

func ResponseUnauthorized(w http.ResponseWriter, message string) {
	ResponseError(w, http.StatusUnauthorized, "UNAUTHORIZED", message, nil, nil)
}

func ResponseInternalError(w http.ResponseWriter, message string) {
	ResponseError(w, http.StatusInternalServerError, "INTERNAL", message, nil, nil)
}

func ResponseServiceUnavailable(w http.ResponseWriter, message string) {
	ResponseError(w, http.StatusServiceUnavailable, "UNAVAILABLE", message, nil, nil)
}
