package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/efreitasn/simtrade/internal/domain"
)

// WriteJSON writes a JSON response with the given status code and data.
// Sets Content-Type to application/json before writing the status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // Write error intentionally ignored in response helper
}

// errorResponse is the standard error response format.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standard error response with the given status code,
// error code, and human-readable message.
func WriteError(w http.ResponseWriter, status int, errorCode, message string) {
	WriteJSON(w, status, errorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// ParseJSON decodes the request body as JSON into v.
// It validates that the Content-Type header is application/json and
// returns an error for missing/incorrect content type or malformed JSON.
func ParseJSON(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	return nil
}

// WriteServiceError maps service and domain errors to HTTP responses. The
// error code is the sentinel's text.
func WriteServiceError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrReportNotFound),
		errors.Is(err, domain.ErrWebhookNotFound):
		WriteError(w, http.StatusNotFound, sentinelCode(err), err.Error())
	case errors.Is(err, domain.ErrAccountAlreadyExists),
		errors.Is(err, domain.ErrDuplicateOrderID):
		WriteError(w, http.StatusConflict, sentinelCode(err), err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		WriteError(w, http.StatusUnprocessableEntity, sentinelCode(err), err.Error())
	case errors.Is(err, domain.ErrUnknownCommand):
		WriteError(w, http.StatusBadRequest, sentinelCode(err), err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

var sentinels = []error{
	domain.ErrAccountNotFound,
	domain.ErrOrderNotFound,
	domain.ErrReportNotFound,
	domain.ErrWebhookNotFound,
	domain.ErrAccountAlreadyExists,
	domain.ErrDuplicateOrderID,
	domain.ErrInsufficientFunds,
	domain.ErrUnknownCommand,
}

// sentinelCode returns the text of the sentinel err wraps.
func sentinelCode(err error) string {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal_error"
}
