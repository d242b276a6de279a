package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

var validationErrors = []error{
	core.ErrInvalidAmount, core.ErrInvalidDate, core.ErrInvalidUser, core.ErrInvalidType,
	core.ErrEmptyCategory, core.ErrEmptySource, core.ErrEmptyName, core.ErrTextTooLong,
	core.ErrInvalidEmail, core.ErrMissingPassword, auth.ErrMissingFields, errBadRequest,
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusBadRequest
		}
	}
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrUserExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err with its mapped status. Server errors are logged and
// their detail hidden.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op, log.FieldError, err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
