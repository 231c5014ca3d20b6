// Package respond writes JSON responses and maps service errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/errs"
	"github.com/corray333/backend-labs/fooddelivery/pkg/logger"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type messageBody struct {
	Message string `json:"message"`
}

// StatusOf returns the HTTP status for the kind of err.
func StatusOf(err error) int {
	switch errs.KindOf(err) {
	case errs.NotFound:
		return http.StatusNotFound
	case errs.InvalidArgument, errs.InvalidStatus, errs.InvalidCancellation:
		return http.StatusBadRequest
	case errs.Conflict:
		return http.StatusConflict
	case errs.Unauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error sending response", "error", err)
	}
}

// Message writes {"message": msg} with 200.
func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, messageBody{Message: msg})
}

// Error writes err with the status of its kind.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	ErrorWithStatus(w, r, StatusOf(err), err)
}

// ErrorWithStatus writes err with an explicit status. Unexpected failures are
// logged and their details withheld from the client.
func ErrorWithStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	kind := errs.KindOf(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "route", logger.RoutePattern(r), "error", err)
	}

	JSON(w, status, errorBody{Kind: kind.String(), Message: errs.MessageOf(err)})
}

// BadRequest writes an INVALID_ARGUMENT error for a malformed request.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	Error(w, r, errs.E(errs.InvalidArgument, msg))
}
