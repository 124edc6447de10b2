package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Sternrassler/catalog-feeder/pkg/catalog"
	"github.com/Sternrassler/catalog-feeder/pkg/feeder"
	"github.com/Sternrassler/catalog-feeder/pkg/order"
	"github.com/Sternrassler/catalog-feeder/pkg/playlist"
	"github.com/sony/gobreaker"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// APIError describes a failed request.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: APIError{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFromContext(r.Context()),
	}})
}

// classify maps a session error to its HTTP status and error code.
func classify(err error) (int, string) {
	var ce *catalog.CatalogError
	switch {
	case errors.Is(err, playlist.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND"
	case errors.Is(err, feeder.ErrNoNextSong):
		return http.StatusConflict, "END_OF_CATALOG"
	case errors.Is(err, feeder.ErrNoPreviousSong):
		return http.StatusConflict, "START_OF_CATALOG"
	case errors.Is(err, order.ErrUnknownOrder):
		return http.StatusBadRequest, "UNKNOWN_ORDER"
	case errors.Is(err, catalog.ErrRateLimited):
		return http.StatusTooManyRequests, "CATALOG_RATE_LIMITED"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "CATALOG_TIMEOUT"
	case errors.Is(err, feeder.ErrExhaustedEmptyRetry),
		errors.Is(err, feeder.ErrAlbumsUnreachable),
		errors.Is(err, catalog.ErrRetryExhausted),
		errors.As(err, &ce):
		return http.StatusBadGateway, "CATALOG_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
