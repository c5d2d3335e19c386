package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"upscaled/internal/imaging"
	"upscaled/internal/manager"
	"upscaled/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps orchestration errors to HTTP status codes.
func statusFor(err error) int {
	var he HTTPError
	switch {
	case imaging.IsInvalidImage(err), imaging.IsInvalidDimensions(err):
		return http.StatusBadRequest
	case manager.IsTooBusy(err):
		return http.StatusTooManyRequests
	case manager.IsEngineInit(err), manager.IsDependencyUnavailable(err):
		return http.StatusServiceUnavailable
	case errors.As(err, &he):
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
