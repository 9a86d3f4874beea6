// Package httputil provides the JSON response helpers shared by handlers and
// middleware.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/novachain/admin-backend/internal/errors"
)

type errorEnvelope struct {
	Error *errors.ServiceError `json:"error"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// WriteError writes err as the canonical error envelope. Non-service errors
// are masked as internal errors so internals never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Internal("internal server error", err)
	}
	WriteJSON(w, serviceErr.HTTPStatus, errorEnvelope{Error: serviceErr})
}
