// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/hblink/internal/config"
	"github.com/ManuGH/hblink/internal/connectivity"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes {"error": ...}.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, config.ErrUnknownKey):
		return http.StatusNotFound
	case errors.Is(err, config.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, config.ErrNoConfigPath):
		return http.StatusConflict
	case errors.Is(err, connectivity.ErrOrchestratorStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
