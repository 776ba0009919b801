// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/hblink/internal/connectivity"
	"github.com/ManuGH/hblink/internal/link"
	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 4 << 10

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Status         string `json:"status"`
	ProducedAt     *int64 `json:"produced_at_ms"`
	Lifecycle      string `json:"lifecycle"`
	Address        string `json:"address"`
	Port           int    `json:"port"`
	RadioReachable bool   `json:"radio_reachable"`
}

// SetConfigRequest is the body of PUT /api/config/{key}.
type SetConfigRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:         link.NotConnected.String(),
		Lifecycle:      s.deps.Session.State().String(),
		Address:        s.deps.Session.Address(),
		Port:           s.deps.Session.Port(),
		RadioReachable: s.deps.Session.RadioReachable(),
	}
	if ev, ok := s.deps.Status.Current(); ok {
		resp.Status = ev.Status.String()
		producedAt := ev.ProducedAt
		resp.ProducedAt = &producedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Prefs.Prefs())
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req SetConfigRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := s.deps.Prefs.Set(r.Context(), key, req.Value); err != nil {
		logger := xglog.WithComponentFromContext(r.Context(), "api")
		logger.Warn().Err(err).Str(xglog.FieldEvent, "api.config_rejected").Str(xglog.FieldKey, key).Msg("preference update rejected")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
}

func (s *Server) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	state := chi.URLParam(r, "state")

	var err error
	switch state {
	case connectivity.Foreground.String():
		err = s.deps.Lifecycle.Foreground(r.Context())
	case connectivity.Background.String():
		err = s.deps.Lifecycle.Background(r.Context())
	default:
		writeBadRequest(w, "state must be foreground or background")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	logger := xglog.WithComponentFromContext(r.Context(), "api")
	logger.Info().Str(xglog.FieldEvent, "api.lifecycle").Str(xglog.FieldLifecycle, state).Msg("lifecycle transition applied")
	writeJSON(w, http.StatusOK, map[string]string{"lifecycle": state})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.deps.Version})
}
