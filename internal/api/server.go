// SPDX-License-Identifier: MIT

// Package api exposes link status, preferences and lifecycle control over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/ManuGH/hblink/internal/api/middleware"
	"github.com/ManuGH/hblink/internal/connectivity"
	"github.com/ManuGH/hblink/internal/health"
	"github.com/ManuGH/hblink/internal/link"
	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// SessionView is the read side of the session controller.
type SessionView interface {
	State() connectivity.LifecycleState
	Address() string
	Port() int
	RadioReachable() bool
}

// StatusSource returns the last presented link status.
type StatusSource interface {
	Current() (link.Event, bool)
}

// LifecycleDriver submits lifecycle transitions.
type LifecycleDriver interface {
	Foreground(ctx context.Context) error
	Background(ctx context.Context) error
}

// PrefStore reads and persists preferences.
type PrefStore interface {
	Prefs() map[string]string
	Set(ctx context.Context, key, value string) error
}

// Deps are the collaborators of the API server. Health and Events are optional.
type Deps struct {
	Session   SessionView
	Status    StatusSource
	Lifecycle LifecycleDriver
	Prefs     PrefStore
	Health    *health.Manager
	Events    http.Handler
	Version   string
	// RateLimit is the number of mutating requests per minute per IP.
	RateLimit int
}

// Server routes the HTTP API.
type Server struct {
	deps   Deps
	router chi.Router
	logger zerolog.Logger
}

// New creates a Server with all routes registered.
func New(deps Deps) *Server {
	s := &Server{
		deps:   deps,
		logger: xglog.WithComponent("api"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{EnableMetrics: true, EnableLogging: true})

	if s.deps.Health != nil {
		r.Get("/healthz", s.deps.Health.ServeHealth)
		r.Get("/readyz", s.deps.Health.ServeReady)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/config", s.handleGetConfig)
		r.Get("/version", s.handleVersion)
		if s.deps.Events != nil {
			r.Handle("/ws", s.deps.Events)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.MutationRateLimit(s.deps.RateLimit))
			r.Put("/config/{key}", s.handleSetConfig)
			r.Post("/lifecycle/{state}", s.handleLifecycle)
		})
	})
	return r
}
