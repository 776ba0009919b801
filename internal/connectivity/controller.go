// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package connectivity

import (
	"context"
	"sync/atomic"

	"github.com/ManuGH/hblink/internal/link"
	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/ManuGH/hblink/internal/metrics"
	"github.com/rs/zerolog"
)

// Controller is the only component that starts, stops or reloads the
// session. Its On* methods are not safe for concurrent use; the Orchestrator
// calls them from a single goroutine. Accessors may be called from anywhere.
//
// The session runs iff the state is Foreground and the radio is reachable.
type Controller struct {
	session Session
	radio   Radio
	source  ConfigSource
	logger  zerolog.Logger

	cfg       atomic.Pointer[Config]
	state     atomic.Int32
	reachable atomic.Bool
}

// NewController creates a Controller in the Background state holding the
// current preferences of source.
func NewController(session Session, radio Radio, source ConfigSource) *Controller {
	c := &Controller{
		session: session,
		radio:   radio,
		source:  source,
		logger:  xglog.WithComponent("controller"),
	}
	cfg := LoadConfig(source)
	c.cfg.Store(&cfg)
	c.state.Store(int32(Background))
	return c
}

// OnForeground re-reads the preferences and starts the session if the radio
// is reachable. Otherwise it stops the session and publishes RadioUnavailable.
func (c *Controller) OnForeground(ctx context.Context) {
	c.setState(Foreground)

	cfg := LoadConfig(c.source)
	c.cfg.Store(&cfg)

	c.applyRadioState(ctx, cfg)
}

// OnBackground stops the session unconditionally. No status is published.
func (c *Controller) OnBackground() {
	c.setState(Background)
	c.session.Stop()
	metrics.IncSessionAction("stop")
	c.logger.Info().Str(xglog.FieldEvent, "session.stop").Str("reason", "background").Msg("session stopped")
}

// OnRadioChanged re-evaluates reachability. Outside the Foreground state the
// result is only recorded; the next OnForeground acts on it.
func (c *Controller) OnRadioChanged(ctx context.Context) {
	if c.State() != Foreground {
		ok := c.evaluateRadio(ctx)
		c.logger.Debug().
			Str(xglog.FieldEvent, "radio.changed_in_background").
			Bool(xglog.FieldReachable, ok).
			Msg("radio change ignored while in background")
		return
	}
	c.applyRadioState(ctx, c.Config())
}

// OnConfigChanged replaces the held preferences. While the radio is reachable
// the session is asked to reload; otherwise the new values are picked up by
// the next OnForeground or OnRadioChanged.
func (c *Controller) OnConfigChanged(ctx context.Context, cfg Config) {
	c.cfg.Store(&cfg)

	if !c.evaluateRadio(ctx) {
		metrics.IncConfigChange("deferred")
		c.logger.Info().
			Str(xglog.FieldEvent, "config.reload_deferred").
			Str(xglog.FieldAddress, cfg.Address).
			Int(xglog.FieldPort, cfg.Port).
			Msg("radio unreachable, config applies on next start")
		return
	}

	c.session.ReloadIfNecessary(cfg.Params())
	metrics.IncSessionAction("reload")
	metrics.IncConfigChange("applied")
	c.logger.Info().
		Str(xglog.FieldEvent, "session.reload").
		Str(xglog.FieldAddress, cfg.Address).
		Int(xglog.FieldPort, cfg.Port).
		Int("heartbeat_ms", cfg.HeartbeatIntervalMs).
		Int("timeout_ms", cfg.TimeoutMs).
		Msg("session reload requested")
}

// Config returns the current preference snapshot.
func (c *Controller) Config() Config {
	return *c.cfg.Load()
}

// Address returns the configured server address.
func (c *Controller) Address() string {
	return c.Config().Address
}

// Port returns the configured server port.
func (c *Controller) Port() int {
	return c.Config().Port
}

// SoundsEnabled reports whether connection cues are enabled.
func (c *Controller) SoundsEnabled() bool {
	return c.Config().SoundsEnabled
}

// State returns the lifecycle state.
func (c *Controller) State() LifecycleState {
	return LifecycleState(c.state.Load())
}

// RadioReachable returns the result of the last reachability evaluation.
func (c *Controller) RadioReachable() bool {
	return c.reachable.Load()
}

func (c *Controller) applyRadioState(ctx context.Context, cfg Config) {
	if c.evaluateRadio(ctx) {
		c.session.Begin(cfg.Params())
		metrics.IncSessionAction("begin")
		c.logger.Info().
			Str(xglog.FieldEvent, "session.begin").
			Str(xglog.FieldAddress, cfg.Address).
			Int(xglog.FieldPort, cfg.Port).
			Int("heartbeat_ms", cfg.HeartbeatIntervalMs).
			Int("timeout_ms", cfg.TimeoutMs).
			Msg("session start requested")
		return
	}

	c.session.Stop()
	metrics.IncSessionAction("stop")
	// The session cannot observe the radio itself, so the status is set here.
	c.session.SetConnectionStatusAndNotify(link.RadioUnavailable)
	metrics.IncSessionAction("radio_unavailable")
	c.logger.Info().
		Str(xglog.FieldEvent, "session.radio_unavailable").
		Msg("radio unreachable, session stopped")
}

// evaluateRadio queries reachability. A failing query counts as unreachable.
func (c *Controller) evaluateRadio(ctx context.Context) bool {
	ok, err := c.radio.Reachable(ctx)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "radio.query_failed").
			Msg("radio query failed, treating as unreachable")
		ok = false
	}
	if prev := c.reachable.Swap(ok); prev != ok {
		c.logger.Info().
			Str(xglog.FieldEvent, "radio.changed").
			Bool(xglog.FieldReachable, ok).
			Msg("radio reachability changed")
	}
	metrics.SetRadioReachable(ok)
	return ok
}

func (c *Controller) setState(s LifecycleState) {
	old := LifecycleState(c.state.Swap(int32(s)))
	metrics.SetLifecycleState(s.String())
	if old != s {
		c.logger.Info().
			Str(xglog.FieldEvent, "lifecycle.changed").
			Str(xglog.FieldOldState, old.String()).
			Str(xglog.FieldNewState, s.String()).
			Msg("lifecycle state changed")
	}
}
