// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package connectivity

import (
	"context"
	"errors"
	"sync"

	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/rs/zerolog"
)

// ErrOrchestratorStopped is returned when a transition is submitted after Run returned.
var ErrOrchestratorStopped = errors.New("orchestrator stopped")

type commandKind int

const (
	cmdForeground commandKind = iota
	cmdBackground
	cmdConfig
)

type command struct {
	kind commandKind
	cfg  Config
	done chan struct{}
}

// Orchestrator serializes lifecycle, preference and radio inputs onto the
// goroutine running Run, which is the only caller of the Controller's On*
// methods. Listeners are notified after the Controller action returns.
type Orchestrator struct {
	ctrl     *Controller
	registry *Registry
	radio    RadioFeed
	logger   zerolog.Logger

	cmds       chan command
	radioDirty chan struct{}
	quit       chan struct{}
	quitOnce   sync.Once

	// owned by the Run goroutine
	radioStarted bool
}

// NewOrchestrator wires a Controller, its listener Registry and an optional radio feed.
func NewOrchestrator(ctrl *Controller, registry *Registry, radio RadioFeed) *Orchestrator {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Orchestrator{
		ctrl:       ctrl,
		registry:   registry,
		radio:      radio,
		logger:     xglog.WithComponent("orchestrator"),
		cmds:       make(chan command, 16),
		radioDirty: make(chan struct{}, 1),
		quit:       make(chan struct{}),
	}
}

// Registry returns the lifecycle listener registry.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Controller returns the session controller.
func (o *Orchestrator) Controller() *Controller {
	return o.ctrl
}

// Foreground submits a foreground transition and waits until listeners have
// been notified or ctx ends.
func (o *Orchestrator) Foreground(ctx context.Context) error {
	return o.submit(ctx, command{kind: cmdForeground})
}

// Background submits a background transition and waits until listeners have
// been notified or ctx ends.
func (o *Orchestrator) Background(ctx context.Context) error {
	return o.submit(ctx, command{kind: cmdBackground})
}

// ConfigChanged queues a new preference snapshot without waiting for it to be applied.
func (o *Orchestrator) ConfigChanged(cfg Config) {
	select {
	case o.cmds <- command{kind: cmdConfig, cfg: cfg}:
	case <-o.quit:
	}
}

// RadioChanged marks the radio state for re-evaluation. It never blocks;
// notifications that arrive before the previous one was handled collapse
// into one re-evaluation of the live state.
func (o *Orchestrator) RadioChanged() {
	select {
	case o.radioDirty <- struct{}{}:
	default:
	}
}

// Run handles submitted transitions until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer o.quitOnce.Do(func() { close(o.quit) })
	defer o.stopRadio()

	for {
		select {
		case <-ctx.Done():
			o.logger.Debug().Str(xglog.FieldEvent, "orchestrator.stopped").Msg("orchestrator stopped")
			return nil
		case cmd := <-o.cmds:
			o.handle(ctx, cmd)
		case <-o.radioDirty:
			o.ctrl.OnRadioChanged(ctx)
		}
	}
}

func (o *Orchestrator) submit(ctx context.Context, cmd command) error {
	cmd.done = make(chan struct{})
	select {
	case o.cmds <- cmd:
	case <-o.quit:
		return ErrOrchestratorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-o.quit:
		return ErrOrchestratorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) handle(ctx context.Context, cmd command) {
	if cmd.done != nil {
		defer close(cmd.done)
	}

	switch cmd.kind {
	case cmdForeground:
		// The feed takes its baseline before the controller reads the radio,
		// so a transition between the two readings still reaches OnRadioChanged.
		o.startRadio(ctx)
		o.ctrl.OnForeground(ctx)
		o.registry.NotifyForeground()
	case cmdBackground:
		o.ctrl.OnBackground()
		o.stopRadio()
		o.registry.NotifyBackground()
	case cmdConfig:
		o.ctrl.OnConfigChanged(ctx, cmd.cfg)
	}
}

// startRadio subscribes to radio changes while in the foreground.
func (o *Orchestrator) startRadio(ctx context.Context) {
	if o.radio == nil || o.radioStarted {
		return
	}
	if err := o.radio.Start(ctx, o.RadioChanged); err != nil {
		o.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "radio.watch_failed").
			Msg("radio change notifications unavailable")
		return
	}
	o.radioStarted = true
}

func (o *Orchestrator) stopRadio() {
	if o.radio == nil || !o.radioStarted {
		return
	}
	o.radio.Stop()
	o.radioStarted = false
}
