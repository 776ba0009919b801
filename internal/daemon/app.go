// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/hblink/internal/config"
	"github.com/ManuGH/hblink/internal/connectivity"
	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/rs/zerolog"
)

// SessionStopper stops the heartbeat session and waits for its goroutine.
type SessionStopper interface {
	Stop()
	Wait()
}

// AppDeps are the long-lived parts of the daemon runtime.
type AppDeps struct {
	Logger       zerolog.Logger
	Manager      Manager
	Store        *config.Store
	Orchestrator *connectivity.Orchestrator
	Sequencer    *connectivity.Sequencer
	Session      SessionStopper
	// StartInBackground skips the initial foreground transition.
	StartInBackground bool
}

// App owns the runtime goroutines (config watcher, signal handlers,
// orchestrator, sequencer) and delegates the servers to Manager.
type App struct {
	deps             AppDeps
	logger           zerolog.Logger
	reloadSignal     os.Signal
	foregroundSignal os.Signal
	backgroundSignal os.Signal
}

// NewApp creates a new App.
func NewApp(deps AppDeps) *App {
	return &App{
		deps:             deps,
		logger:           deps.Logger,
		reloadSignal:     syscall.SIGHUP,
		foregroundSignal: syscall.SIGUSR1,
		backgroundSignal: syscall.SIGUSR2,
	}
}

// Run starts all owned subsystems and blocks until ctx is cancelled or a
// fatal error occurs. The heartbeat session is stopped before Run returns.
func (a *App) Run(ctx context.Context) error {
	if a.deps.Manager == nil {
		return ErrMissingManager
	}
	if a.deps.Orchestrator == nil || a.deps.Sequencer == nil {
		return ErrMissingOrchestrator
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.deps.Sequencer.Run(ctx) })
	g.Go(func() error { return a.deps.Orchestrator.Run(ctx) })

	// Config watcher is best-effort: startup should not fail if watcher cannot be started.
	if a.deps.Store != nil {
		if err := a.deps.Store.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str(xglog.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
		} else {
			a.deps.Manager.RegisterShutdownHook("config_watcher", func(context.Context) error {
				a.deps.Store.Stop()
				return nil
			})
		}
		g.Go(func() error { return a.watchReloadSignal(ctx) })
	}

	g.Go(func() error { return a.watchLifecycleSignals(ctx) })

	if !a.deps.StartInBackground {
		g.Go(func() error {
			err := a.deps.Orchestrator.Foreground(ctx)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, connectivity.ErrOrchestratorStopped) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		err := a.deps.Manager.Start(ctx)
		if err != nil {
			_ = a.deps.Manager.Shutdown(context.Background())
		}
		return err
	})

	err := g.Wait()

	if a.deps.Session != nil {
		a.deps.Session.Stop()
		a.deps.Session.Wait()
	}
	return err
}

func (a *App) watchReloadSignal(ctx context.Context) error {
	hupChan := make(chan os.Signal, 1)
	signal.Notify(hupChan, a.reloadSignal)
	defer signal.Stop(hupChan)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hupChan:
			a.logger.Info().
				Str(xglog.FieldEvent, "config.reload_signal").
				Str("signal", a.reloadSignal.String()).
				Msg("received reload signal, reloading config")

			if err := a.deps.Store.Reload(ctx); err != nil {
				a.logger.Warn().Err(err).Str(xglog.FieldEvent, "config.reload_failed").Msg("config reload failed")
			}
		}
	}
}

func (a *App) watchLifecycleSignals(ctx context.Context) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, a.foregroundSignal, a.backgroundSignal)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-sigChan:
			a.onLifecycleSignal(ctx, sig)
		}
	}
}

func (a *App) onLifecycleSignal(ctx context.Context, sig os.Signal) {
	var err error
	switch sig {
	case a.foregroundSignal:
		err = a.deps.Orchestrator.Foreground(ctx)
	case a.backgroundSignal:
		err = a.deps.Orchestrator.Background(ctx)
	default:
		return
	}
	if err != nil {
		a.logger.Warn().Err(err).Str("signal", sig.String()).Msg("lifecycle signal not applied")
		return
	}
	a.logger.Info().
		Str(xglog.FieldEvent, "lifecycle.signal").
		Str("signal", sig.String()).
		Msg("lifecycle signal applied")
}
