// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ManuGH/hblink/internal/api"
	"github.com/ManuGH/hblink/internal/config"
	"github.com/ManuGH/hblink/internal/connectivity"
	"github.com/ManuGH/hblink/internal/cue"
	"github.com/ManuGH/hblink/internal/daemon"
	"github.com/ManuGH/hblink/internal/health"
	"github.com/ManuGH/hblink/internal/heartbeat"
	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/ManuGH/hblink/internal/presenter"
	"github.com/ManuGH/hblink/internal/radio"
	"github.com/ManuGH/hblink/internal/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func runDaemon(parent context.Context, opts *rootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := config.Open(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	settings := store.Settings()

	xglog.Configure(xglog.Config{
		Level:   settings.Log.Level,
		Service: "hblink",
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	logger.Info().
		Str(xglog.FieldEvent, "daemon.starting").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str(xglog.FieldPath, store.Path()).
		Msg("starting hblinkd")

	if err := health.PerformStartupChecks(ctx, settings); err != nil {
		return fmt.Errorf("startup checks: %w", err)
	}

	session := heartbeat.NewSession()
	radioWatcher := radio.New(settings.Radio.Interface, settings.Radio.PollInterval)
	ctrl := connectivity.NewController(session, radioWatcher, store)

	cues := cue.NewPool(settings.Sounds.Player)
	// Loading completes in the background; Play skips cues that are not ready yet.
	cues.Load(connectivity.CueConnect, settings.Sounds.Connect)
	cues.Load(connectivity.CueDisconnect, settings.Sounds.Disconnect)

	hub := presenter.NewHub(nil)
	seq := connectivity.NewSequencer(
		presenter.Multi{presenter.NewToast(presenter.DefaultToastDuration), hub},
		cues,
		ctrl.SoundsEnabled,
	)
	session.RegisterListener(seq.OnNetworkStatus)

	registry := connectivity.NewRegistry()
	registry.Add(hub)
	orch := connectivity.NewOrchestrator(ctrl, registry, radioWatcher)

	reactor := connectivity.NewReactor(store, orch.ConfigChanged)
	unsubscribe := store.Subscribe(reactor.OnKeyChanged)
	defer unsubscribe()

	hm := health.NewManager(version.Version)
	hm.RegisterChecker(health.NewRadioChecker(ctrl))
	hm.RegisterChecker(health.NewLinkChecker(seq.Current))
	if store.Path() != "" {
		hm.RegisterChecker(health.NewFileChecker("config_file", store.Path()))
	}

	apiServer := api.New(api.Deps{
		Session:   ctrl,
		Status:    seq,
		Lifecycle: orch,
		Prefs:     store,
		Health:    hm,
		Events:    hub,
		Version:   version.Version,
		RateLimit: settings.API.RateLimit,
	})

	mgr, err := daemon.NewManager(config.ParseServerConfig(settings), daemon.Deps{
		Logger:         logger,
		APIHandler:     apiServer.Handler(),
		MetricsHandler: promhttp.Handler(),
		MetricsAddr:    settings.Metrics.ListenAddr,
	})
	if err != nil {
		return fmt.Errorf("create daemon manager: %w", err)
	}
	mgr.RegisterShutdownHook("ws_hub", func(context.Context) error {
		hub.Close()
		return nil
	})
	mgr.RegisterShutdownHook("cues", func(context.Context) error {
		cues.Wait()
		return nil
	})

	app := daemon.NewApp(daemon.AppDeps{
		Logger:            logger,
		Manager:           mgr,
		Store:             store,
		Orchestrator:      orch,
		Sequencer:         seq,
		Session:           session,
		StartInBackground: opts.background,
	})
	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "daemon.failed").Msg("daemon stopped with error")
		return err
	}

	logger.Info().Str(xglog.FieldEvent, "daemon.stopped").Msg("hblinkd stopped")
	return nil
}
