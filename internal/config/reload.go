// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/fsnotify/fsnotify"
)

// StartWatcher starts watching the config file for changes.
// If the store has no path, this is a no-op (config comes from ENV only).
// The parent directory is watched so atomic replacements (rename over the
// file) are seen as well as in-place writes.
func (s *Store) StartWatcher(ctx context.Context) error {
	if s.path == "" {
		s.logger.Info().
			Str(xglog.FieldEvent, "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close() // Ignore close error in error path
		return fmt.Errorf("watch config dir: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.watchMu.Lock()
	s.stopLoop = cancel
	s.loopDone = done
	s.watchMu.Unlock()

	s.logger.Info().
		Str(xglog.FieldEvent, "config.watcher_started").
		Str(xglog.FieldPath, s.path).
		Msg("watching config file for changes")

	go s.watchLoop(loopCtx, watcher, done)
	return nil
}

// watchLoop is the main file watcher loop.
func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	defer func() { _ = watcher.Close() }()

	name := filepath.Clean(s.path)

	// Debounce timer to avoid multiple reloads for rapid file changes
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Str(xglog.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != name {
				continue
			}

			// Write covers in-place editors, Create/Rename cover atomic replacement.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				s.logger.Debug().
					Str(xglog.FieldEvent, "config.file_changed").
					Str("op", event.Op.String()).
					Msg("config file changed")

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(s.debounce, func() {
					if ctx.Err() != nil {
						return
					}
					if err := s.Reload(ctx); err != nil {
						s.logger.Error().
							Err(err).
							Str(xglog.FieldEvent, "config.auto_reload_failed").
							Msg("automatic config reload failed")
					}
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Stop stops the config watcher (if running) and waits for its loop to exit.
func (s *Store) Stop() {
	s.watchMu.Lock()
	cancel, done := s.stopLoop, s.loopDone
	s.stopLoop, s.loopDone = nil, nil
	s.watchMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
