// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package cue plays the short connect and disconnect sounds.
package cue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/ManuGH/hblink/internal/metrics"
	"github.com/ManuGH/hblink/internal/procgroup"
	"github.com/rs/zerolog"
)

// ErrNotAFile is returned by Load when the asset path is not a regular file.
var ErrNotAFile = errors.New("cue asset is not a regular file")

const (
	playTimeout = 10 * time.Second
	playerGrace = 500 * time.Millisecond
)

// Runner executes the external player.
type Runner func(ctx context.Context, player string, args ...string) error

func execRunner(ctx context.Context, player string, args ...string) error {
	return procgroup.Run(ctx, exec.Command(player, args...), playerGrace)
}

type asset struct {
	path   string
	size   int64
	err    error
	loaded chan struct{}
}

// Pool holds the loaded cue assets and plays them asynchronously.
type Pool struct {
	player string
	bell   io.Writer
	bellMu sync.Mutex
	run    Runner
	logger zerolog.Logger

	mu     sync.Mutex
	assets map[string]*asset
	wg     sync.WaitGroup
}

// Option configures a Pool.
type Option func(*Pool)

// WithBell sets the writer that receives the terminal bell.
func WithBell(w io.Writer) Option {
	return func(p *Pool) { p.bell = w }
}

// WithRunner replaces the os/exec based player runner.
func WithRunner(r Runner) Option {
	return func(p *Pool) { p.run = r }
}

// NewPool creates a Pool. With an empty player, cues ring the terminal bell.
func NewPool(player string, opts ...Option) *Pool {
	p := &Pool{
		player: player,
		bell:   os.Stdout,
		run:    execRunner,
		logger: xglog.WithComponent("cue"),
		assets: make(map[string]*asset),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load reads the asset at path in the background. The returned channel
// receives the load result and is then closed. An empty path registers a
// bell-only cue.
func (p *Pool) Load(name, path string) <-chan error {
	a := &asset{path: path, loaded: make(chan struct{})}
	p.mu.Lock()
	p.assets[name] = a
	p.mu.Unlock()

	result := make(chan error, 1)
	go func() {
		defer close(result)
		if path != "" {
			a.size, a.err = statAsset(path)
			if a.err != nil {
				a.err = fmt.Errorf("load cue %s: %w", name, a.err)
			}
		}
		close(a.loaded)

		if a.err != nil {
			p.logger.Warn().Err(a.err).Str(xglog.FieldEvent, "cue.load_failed").Str(xglog.FieldPath, path).Msg("cue unavailable")
		} else {
			p.logger.Debug().Str(xglog.FieldEvent, "cue.loaded").Str("cue", name).Int64("bytes", a.size).Msg("cue loaded")
		}
		result <- a.err
	}()
	return result
}

// statAsset checks that path is a regular file and returns its size.
func statAsset(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%s: %w", path, ErrNotAFile)
	}
	return info.Size(), nil
}

// Loaded reports whether name finished loading without error.
func (p *Pool) Loaded(name string) bool {
	a := p.lookup(name)
	if a == nil {
		return false
	}
	select {
	case <-a.loaded:
		return a.err == nil
	default:
		return false
	}
}

// Play starts the cue and returns immediately. Cues that are unknown, still
// loading or failed to load are skipped.
func (p *Pool) Play(name string) {
	if !p.Loaded(name) {
		metrics.IncCuePlay(name, "not_loaded")
		p.logger.Debug().Str(xglog.FieldEvent, "cue.skipped").Str("cue", name).Msg("cue not loaded")
		return
	}
	a := p.lookup(name)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.play(a); err != nil {
			metrics.IncCuePlay(name, "error")
			p.logger.Warn().Err(err).Str(xglog.FieldEvent, "cue.play_failed").Str("cue", name).Msg("cue playback failed")
			return
		}
		metrics.IncCuePlay(name, "played")
	}()
}

// Wait blocks until every started playback has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) play(a *asset) error {
	if p.player != "" && a.path != "" {
		ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
		defer cancel()
		return p.run(ctx, p.player, a.path)
	}
	p.bellMu.Lock()
	defer p.bellMu.Unlock()
	_, err := io.WriteString(p.bell, "\a")
	return err
}

func (p *Pool) lookup(name string) *asset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assets[name]
}
