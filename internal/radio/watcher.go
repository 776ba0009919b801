// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package radio reports whether the link interface is attached to a network.
package radio

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/rs/zerolog"
	psnet "github.com/shirou/gopsutil/v3/net"
)

var (
	// ErrInterfaceNotFound is returned when the configured interface does not exist.
	ErrInterfaceNotFound = errors.New("radio: interface not found")
	// ErrAlreadyStarted is returned by Start while a poll loop is running.
	ErrAlreadyStarted = errors.New("radio: watcher already started")
)

const defaultPollInterval = 2 * time.Second

// Lister enumerates network interfaces.
type Lister func(ctx context.Context) (psnet.InterfaceStatList, error)

// Watcher answers reachability queries and, while started, polls the
// interface table and reports every reachability transition.
type Watcher struct {
	iface  string
	poll   time.Duration
	list   Lister
	logger zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLister replaces the gopsutil interface lister.
func WithLister(l Lister) Option {
	return func(w *Watcher) { w.list = l }
}

// New creates a Watcher for the named interface. An empty name accepts any
// non-loopback interface. poll <= 0 selects the default interval.
func New(iface string, poll time.Duration, opts ...Option) *Watcher {
	if poll <= 0 {
		poll = defaultPollInterval
	}
	w := &Watcher{
		iface:  iface,
		poll:   poll,
		list:   psnet.InterfacesWithContext,
		logger: xglog.WithComponent("radio"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Reachable reports whether the interface is up and holds an address.
func (w *Watcher) Reachable(ctx context.Context) (bool, error) {
	ifaces, err := w.list(ctx)
	if err != nil {
		return false, fmt.Errorf("list interfaces: %w", err)
	}

	if w.iface != "" {
		for _, ifc := range ifaces {
			if ifc.Name == w.iface {
				return attached(ifc), nil
			}
		}
		return false, fmt.Errorf("%w: %s", ErrInterfaceNotFound, w.iface)
	}

	for _, ifc := range ifaces {
		if hasFlag(ifc, "loopback") {
			continue
		}
		if attached(ifc) {
			return true, nil
		}
	}
	return false, nil
}

// Start begins polling. onChange is called from the poll goroutine on every
// transition between reachable and unreachable.
func (w *Watcher) Start(ctx context.Context, onChange func()) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	last := w.state(ctx)
	go w.loop(ctx, last, onChange, w.done)

	w.logger.Debug().
		Str(xglog.FieldEvent, "radio.watch_started").
		Str(xglog.FieldInterface, w.iface).
		Dur("poll", w.poll).
		Bool(xglog.FieldReachable, last).
		Msg("radio watcher started")
	return nil
}

// Stop ends polling and waits for the poll goroutine. It is idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.logger.Debug().Str(xglog.FieldEvent, "radio.watch_stopped").Msg("radio watcher stopped")
}

func (w *Watcher) loop(ctx context.Context, last bool, onChange func(), done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := w.state(ctx)
			if cur == last {
				continue
			}
			last = cur
			w.logger.Info().
				Str(xglog.FieldEvent, "radio.transition").
				Str(xglog.FieldInterface, w.iface).
				Bool(xglog.FieldReachable, cur).
				Msg("radio state changed")
			onChange()
		}
	}
}

func (w *Watcher) state(ctx context.Context) bool {
	ok, err := w.Reachable(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Debug().Err(err).Str(xglog.FieldEvent, "radio.poll_failed").Msg("radio poll failed")
		}
		return false
	}
	return ok
}

func attached(ifc psnet.InterfaceStat) bool {
	return hasFlag(ifc, "up") && len(ifc.Addrs) > 0
}

func hasFlag(ifc psnet.InterfaceStat, flag string) bool {
	return slices.Contains(ifc.Flags, flag)
}
