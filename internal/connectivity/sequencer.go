// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package connectivity

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/hblink/internal/link"
	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/ManuGH/hblink/internal/metrics"
	"github.com/rs/zerolog"
)

const defaultSequencerQueue = 64

// Sequencer delivers status pushes to a Presenter in production order.
//
// OnNetworkStatus may be called from any goroutine. Events are queued to the
// goroutine running Run, which presents an event only when its ProducedAt is
// strictly greater than every event presented before; anything else is
// dropped. The previous notification is cancelled before a new one is shown.
type Sequencer struct {
	presenter Presenter
	cues      CuePlayer
	sounds    func() bool
	logger    zerolog.Logger

	events   chan link.Event
	quit     chan struct{}
	quitOnce sync.Once

	// owned by the Run goroutine
	lastAccepted int64
	pending      Notification

	current atomic.Pointer[link.Event]
}

// SequencerOption configures a Sequencer.
type SequencerOption func(*Sequencer)

// WithQueueSize overrides the event queue capacity.
func WithQueueSize(n int) SequencerOption {
	return func(s *Sequencer) {
		if n > 0 {
			s.events = make(chan link.Event, n)
		}
	}
}

// NewSequencer creates a Sequencer. cues and sounds may be nil, which
// disables audio cues.
func NewSequencer(presenter Presenter, cues CuePlayer, sounds func() bool, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		presenter:    presenter,
		cues:         cues,
		sounds:       sounds,
		logger:       xglog.WithComponent("sequencer"),
		events:       make(chan link.Event, defaultSequencerQueue),
		quit:         make(chan struct{}),
		lastAccepted: math.MinInt64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnNetworkStatus receives a status push. It matches link.StatusFunc.
//
// The audio cue is decided here, at receipt, and is not subject to the
// staleness check: a stale CONNECTED or NOT_CONNECTED push still plays its
// cue although its visual update is dropped.
func (s *Sequencer) OnNetworkStatus(status link.Status, producedAt int64) {
	s.playCue(status)

	select {
	case s.events <- link.Event{Status: status, ProducedAt: producedAt}:
	case <-s.quit:
	}
}

// Run consumes queued events until ctx is cancelled. It must be called once.
func (s *Sequencer) Run(ctx context.Context) error {
	defer s.quitOnce.Do(func() { close(s.quit) })

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Str(xglog.FieldEvent, "sequencer.stopped").Msg("sequencer stopped")
			return nil
		case ev := <-s.events:
			s.deliver(ev)
		}
	}
}

// Current returns the last presented event.
func (s *Sequencer) Current() (link.Event, bool) {
	ev := s.current.Load()
	if ev == nil {
		return link.Event{}, false
	}
	return *ev, true
}

func (s *Sequencer) deliver(ev link.Event) {
	if ev.ProducedAt <= s.lastAccepted {
		metrics.IncEvent("stale")
		s.logger.Debug().
			Str(xglog.FieldEvent, "sequencer.stale_drop").
			Stringer(xglog.FieldStatus, ev.Status).
			Int64(xglog.FieldProducedAt, ev.ProducedAt).
			Int64(xglog.FieldLastAccepted, s.lastAccepted).
			Msg("dropped out-of-order status")
		return
	}
	s.lastAccepted = ev.ProducedAt

	if s.pending != nil {
		s.pending.Cancel()
		s.pending = nil
	}
	if s.presenter != nil {
		s.pending = s.presenter.Show(ev)
	}

	accepted := ev
	s.current.Store(&accepted)
	metrics.IncEvent("accepted")
	metrics.SetLinkStatus(ev.Status.String())
	s.logger.Info().
		Str(xglog.FieldEvent, "sequencer.accepted").
		Stringer(xglog.FieldStatus, ev.Status).
		Int64(xglog.FieldProducedAt, ev.ProducedAt).
		Msg("link status")
}

func (s *Sequencer) playCue(status link.Status) {
	if s.cues == nil || s.sounds == nil || !s.sounds() {
		return
	}
	switch status {
	case link.Connected:
		s.cues.Play(CueConnect)
	case link.NotConnected:
		s.cues.Play(CueDisconnect)
	}
}
