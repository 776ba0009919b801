// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package heartbeat implements the UDP heartbeat session and a matching
// echo responder.
package heartbeat

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/hblink/internal/link"
	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/ManuGH/hblink/internal/metrics"
	"github.com/rs/zerolog"
)

// Session sends heartbeats to the server and turns echoes, or their absence,
// into status pushes. All control methods return immediately; socket work
// happens on the session goroutine.
type Session struct {
	dial   dialFunc
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	params  link.Params
	cancel  context.CancelFunc
	done    chan struct{}

	listenersMu sync.RWMutex
	listeners   []link.StatusFunc

	status atomic.Int32
}

type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// NewSession creates a stopped session with status NotConnected.
func NewSession() *Session {
	s := &Session{
		dial:   (&net.Dialer{}).DialContext,
		logger: xglog.WithComponent("heartbeat"),
	}
	s.status.Store(int32(link.NotConnected))
	return s
}

// RegisterListener adds fn to the receivers of status pushes.
func (s *Session) RegisterListener(fn link.StatusFunc) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Begin starts the session with p, restarting it if it runs with other params.
func (s *Session) Begin(p link.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running && s.params == p {
		s.logger.Debug().Str(xglog.FieldEvent, "heartbeat.begin_noop").Stringer("params", p).Msg("session already running")
		return
	}
	s.stopLocked()
	s.startLocked(p)
}

// Stop ends the session. It is idempotent and does not wait for the socket
// to close.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// ReloadIfNecessary restarts a running session whose params differ from p.
func (s *Session) ReloadIfNecessary(p link.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.params == p {
		return
	}
	s.logger.Info().
		Str(xglog.FieldEvent, "heartbeat.reload").
		Stringer("old", s.params).
		Stringer("new", p).
		Msg("restarting session with new parameters")
	s.stopLocked()
	s.startLocked(p)
}

// SetConnectionStatusAndNotify records status and pushes it with the current time.
func (s *Session) SetConnectionStatusAndNotify(status link.Status) {
	s.publish(status)
}

// Status returns the last status pushed by the session.
func (s *Session) Status() link.Status {
	return link.Status(s.status.Load())
}

// Running reports whether the session goroutine is active. A session whose
// socket could not be opened is not running.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wait blocks until the current session goroutine, if any, has exited.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Session) startLocked(p link.Params) {
	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.params = p
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, p, s.done)
	s.logger.Info().
		Str(xglog.FieldEvent, "heartbeat.started").
		Str(xglog.FieldAddress, p.Address).
		Int(xglog.FieldPort, p.Port).
		Msg("heartbeat session started")
}

func (s *Session) stopLocked() {
	if !s.running {
		return
	}
	s.cancel()
	s.running = false
	s.logger.Info().Str(xglog.FieldEvent, "heartbeat.stopped").Msg("heartbeat session stopped")
}

func (s *Session) publish(status link.Status) {
	s.status.Store(int32(status))
	producedAt := link.NowMillis()

	s.listenersMu.RLock()
	listeners := append([]link.StatusFunc(nil), s.listeners...)
	s.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(status, producedAt)
	}
}

// publishCurrent pushes status only while done belongs to the running
// session, so a stopped session cannot override a later status.
func (s *Session) publishCurrent(done chan struct{}, status link.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.done != done {
		return
	}
	s.publish(status)
}

// abortCurrent marks the session identified by done as stopped and pushes
// status, so the next Begin with the same params starts it again.
func (s *Session) abortCurrent(done chan struct{}, status link.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.done != done {
		return
	}
	s.cancel()
	s.running = false
	s.publish(status)
}

func (s *Session) run(ctx context.Context, p link.Params, done chan struct{}) {
	defer close(done)

	conn, err := s.dial(ctx, "udp", p.HostPort())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn().Err(err).Str(xglog.FieldEvent, "heartbeat.dial_failed").Str(xglog.FieldAddress, p.HostPort()).Msg("cannot open heartbeat socket")
			s.abortCurrent(done, link.NotConnected)
		}
		return
	}

	echoes := make(chan uint32, 8)
	readerDone := make(chan struct{})
	go s.read(conn, echoes, readerDone)
	defer func() {
		_ = conn.Close()
		<-readerDone
	}()

	ticker := time.NewTicker(p.Heartbeat)
	defer ticker.Stop()
	deadline := time.NewTimer(p.Timeout)
	defer deadline.Stop()

	var seq uint32
	connected := false
	lostReported := false

	send := func() {
		seq++
		if _, err := conn.Write(Encode(seq)); err != nil {
			s.logger.Debug().Err(err).Str(xglog.FieldEvent, "heartbeat.send_failed").Msg("heartbeat send failed")
			return
		}
		metrics.IncHeartbeat("sent")
	}
	send()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			send()
		case n := <-echoes:
			metrics.IncHeartbeat("received")
			deadline.Reset(p.Timeout)
			if !connected {
				connected = true
				lostReported = false
				s.logger.Info().Str(xglog.FieldEvent, "heartbeat.connected").Uint32("seq", n).Msg("server responding")
				s.publishCurrent(done, link.Connected)
			}
		case <-deadline.C:
			metrics.IncHeartbeat("timeout")
			if connected || !lostReported {
				connected = false
				lostReported = true
				s.logger.Info().Str(xglog.FieldEvent, "heartbeat.timeout").Dur("timeout", p.Timeout).Msg("no server response")
				s.publishCurrent(done, link.NotConnected)
			}
			deadline.Reset(p.Timeout)
		}
	}
}

func (s *Session) read(conn net.Conn, echoes chan<- uint32, done chan struct{}) {
	defer close(done)

	buf := make([]byte, 64)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// ICMP port unreachable surfaces as a read error on connected UDP sockets.
			time.Sleep(10 * time.Millisecond)
			continue
		}
		seq, err := Decode(buf[:n])
		if err != nil {
			continue
		}
		select {
		case echoes <- seq:
		default:
		}
	}
}
