// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package presenter contains the presentation sinks for accepted link
// status: a log toast, a websocket hub and a fan-out.
package presenter

import (
	"sync"
	"time"

	"github.com/ManuGH/hblink/internal/connectivity"
	"github.com/ManuGH/hblink/internal/link"
	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/rs/zerolog"
)

// DefaultToastDuration is how long a toast stays visible.
const DefaultToastDuration = 2 * time.Second

// Toast shows each status as a short-lived log line.
type Toast struct {
	duration time.Duration
	logger   zerolog.Logger
}

// NewToast creates a Toast. d <= 0 selects DefaultToastDuration.
func NewToast(d time.Duration) *Toast {
	if d <= 0 {
		d = DefaultToastDuration
	}
	return &Toast{duration: d, logger: xglog.WithComponent("toast")}
}

// Show logs ev and schedules its expiry.
func (t *Toast) Show(ev link.Event) connectivity.Notification {
	t.logger.Info().
		Str(xglog.FieldEvent, "toast.shown").
		Stringer(xglog.FieldStatus, ev.Status).
		Int64(xglog.FieldProducedAt, ev.ProducedAt).
		Msg(statusText(ev.Status))

	n := &ToastNotification{ev: ev, logger: t.logger, done: make(chan struct{})}
	n.timer = time.AfterFunc(t.duration, func() { n.finish("expired") })
	return n
}

// ToastNotification is a visible toast.
type ToastNotification struct {
	ev     link.Event
	logger zerolog.Logger
	timer  *time.Timer
	once   sync.Once
	done   chan struct{}
	reason string
}

// Cancel withdraws the toast if it is still visible.
func (n *ToastNotification) Cancel() {
	n.timer.Stop()
	n.finish("cancelled")
}

// Done is closed once the toast expired or was cancelled.
func (n *ToastNotification) Done() <-chan struct{} {
	return n.done
}

// Reason is "expired" or "cancelled" after Done is closed.
func (n *ToastNotification) Reason() string {
	<-n.done
	return n.reason
}

func (n *ToastNotification) finish(reason string) {
	n.once.Do(func() {
		n.reason = reason
		close(n.done)
		n.logger.Debug().
			Str(xglog.FieldEvent, "toast."+reason).
			Stringer(xglog.FieldStatus, n.ev.Status).
			Msg("toast dismissed")
	})
}

func statusText(s link.Status) string {
	switch s {
	case link.Connected:
		return "Connected to server"
	case link.NotConnected:
		return "Server not responding"
	case link.RadioUnavailable:
		return "Radio unavailable"
	default:
		return s.String()
	}
}
