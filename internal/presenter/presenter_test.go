// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package presenter

import (
	"testing"
	"time"

	"github.com/ManuGH/hblink/internal/connectivity"
	"github.com/ManuGH/hblink/internal/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToast_Expires(t *testing.T) {
	toast := NewToast(10 * time.Millisecond)

	n, ok := toast.Show(link.Event{Status: link.Connected, ProducedAt: 1}).(*ToastNotification)
	require.True(t, ok)

	select {
	case <-n.Done():
	case <-time.After(time.Second):
		t.Fatal("toast did not expire")
	}
	assert.Equal(t, "expired", n.Reason())

	// Cancelling an expired toast changes nothing.
	n.Cancel()
	assert.Equal(t, "expired", n.Reason())
}

func TestToast_Cancel(t *testing.T) {
	toast := NewToast(time.Hour)

	n := toast.Show(link.Event{Status: link.NotConnected, ProducedAt: 2}).(*ToastNotification)
	n.Cancel()
	n.Cancel()

	assert.Equal(t, "cancelled", n.Reason())
}

func TestToast_DefaultDuration(t *testing.T) {
	assert.Equal(t, DefaultToastDuration, NewToast(0).duration)
}

type recordingPresenter struct {
	shown     []link.Event
	cancelled int
}

type recordingNotification struct{ p *recordingPresenter }

func (n recordingNotification) Cancel() { n.p.cancelled++ }

func (r *recordingPresenter) Show(ev link.Event) connectivity.Notification {
	r.shown = append(r.shown, ev)
	return recordingNotification{p: r}
}

type nilPresenter struct{}

func (nilPresenter) Show(link.Event) connectivity.Notification { return nil }

func TestMulti_FansOut(t *testing.T) {
	a, b := &recordingPresenter{}, &recordingPresenter{}
	m := Multi{a, nilPresenter{}, b}

	ev := link.Event{Status: link.RadioUnavailable, ProducedAt: 7}
	n := m.Show(ev)
	n.Cancel()

	assert.Equal(t, []link.Event{ev}, a.shown)
	assert.Equal(t, []link.Event{ev}, b.shown)
	assert.Equal(t, 1, a.cancelled)
	assert.Equal(t, 1, b.cancelled)
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "Connected to server", statusText(link.Connected))
	assert.Equal(t, "Server not responding", statusText(link.NotConnected))
	assert.Equal(t, "Radio unavailable", statusText(link.RadioUnavailable))
}
