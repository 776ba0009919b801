// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package connectivity

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/hblink/internal/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func soundsOn() bool  { return true }
func soundsOff() bool { return false }

func TestSequencer_StrictlyNewerEventsOnly(t *testing.T) {
	p := &fakePresenter{}
	s := NewSequencer(p, nil, nil)

	s.deliver(link.Event{Status: link.Connected, ProducedAt: 100})
	s.deliver(link.Event{Status: link.NotConnected, ProducedAt: 100})
	s.deliver(link.Event{Status: link.NotConnected, ProducedAt: 99})

	shown, _ := p.snapshot()
	require.Len(t, shown, 1)
	assert.Equal(t, link.Event{Status: link.Connected, ProducedAt: 100}, shown[0])

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, link.Connected, cur.Status)
}

func TestSequencer_AcceptsAnyFirstTimestamp(t *testing.T) {
	p := &fakePresenter{}
	s := NewSequencer(p, nil, nil)

	_, ok := s.Current()
	assert.False(t, ok)

	s.deliver(link.Event{Status: link.NotConnected, ProducedAt: -5})

	shown, _ := p.snapshot()
	assert.Len(t, shown, 1)
}

func TestSequencer_OutOfOrderPair(t *testing.T) {
	connected := link.Event{Status: link.Connected, ProducedAt: 10}
	lost := link.Event{Status: link.NotConnected, ProducedAt: 20}

	for name, order := range map[string][]link.Event{
		"in order":     {connected, lost},
		"out of order": {lost, connected},
	} {
		t.Run(name, func(t *testing.T) {
			p := &fakePresenter{}
			s := NewSequencer(p, nil, nil)
			for _, ev := range order {
				s.deliver(ev)
			}
			cur, ok := s.Current()
			require.True(t, ok)
			assert.Equal(t, lost, cur)

			shown, _ := p.snapshot()
			assert.Equal(t, lost, shown[len(shown)-1])
		})
	}
}

func TestSequencer_CancelsPendingNotification(t *testing.T) {
	p := &fakePresenter{}
	s := NewSequencer(p, nil, nil)

	first := link.Event{Status: link.Connected, ProducedAt: 1}
	second := link.Event{Status: link.NotConnected, ProducedAt: 2}
	s.deliver(first)
	s.deliver(second)
	s.deliver(link.Event{Status: link.Connected, ProducedAt: 1})

	shown, cancelled := p.snapshot()
	assert.Equal(t, []link.Event{first, second}, shown)
	assert.Equal(t, []link.Event{first}, cancelled)
}

// A stale push is dropped visually but its cue still plays, because the cue
// is decided at receipt before ordering is known.
func TestSequencer_StaleEventStillPlaysCue(t *testing.T) {

	p := &fakePresenter{}
	cues := &fakeCues{}
	s := NewSequencer(p, cues, soundsOn)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()

	s.OnNetworkStatus(link.NotConnected, 200)
	require.Eventually(t, func() bool {
		cur, ok := s.Current()
		return ok && cur.ProducedAt == 200
	}, time.Second, 5*time.Millisecond)

	s.OnNetworkStatus(link.Connected, 150)

	// Cues are played synchronously in OnNetworkStatus.
	assert.Equal(t, []string{CueDisconnect, CueConnect}, cues.snapshot())

	cancel()
	<-done

	shown, _ := p.snapshot()
	require.Len(t, shown, 1)
	assert.Equal(t, link.NotConnected, shown[0].Status)
}

func TestSequencer_CueSelection(t *testing.T) {
	tests := []struct {
		name   string
		status link.Status
		sounds func() bool
		want   []string
	}{
		{"connected", link.Connected, soundsOn, []string{CueConnect}},
		{"not connected", link.NotConnected, soundsOn, []string{CueDisconnect}},
		{"radio unavailable", link.RadioUnavailable, soundsOn, nil},
		{"sounds disabled", link.Connected, soundsOff, nil},
		{"no sounds func", link.Connected, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cues := &fakeCues{}
			s := NewSequencer(&fakePresenter{}, cues, tt.sounds)
			s.playCue(tt.status)
			assert.Equal(t, tt.want, cues.snapshot())
		})
	}
}

// Concurrent producers in arbitrary interleaving: the presenter only ever
// sees strictly increasing timestamps and ends on the newest event.
func TestSequencer_ConcurrentProducers(t *testing.T) {

	p := &fakePresenter{}
	s := NewSequencer(p, nil, nil, WithQueueSize(8))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()

	const n = 200
	stamps := rand.New(rand.NewSource(1)).Perm(n)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < n; i += 4 {
				st := link.Connected
				if stamps[i]%2 == 0 {
					st = link.NotConnected
				}
				s.OnNetworkStatus(st, int64(stamps[i]+1))
			}
		}(w)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		cur, ok := s.Current()
		return ok && cur.ProducedAt == n
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done

	shown, _ := p.snapshot()
	for i := 1; i < len(shown); i++ {
		assert.Greater(t, shown[i].ProducedAt, shown[i-1].ProducedAt)
	}
}

func TestSequencer_PushAfterStopDoesNotBlock(t *testing.T) {

	s := NewSequencer(&fakePresenter{}, nil, nil, WithQueueSize(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Run(ctx))

	finished := make(chan struct{})
	go func() {
		s.OnNetworkStatus(link.Connected, 1)
		s.OnNetworkStatus(link.Connected, 2)
		s.OnNetworkStatus(link.Connected, 3)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("OnNetworkStatus blocked after Run returned")
	}
}
