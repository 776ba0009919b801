// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package heartbeat

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/hblink/internal/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type pushes struct {
	mu     sync.Mutex
	events []link.Event
}

func (p *pushes) record(status link.Status, producedAt int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, link.Event{Status: status, ProducedAt: producedAt})
}

func (p *pushes) count(status link.Status) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Status == status {
			n++
		}
	}
	return n
}

func (p *pushes) last() (link.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return link.Event{}, false
	}
	return p.events[len(p.events)-1], true
}

func startResponder(t *testing.T) *Responder {
	t.Helper()
	r, err := Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return r
}

func paramsFor(t *testing.T, addr net.Addr) link.Params {
	t.Helper()
	udp, ok := addr.(*net.UDPAddr)
	require.True(t, ok)
	return link.Params{
		Address:   udp.IP.String(),
		Port:      udp.Port,
		Heartbeat: 10 * time.Millisecond,
		Timeout:   80 * time.Millisecond,
	}
}

func newTestSession(t *testing.T) (*Session, *pushes) {
	t.Helper()
	s := NewSession()
	p := &pushes{}
	s.RegisterListener(p.record)
	t.Cleanup(func() {
		s.Stop()
		s.Wait()
	})
	return s, p
}

func TestPacket_RoundTrip(t *testing.T) {
	seq, err := Decode(Encode(0xDEADBEEF))
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), seq)

	_, err = Decode([]byte("HBL"))
	assert.ErrorIs(t, err, ErrShortPacket)

	_, err = Decode([]byte("XXXX\x00\x00\x00\x01"))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestSession_ConnectsToResponder(t *testing.T) {
	r := startResponder(t)
	s, p := newTestSession(t)

	s.Begin(paramsFor(t, r.Addr()))

	require.Eventually(t, func() bool { return p.count(link.Connected) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, link.Connected, s.Status())
	assert.True(t, s.Running())
	assert.NotZero(t, r.Echoed())
}

func TestSession_LossReportedOnceThenRecovers(t *testing.T) {
	r := startResponder(t)
	s, p := newTestSession(t)
	params := paramsFor(t, r.Addr())

	s.Begin(params)
	require.Eventually(t, func() bool { return p.count(link.Connected) == 1 }, 2*time.Second, 5*time.Millisecond)

	r.Mute(true)
	require.Eventually(t, func() bool { return p.count(link.NotConnected) == 1 }, 2*time.Second, 5*time.Millisecond)

	// Several more timeouts elapse without another push.
	time.Sleep(4 * params.Timeout)
	assert.Equal(t, 1, p.count(link.NotConnected))

	r.Mute(false)
	require.Eventually(t, func() bool { return p.count(link.Connected) == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestSession_SilentServerReportsNotConnected(t *testing.T) {
	r := startResponder(t)
	r.Mute(true)
	s, p := newTestSession(t)

	s.Begin(paramsFor(t, r.Addr()))

	require.Eventually(t, func() bool { return p.count(link.NotConnected) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, p.count(link.Connected))
}

func TestSession_BeginWithSameParamsIsNoop(t *testing.T) {
	r := startResponder(t)
	s, p := newTestSession(t)
	params := paramsFor(t, r.Addr())

	s.Begin(params)
	require.Eventually(t, func() bool { return p.count(link.Connected) == 1 }, 2*time.Second, 5*time.Millisecond)

	s.Begin(params)
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 1, p.count(link.Connected), "a restart would report CONNECTED again")
}

func TestSession_ReloadIfNecessary(t *testing.T) {
	first := startResponder(t)
	second := startResponder(t)
	s, p := newTestSession(t)

	s.ReloadIfNecessary(paramsFor(t, first.Addr()))
	assert.False(t, s.Running(), "reload must not start a stopped session")

	s.Begin(paramsFor(t, first.Addr()))
	require.Eventually(t, func() bool { return p.count(link.Connected) == 1 }, 2*time.Second, 5*time.Millisecond)

	s.ReloadIfNecessary(paramsFor(t, second.Addr()))
	require.Eventually(t, func() bool { return p.count(link.Connected) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.NotZero(t, second.Echoed())
}

func TestSession_StopIsIdempotentAndSilent(t *testing.T) {
	r := startResponder(t)
	s, p := newTestSession(t)

	s.Begin(paramsFor(t, r.Addr()))
	require.Eventually(t, func() bool { return p.count(link.Connected) == 1 }, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
	s.Wait()
	assert.False(t, s.Running())

	r.Mute(true)
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, p.count(link.NotConnected), "stopped session must not report loss")
}

func TestSession_SetConnectionStatusAndNotify(t *testing.T) {
	s, p := newTestSession(t)
	before := link.NowMillis()

	s.SetConnectionStatusAndNotify(link.RadioUnavailable)

	ev, ok := p.last()
	require.True(t, ok)
	assert.Equal(t, link.RadioUnavailable, ev.Status)
	assert.GreaterOrEqual(t, ev.ProducedAt, before)
	assert.Equal(t, link.RadioUnavailable, s.Status())
}

func TestSession_DialFailureAllowsRestartWithSameParams(t *testing.T) {
	r := startResponder(t)
	s, p := newTestSession(t)

	var attempts atomic.Int32
	netDial := s.dial
	s.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("lookup no-such-host.invalid: no such host")
		}
		return netDial(ctx, network, address)
	}

	params := paramsFor(t, r.Addr())
	s.Begin(params)

	require.Eventually(t, func() bool { return p.count(link.NotConnected) == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !s.Running() }, time.Second, 5*time.Millisecond)

	s.ReloadIfNecessary(params)
	assert.Equal(t, int32(1), attempts.Load(), "reload must not revive a failed session")

	s.Begin(params)
	assert.True(t, s.Running())
	require.Eventually(t, func() bool { return p.count(link.Connected) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), attempts.Load())
}
