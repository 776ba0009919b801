// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package connectivity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/ManuGH/hblink/internal/config"
	"github.com/ManuGH/hblink/internal/link"
)

// callLog records calls across fakes so tests can assert global ordering.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) count(call string) int {
	n := 0
	for _, c := range l.snapshot() {
		if c == call {
			n++
		}
	}
	return n
}

type fakeSession struct {
	log    *callLog
	status link.StatusFunc
}

func (s *fakeSession) Begin(p link.Params) {
	s.log.add("begin(%s,%d,%d,%d)", p.Address, p.Port, p.Heartbeat.Milliseconds(), p.Timeout.Milliseconds())
}

func (s *fakeSession) Stop() { s.log.add("stop") }

func (s *fakeSession) ReloadIfNecessary(p link.Params) {
	s.log.add("reload(%s,%d,%d,%d)", p.Address, p.Port, p.Heartbeat.Milliseconds(), p.Timeout.Milliseconds())
}

func (s *fakeSession) SetConnectionStatusAndNotify(st link.Status) {
	s.log.add("notify(%s)", st)
	if s.status != nil {
		s.status(st, link.NowMillis())
	}
}

type fakeRadio struct {
	mu        sync.Mutex
	reachable bool
	err       error
}

func (r *fakeRadio) set(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reachable = ok
	r.err = nil
}

func (r *fakeRadio) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *fakeRadio) Reachable(context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	return r.reachable, nil
}

var errNoInterface = errors.New("no such interface")

// fakeFeed is a RadioFeed whose notifications are fired by the test.
type fakeFeed struct {
	mu       sync.Mutex
	log      *callLog
	onChange func()
}

func (f *fakeFeed) Start(_ context.Context, onChange func()) error {
	f.mu.Lock()
	f.onChange = onChange
	f.mu.Unlock()
	f.log.add("radio.start")
	return nil
}

func (f *fakeFeed) Stop() {
	f.mu.Lock()
	f.onChange = nil
	f.mu.Unlock()
	f.log.add("radio.stop")
}

func (f *fakeFeed) fire() bool {
	f.mu.Lock()
	fn := f.onChange
	f.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// mapSource is an in-memory ConfigSource.
type mapSource struct {
	mu     sync.Mutex
	values map[string]string
}

func newMapSource(values map[string]string) *mapSource {
	v := config.DefaultPrefs()
	for k, val := range values {
		v[k] = val
	}
	return &mapSource{values: v}
}

func (m *mapSource) set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *mapSource) GetString(key, def string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key]; ok {
		return v
	}
	return def
}

func (m *mapSource) GetInt(key string, def int) int {
	v, err := strconv.Atoi(m.GetString(key, ""))
	if err != nil {
		return def
	}
	return v
}

func (m *mapSource) GetBool(key string, def bool) bool {
	v, err := strconv.ParseBool(m.GetString(key, ""))
	if err != nil {
		return def
	}
	return v
}

func scenarioSource() *mapSource {
	return newMapSource(map[string]string{
		config.KeyAddress:           "192.168.1.1",
		config.KeyPort:              "7000",
		config.KeyHeartbeatInterval: "1000",
		config.KeyResponseTimeout:   "3000",
	})
}

// fakePresenter records shown and cancelled notifications.
type fakePresenter struct {
	mu        sync.Mutex
	shown     []link.Event
	cancelled []link.Event
}

type fakeNotification struct {
	p  *fakePresenter
	ev link.Event
}

func (n *fakeNotification) Cancel() {
	n.p.mu.Lock()
	defer n.p.mu.Unlock()
	n.p.cancelled = append(n.p.cancelled, n.ev)
}

func (p *fakePresenter) Show(ev link.Event) Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown, ev)
	return &fakeNotification{p: p, ev: ev}
}

func (p *fakePresenter) snapshot() (shown, cancelled []link.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]link.Event(nil), p.shown...), append([]link.Event(nil), p.cancelled...)
}

type fakeCues struct {
	mu     sync.Mutex
	played []string
}

func (c *fakeCues) Play(cue string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.played = append(c.played, cue)
}

func (c *fakeCues) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.played...)
}

// listenerLog appends lifecycle notifications to the shared call log.
func listenerLog(log *callLog, name string) ListenerFuncs {
	return ListenerFuncs{
		Foreground: func() { log.add("%s.foreground", name) },
		Background: func() { log.add("%s.background", name) },
	}
}
