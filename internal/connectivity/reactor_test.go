// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package connectivity

import (
	"testing"

	"github.com/ManuGH/hblink/internal/config"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestReactor_RebuildsFullSnapshot(t *testing.T) {
	src := scenarioSource()
	var got []Config
	r := NewReactor(src, func(c Config) { got = append(got, c) })

	src.set(config.KeyPort, "7100")
	src.set(config.KeyConnectionSounds, "false")
	r.OnKeyChanged(config.KeyPort)

	want := []Config{{
		Address:             "192.168.1.1",
		Port:                7100,
		HeartbeatIntervalMs: 1000,
		TimeoutMs:           3000,
		SoundsEnabled:       false,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestReactor_EverySessionKeyTriggers(t *testing.T) {
	src := scenarioSource()
	n := 0
	r := NewReactor(src, func(Config) { n++ })

	for _, key := range config.PrefKeys {
		r.OnKeyChanged(key)
	}
	assert.Equal(t, len(config.PrefKeys), n)
}

func TestReactor_IgnoresUnrelatedKeys(t *testing.T) {
	src := scenarioSource()
	called := false
	r := NewReactor(src, func(Config) { called = true })

	r.OnKeyChanged("theme")
	r.OnKeyChanged("")

	assert.False(t, called)
}

func TestLoadConfig_FallsBackToDefaults(t *testing.T) {
	src := newMapSource(map[string]string{config.KeyPort: "not-a-number"})

	got := LoadConfig(src)

	assert.Equal(t, config.DefaultPort, got.Port)
	assert.Equal(t, config.DefaultAddress, got.Address)
	assert.Equal(t, config.DefaultHeartbeatIntervalMs, got.HeartbeatIntervalMs)
}
