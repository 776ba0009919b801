// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package connectivity

import (
	"context"
	"time"

	"github.com/ManuGH/hblink/internal/config"
	"github.com/ManuGH/hblink/internal/link"
)

// Config is an immutable snapshot of the session preferences.
type Config struct {
	Address             string `json:"address"`
	Port                int    `json:"port"`
	HeartbeatIntervalMs int    `json:"heartbeat_interval_ms"`
	TimeoutMs           int    `json:"timeout_ms"`
	SoundsEnabled       bool   `json:"sounds_enabled"`
}

// Params returns the session parameters carried by the snapshot.
func (c Config) Params() link.Params {
	return link.Params{
		Address:   c.Address,
		Port:      c.Port,
		Heartbeat: time.Duration(c.HeartbeatIntervalMs) * time.Millisecond,
		Timeout:   time.Duration(c.TimeoutMs) * time.Millisecond,
	}
}

// ConfigSource is the synchronous read side of the preference store.
type ConfigSource interface {
	GetString(key, def string) string
	GetInt(key string, def int) int
	GetBool(key string, def bool) bool
}

// LoadConfig reads all five preferences into one consistent snapshot.
func LoadConfig(src ConfigSource) Config {
	return Config{
		Address:             src.GetString(config.KeyAddress, config.DefaultAddress),
		Port:                src.GetInt(config.KeyPort, config.DefaultPort),
		HeartbeatIntervalMs: src.GetInt(config.KeyHeartbeatInterval, config.DefaultHeartbeatIntervalMs),
		TimeoutMs:           src.GetInt(config.KeyResponseTimeout, config.DefaultResponseTimeoutMs),
		SoundsEnabled:       src.GetBool(config.KeyConnectionSounds, config.DefaultConnectionSounds),
	}
}

// LifecycleState is the host lifecycle as seen by the Controller.
type LifecycleState int32

const (
	Background LifecycleState = iota
	Foreground
)

func (s LifecycleState) String() string {
	if s == Foreground {
		return "foreground"
	}
	return "background"
}

// MarshalText renders the state name for JSON.
func (s LifecycleState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Session is the heartbeat session driven by the Controller. Every method is
// fire-and-forget; readiness and failures come back as status pushes.
type Session interface {
	// Begin starts or restarts the session. Identical params on a running session are a no-op.
	Begin(p link.Params)
	// Stop is idempotent.
	Stop()
	// ReloadIfNecessary restarts a running session only when params differ.
	ReloadIfNecessary(p link.Params)
	// SetConnectionStatusAndNotify pushes status with the current timestamp.
	SetConnectionStatusAndNotify(status link.Status)
}

// Radio answers whether the managed interface is attached to a network.
type Radio interface {
	Reachable(ctx context.Context) (bool, error)
}

// RadioFeed delivers radio transition notifications while started.
type RadioFeed interface {
	Start(ctx context.Context, onChange func()) error
	Stop()
}

// Presenter shows an accepted status to the user.
type Presenter interface {
	Show(ev link.Event) Notification
}

// Notification is a visible status notification that can be withdrawn.
type Notification interface {
	Cancel()
}

// Audio cue names.
const (
	CueConnect    = "connect"
	CueDisconnect = "disconnect"
)

// CuePlayer plays a named audio cue without blocking.
type CuePlayer interface {
	Play(cue string)
}
