// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package connectivity

import (
	"github.com/ManuGH/hblink/internal/config"
	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/ManuGH/hblink/internal/metrics"
	"github.com/rs/zerolog"
)

// Reactor turns key-changed notifications from the preference store into
// complete Config snapshots.
type Reactor struct {
	source ConfigSource
	apply  func(Config)
	logger zerolog.Logger
}

// NewReactor creates a Reactor that passes each rebuilt snapshot to apply.
func NewReactor(source ConfigSource, apply func(Config)) *Reactor {
	return &Reactor{
		source: source,
		apply:  apply,
		logger: xglog.WithComponent("config_reactor"),
	}
}

// OnKeyChanged matches config.ChangeFunc. All five preferences are re-read so
// the snapshot never mixes old and new values.
func (r *Reactor) OnKeyChanged(key string) {
	if !isSessionKey(key) {
		metrics.IncConfigChange("ignored")
		r.logger.Debug().
			Str(xglog.FieldEvent, "config.key_ignored").
			Str(xglog.FieldKey, key).
			Msg("unrelated preference changed")
		return
	}
	r.apply(LoadConfig(r.source))
}

func isSessionKey(key string) bool {
	switch key {
	case config.KeyAddress, config.KeyPort, config.KeyHeartbeatInterval,
		config.KeyResponseTimeout, config.KeyConnectionSounds:
		return true
	}
	return false
}
