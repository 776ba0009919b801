// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"strconv"
	"time"
)

// Preference keys of the user-editable session settings.
const (
	KeyAddress           = "ip_addr"
	KeyPort              = "port"
	KeyHeartbeatInterval = "heartbeat_interval"
	KeyResponseTimeout   = "no_server_response_timeout"
	KeyConnectionSounds  = "connection_sounds"
)

// Defaults for the preference keys.
const (
	DefaultAddress             = "192.168.49.1"
	DefaultPort                = 8363
	DefaultHeartbeatIntervalMs = 500
	DefaultResponseTimeoutMs   = 2500
	DefaultConnectionSounds    = true
)

// PrefKeys lists every known preference key in a stable order.
var PrefKeys = []string{
	KeyAddress,
	KeyPort,
	KeyHeartbeatInterval,
	KeyResponseTimeout,
	KeyConnectionSounds,
}

// DefaultPrefs returns the preference values used when neither the file nor
// the environment provides one.
func DefaultPrefs() map[string]string {
	return map[string]string{
		KeyAddress:           DefaultAddress,
		KeyPort:              strconv.Itoa(DefaultPort),
		KeyHeartbeatInterval: strconv.Itoa(DefaultHeartbeatIntervalMs),
		KeyResponseTimeout:   strconv.Itoa(DefaultResponseTimeoutMs),
		KeyConnectionSounds:  strconv.FormatBool(DefaultConnectionSounds),
	}
}

// FileConfig is the on-disk YAML layout.
type FileConfig struct {
	Prefs   map[string]any `yaml:"prefs,omitempty"`
	API     APIConfig      `yaml:"api,omitempty"`
	Metrics MetricsConfig  `yaml:"metrics,omitempty"`
	Radio   RadioConfig    `yaml:"radio,omitempty"`
	Sounds  SoundsConfig   `yaml:"sounds,omitempty"`
	Log     LogConfig      `yaml:"log,omitempty"`
}

// APIConfig configures the HTTP API.
type APIConfig struct {
	ListenAddr string `yaml:"listenAddr,omitempty"`
	// RateLimit is the number of mutating requests per minute per client.
	RateLimit int `yaml:"rateLimit,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint. Empty ListenAddr disables it.
type MetricsConfig struct {
	ListenAddr string `yaml:"listenAddr,omitempty"`
}

// RadioConfig selects the managed network interface.
type RadioConfig struct {
	// Interface is the interface name to watch. Empty means any non-loopback interface.
	Interface    string        `yaml:"interface,omitempty"`
	PollInterval time.Duration `yaml:"pollInterval,omitempty"`
}

// SoundsConfig locates the audio cue assets.
type SoundsConfig struct {
	// Player is an external command invoked with the asset path. Empty rings the terminal bell.
	Player     string `yaml:"player,omitempty"`
	Connect    string `yaml:"connect,omitempty"`
	Disconnect string `yaml:"disconnect,omitempty"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Settings are the effective daemon settings after defaults and ENV overrides.
type Settings struct {
	API     APIConfig
	Metrics MetricsConfig
	Radio   RadioConfig
	Sounds  SoundsConfig
	Log     LogConfig
}

const (
	defaultAPIListenAddr     = "127.0.0.1:8390"
	defaultMetricsListenAddr = "127.0.0.1:9390"
	defaultAPIRateLimit      = 30
	defaultRadioPollInterval = 2 * time.Second
)

func defaultSettings() Settings {
	return Settings{
		API:     APIConfig{ListenAddr: defaultAPIListenAddr, RateLimit: defaultAPIRateLimit},
		Metrics: MetricsConfig{ListenAddr: defaultMetricsListenAddr},
		Radio:   RadioConfig{PollInterval: defaultRadioPollInterval},
		Log:     LogConfig{Level: "info"},
	}
}
