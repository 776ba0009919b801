// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// loaded is the result of reading the config file and applying overrides.
type loaded struct {
	prefs    map[string]string
	settings Settings
}

// load reads path (a missing file yields defaults) and applies ENV overrides.
func load(path string) (loaded, error) {
	var fc FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// defaults only; the file is created by the first Set
		case err != nil:
			return loaded{}, fmt.Errorf("read config file: %w", err)
		default:
			if fc, err = parse(data); err != nil {
				return loaded{}, err
			}
		}
	}

	prefs := DefaultPrefs()
	for k, v := range fc.Prefs {
		if !isPrefKey(k) {
			return loaded{}, fmt.Errorf("prefs.%s: %w", k, ErrUnknownKey)
		}
		prefs[k] = fmt.Sprint(v)
	}
	applyPrefEnv(prefs)

	if err := ValidatePrefs(prefs); err != nil {
		return loaded{}, err
	}

	return loaded{prefs: prefs, settings: mergeSettings(fc)}, nil
}

// parse decodes the YAML file strictly: unknown sections are rejected.
func parse(data []byte) (FileConfig, error) {
	var fc FileConfig
	if len(bytes.TrimSpace(data)) == 0 {
		return fc, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		if strings.Contains(err.Error(), "not found in type") {
			return fc, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fc, fmt.Errorf("parse config file: %w", err)
	}
	return fc, nil
}

func mergeSettings(fc FileConfig) Settings {
	s := defaultSettings()
	if fc.API.ListenAddr != "" {
		s.API.ListenAddr = fc.API.ListenAddr
	}
	if fc.API.RateLimit > 0 {
		s.API.RateLimit = fc.API.RateLimit
	}
	if fc.Metrics.ListenAddr != "" {
		s.Metrics.ListenAddr = fc.Metrics.ListenAddr
	}
	if fc.Radio.Interface != "" {
		s.Radio.Interface = fc.Radio.Interface
	}
	if fc.Radio.PollInterval > 0 {
		s.Radio.PollInterval = fc.Radio.PollInterval
	}
	s.Sounds = fc.Sounds
	if fc.Log.Level != "" {
		s.Log.Level = fc.Log.Level
	}

	s.API.ListenAddr = ParseString("HBLINK_API_LISTEN", s.API.ListenAddr)
	s.Metrics.ListenAddr = ParseString("HBLINK_METRICS_LISTEN", s.Metrics.ListenAddr)
	s.Radio.Interface = ParseString("HBLINK_RADIO_INTERFACE", s.Radio.Interface)
	s.Radio.PollInterval = ParseDuration("HBLINK_RADIO_POLL_INTERVAL", s.Radio.PollInterval)
	s.Sounds.Player = ParseString("HBLINK_SOUND_PLAYER", s.Sounds.Player)
	s.Log.Level = ParseString("HBLINK_LOG_LEVEL", s.Log.Level)
	return s
}

func isPrefKey(key string) bool {
	for _, k := range PrefKeys {
		if k == key {
			return true
		}
	}
	return false
}
