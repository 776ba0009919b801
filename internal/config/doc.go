// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config provides configuration management for hblink.
//
// Configuration lives in a single YAML file. The "prefs" section is a flat
// key/value view of the user-editable session settings (address, port,
// heartbeat interval, response timeout, connection sounds); it is exposed
// through Store with typed getters and a per-key change feed. The remaining
// sections configure the daemon itself and are read once at startup.
//
// Precedence is ENV > File > Defaults.
package config
