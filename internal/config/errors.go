// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "errors"

var (
	// ErrUnknownConfigField classifies strict YAML parse failures caused by unknown keys.
	// Use errors.Is(err, ErrUnknownConfigField) instead of string matching.
	ErrUnknownConfigField = errors.New("unknown config field")

	// ErrUnknownKey is returned for preference keys outside PrefKeys.
	ErrUnknownKey = errors.New("unknown preference key")

	// ErrInvalidValue is returned when a preference value fails validation.
	ErrInvalidValue = errors.New("invalid preference value")

	// ErrNoConfigPath is returned by Set when the store has no backing file.
	ErrNoConfigPath = errors.New("config store has no file path")
)
