// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ValidatePref checks a single preference value.
func ValidatePref(key, value string) error {
	switch key {
	case KeyAddress:
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s: %w: must not be empty", key, ErrInvalidValue)
		}
	case KeyPort:
		port, err := strconv.Atoi(value)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("%s=%q: %w: must be an integer in 1..65535", key, value, ErrInvalidValue)
		}
	case KeyHeartbeatInterval, KeyResponseTimeout:
		ms, err := strconv.Atoi(value)
		if err != nil || ms <= 0 {
			return fmt.Errorf("%s=%q: %w: must be a positive number of milliseconds", key, value, ErrInvalidValue)
		}
	case KeyConnectionSounds:
		if _, ok := parseBoolValue(value); !ok {
			return fmt.Errorf("%s=%q: %w: must be a boolean", key, value, ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%s: %w", key, ErrUnknownKey)
	}
	return nil
}

// ValidatePrefs checks every known preference and joins all failures.
func ValidatePrefs(prefs map[string]string) error {
	var errs []error
	for _, key := range PrefKeys {
		v, ok := prefs[key]
		if !ok {
			continue
		}
		if err := ValidatePref(key, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
