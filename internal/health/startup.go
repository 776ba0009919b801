// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"

	"github.com/ManuGH/hblink/internal/config"
	"github.com/ManuGH/hblink/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates the daemon settings before any server starts.
// Problems with optional sound assets are logged, not returned.
func PerformStartupChecks(_ context.Context, s config.Settings) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running startup checks")

	if err := checkListenAddr("api", s.API.ListenAddr, false); err != nil {
		return err
	}
	if err := checkListenAddr("metrics", s.Metrics.ListenAddr, true); err != nil {
		return err
	}
	if s.Radio.PollInterval <= 0 {
		return fmt.Errorf("radio poll interval must be positive, got %s", s.Radio.PollInterval)
	}

	checkSounds(logger, s.Sounds)

	logger.Info().Msg("startup checks passed")
	return nil
}

func checkListenAddr(name, addr string, optional bool) error {
	if addr == "" {
		if optional {
			return nil
		}
		return fmt.Errorf("%s listen address is empty", name)
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid %s listen address %q: %w", name, addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid %s listen port %q in %q", name, port, addr)
	}
	return nil
}

func checkSounds(logger zerolog.Logger, s config.SoundsConfig) {
	if s.Player != "" {
		if _, err := exec.LookPath(s.Player); err != nil {
			logger.Warn().Err(err).Str("player", s.Player).Msg("sound player not found, cues will fail")
		}
	}
	for _, path := range []string{s.Connect, s.Disconnect} {
		if path == "" {
			continue
		}
		if err := checkFileReadable(path); err != nil {
			logger.Warn().Err(err).Str(log.FieldPath, path).Msg("sound asset not readable")
		}
	}
}

func checkFileReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return err
	}
	return f.Close()
}
