// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ManuGH/hblink/internal/config"
	"github.com/ManuGH/hblink/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version.Version)
	assert.Contains(t, out, "commit: "+version.Commit)
}

func TestConfigSet_PersistsAndShows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "hblink.yaml")

	out, err := execute(t, "--config", path, "config", "set", config.KeyAddress, "10.0.0.7")
	require.NoError(t, err)
	assert.Equal(t, "ip_addr = 10.0.0.7\n", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "10.0.0.7")

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)

	var shown effectiveConfig
	require.NoError(t, yaml.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "10.0.0.7", shown.Prefs[config.KeyAddress])
	assert.Equal(t, "8363", shown.Prefs[config.KeyPort])
	assert.NotEmpty(t, shown.API.ListenAddr)
}

func TestConfigSet_Rejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hblink.yaml")

	tests := []struct {
		name string
		key  string
		val  string
		want error
	}{
		{name: "port out of range", key: config.KeyPort, val: "70000", want: config.ErrInvalidValue},
		{name: "zero timeout", key: config.KeyResponseTimeout, val: "0", want: config.ErrInvalidValue},
		{name: "unknown key", key: "volume", val: "3", want: config.ErrUnknownKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "--config", path, "config", "set", tt.key, tt.val)
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "rejected values must not create the file")
}

func TestConfigSet_RequiresTwoArgs(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "x.yaml"), "config", "set", "port")
	require.Error(t, err)
}
