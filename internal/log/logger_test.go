// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestConfigure_AttachesServiceAndVersion(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "hblink-test", Version: "v0.0.1"})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("sequencer")
	l.Info().Str(FieldEvent, "test.event").Msg("hello")

	entry := captureLine(t, &buf)
	assert.Equal(t, "hblink-test", entry[FieldService])
	assert.Equal(t, "v0.0.1", entry[FieldVersion])
	assert.Equal(t, "sequencer", entry[FieldComponent])
	assert.Equal(t, "test.event", entry[FieldEvent])
}

func TestConfigure_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "shouting", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("test")
	l.Debug().Msg("suppressed")
	assert.Zero(t, buf.Len())

	l.Info().Msg("visible")
	assert.NotZero(t, buf.Len())
}

func TestWithComponentFromContext_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	ctx := ContextWithRequestID(context.Background(), "req-42")
	l := WithComponentFromContext(ctx, "api")
	l.Info().Msg("handled")

	entry := captureLine(t, &buf)
	assert.Equal(t, "req-42", entry[FieldRequestID])
	assert.Equal(t, "api", entry[FieldComponent])
}

func TestRequestIDFromContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{name: "nil context", ctx: nil, want: ""},
		{name: "missing", ctx: context.Background(), want: ""},
		{name: "present", ctx: ContextWithRequestID(nil, "abc"), want: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RequestIDFromContext(tt.ctx))
		})
	}
}
