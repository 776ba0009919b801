// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package link

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_StringRoundTrip(t *testing.T) {
	for _, s := range []Status{Connected, NotConnected, RadioUnavailable} {
		parsed, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStatus("WIFI_OFF")
	assert.Error(t, err)
	assert.Equal(t, "Status(7)", Status(7).String())
}

func TestEvent_JSON(t *testing.T) {
	data, err := json.Marshal(Event{Status: RadioUnavailable, ProducedAt: 12})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"RADIO_UNAVAILABLE","produced_at_ms":12}`, string(data))
}

func TestParams_HostPort(t *testing.T) {
	p := Params{Address: "192.168.1.1", Port: 7000, Heartbeat: time.Second, Timeout: 3 * time.Second}
	assert.Equal(t, "192.168.1.1:7000", p.HostPort())
	assert.Equal(t, "[fe80::1]:7000", Params{Address: "fe80::1", Port: 7000}.HostPort())
}

func TestNowMillis_Monotonic(t *testing.T) {
	a := NowMillis()
	time.Sleep(2 * time.Millisecond)
	assert.Greater(t, NowMillis(), a)
}

func TestNowMillis_UniqueAcrossProducers(t *testing.T) {
	const producers, perProducer = 8, 500

	results := make([][]int64, producers)
	var wg sync.WaitGroup
	for i := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticks := make([]int64, perProducer)
			for j := range ticks {
				ticks[j] = NowMillis()
			}
			results[i] = ticks
		}()
	}
	wg.Wait()

	seen := make(map[int64]struct{}, producers*perProducer)
	for _, ticks := range results {
		for j, v := range ticks {
			if j > 0 {
				require.Greater(t, v, ticks[j-1])
			}
			_, dup := seen[v]
			require.False(t, dup, "timestamp %d handed out twice", v)
			seen[v] = struct{}{}
		}
	}
}
