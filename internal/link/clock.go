// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package link

import (
	"sync/atomic"
	"time"
)

var (
	epoch    = time.Now()
	lastTick atomic.Int64
)

// NowMillis returns milliseconds on the process-wide monotonic clock.
// Values are only comparable within one process. Every call returns a value
// strictly greater than the one before, so two events produced within the
// same millisecond still order; under bursts the result may run ahead of the
// clock until it catches up.
func NowMillis() int64 {
	now := time.Since(epoch).Milliseconds()
	for {
		prev := lastTick.Load()
		next := max(now, prev+1)
		if lastTick.CompareAndSwap(prev, next) {
			return next
		}
	}
}
