// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package link holds the value types shared between the heartbeat session
// and the connectivity orchestration layer.
package link

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Status is the connection status of the heartbeat link.
type Status int

const (
	// NotConnected means the session is running but the server is not answering.
	NotConnected Status = iota
	// Connected means the server answered a heartbeat within the timeout.
	Connected
	// RadioUnavailable means the local interface is down or not attached to a network.
	RadioUnavailable
)

func (s Status) String() string {
	switch s {
	case Connected:
		return "CONNECTED"
	case NotConnected:
		return "NOT_CONNECTED"
	case RadioUnavailable:
		return "RADIO_UNAVAILABLE"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText renders the status name for JSON and YAML.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(v string) (Status, error) {
	switch v {
	case "CONNECTED":
		return Connected, nil
	case "NOT_CONNECTED":
		return NotConnected, nil
	case "RADIO_UNAVAILABLE":
		return RadioUnavailable, nil
	}
	return NotConnected, fmt.Errorf("unknown link status %q", v)
}

// Event is one status notification. ProducedAt is taken from NowMillis at
// the moment the underlying fact became true, not when it is delivered.
type Event struct {
	Status     Status `json:"status"`
	ProducedAt int64  `json:"produced_at_ms"`
}

// StatusFunc receives status pushes. It may be called from any goroutine.
type StatusFunc func(status Status, producedAt int64)

// Params are the session parameters that decide whether a restart is needed.
type Params struct {
	Address   string
	Port      int
	Heartbeat time.Duration
	Timeout   time.Duration
}

// HostPort returns the dialable "address:port" form.
func (p Params) HostPort() string {
	return net.JoinHostPort(p.Address, strconv.Itoa(p.Port))
}

func (p Params) String() string {
	return fmt.Sprintf("%s heartbeat=%s timeout=%s", p.HostPort(), p.Heartbeat, p.Timeout)
}
