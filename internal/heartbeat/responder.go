// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/rs/zerolog"
)

// Responder echoes valid heartbeat datagrams back to their sender.
type Responder struct {
	conn   net.PacketConn
	logger zerolog.Logger
	muted  atomic.Bool
	echoed atomic.Uint64
}

// Listen opens a Responder on the UDP address addr.
func Listen(addr string) (*Responder, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Responder{conn: conn, logger: xglog.WithComponent("responder")}, nil
}

// Addr returns the bound address.
func (r *Responder) Addr() net.Addr {
	return r.conn.LocalAddr()
}

// Mute stops or resumes echoing without closing the socket.
func (r *Responder) Mute(muted bool) {
	r.muted.Store(muted)
}

// Echoed returns the number of datagrams echoed so far.
func (r *Responder) Echoed() uint64 {
	return r.echoed.Load()
}

// Serve echoes datagrams until ctx is cancelled, then closes the socket.
func (r *Responder) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = r.conn.Close() })
	defer stop()

	r.logger.Info().Str(xglog.FieldEvent, "responder.listening").Str(xglog.FieldAddress, r.Addr().String()).Msg("heartbeat responder listening")

	buf := make([]byte, 64)
	for {
		n, from, err := r.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if _, err := Decode(buf[:n]); err != nil {
			r.logger.Debug().Err(err).Str("from", from.String()).Msg("ignoring datagram")
			continue
		}
		if r.muted.Load() {
			continue
		}
		if _, err := r.conn.WriteTo(buf[:n], from); err != nil {
			r.logger.Debug().Err(err).Str("to", from.String()).Msg("echo failed")
			continue
		}
		r.echoed.Add(1)
	}
}

// Close closes the socket.
func (r *Responder) Close() error {
	return r.conn.Close()
}
