// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package heartbeat

import (
	"encoding/binary"
	"errors"
)

// Magic prefixes every heartbeat datagram.
const Magic = "HBLK"

// PacketSize is the length of a heartbeat datagram: magic plus a big-endian
// uint32 sequence number.
const PacketSize = len(Magic) + 4

var (
	ErrShortPacket = errors.New("heartbeat: short packet")
	ErrBadMagic    = errors.New("heartbeat: bad magic")
)

// Encode builds the datagram for seq.
func Encode(seq uint32) []byte {
	b := make([]byte, PacketSize)
	copy(b, Magic)
	binary.BigEndian.PutUint32(b[len(Magic):], seq)
	return b
}

// Decode returns the sequence number carried by b. Trailing bytes are ignored.
func Decode(b []byte) (uint32, error) {
	if len(b) < PacketSize {
		return 0, ErrShortPacket
	}
	if string(b[:len(Magic)]) != Magic {
		return 0, ErrBadMagic
	}
	return binary.BigEndian.Uint32(b[len(Magic):PacketSize]), nil
}
