// Package wire implements the DLNK UDP datagram header (spec §4.A) and
// the length-prefixed JSON signaling frame format used over TLS/TCP.
//
// Grounded on original_source/linux-sender/crates/duallink-transport-client/src/video_sender.rs
// for the exact header layout and on the teacher's protocol/decoder.go and
// protocol/encoder.go for the "fixed binary header via encoding/binary"
// idiom already present in this codebase.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Magic is the DLNK header magic number ("DLNK" in ASCII).
const Magic uint32 = 0x444C4E4B

// HeaderSize is the fixed DLNK header length in bytes.
const HeaderSize = 20

// MaxPayloadBytes is the maximum payload carried by one DLNK fragment.
const MaxPayloadBytes = 1384

// Packet is the decoded form of one DLNK datagram (spec §3
// DualLinkPacket).
type Packet struct {
	FrameSeq     uint32
	FragIndex    uint16
	FragCount    uint16
	PtsMs        uint32
	IsKeyframe   bool
	DisplayIndex uint8
	Payload      []byte
}

// ErrNotAPacket is returned by Decode when the input is not a valid DLNK
// datagram (too short, bad magic, or frag_count == 0). Per spec invariant
// 1, decoding such input never mutates reassembler state — Decode itself
// has no state to mutate, so this is automatic; callers must not act on
// a non-nil error beyond dropping the datagram.
var ErrNotAPacket = fmt.Errorf("wire: not a DLNK packet")

// Decode parses a raw UDP datagram into a Packet. It rejects len < 20,
// a mismatched magic, and frag_count == 0. A zero-length payload is
// permitted.
func Decode(buf []byte) (Packet, error) {
	if len(buf) < HeaderSize {
		return Packet{}, ErrNotAPacket
	}
	magic := binary.BigEndian.Uint32(buf[0:4])
	if magic != Magic {
		return Packet{}, ErrNotAPacket
	}
	fragCount := binary.BigEndian.Uint16(buf[10:12])
	if fragCount == 0 {
		return Packet{}, ErrNotAPacket
	}
	flags := buf[16]
	p := Packet{
		FrameSeq:     binary.BigEndian.Uint32(buf[4:8]),
		FragIndex:    binary.BigEndian.Uint16(buf[8:10]),
		FragCount:    fragCount,
		PtsMs:        binary.BigEndian.Uint32(buf[12:16]),
		IsKeyframe:   flags&0x01 != 0,
		DisplayIndex: buf[17],
		Payload:      buf[HeaderSize:],
	}
	return p, nil
}

// Encode serialises a Packet into a fresh byte slice: 20-byte header
// followed by the payload.
func Encode(p Packet) []byte {
	buf := make([]byte, HeaderSize+len(p.Payload))
	binary.BigEndian.PutUint32(buf[0:4], Magic)
	binary.BigEndian.PutUint32(buf[4:8], p.FrameSeq)
	binary.BigEndian.PutUint16(buf[8:10], p.FragIndex)
	binary.BigEndian.PutUint16(buf[10:12], p.FragCount)
	binary.BigEndian.PutUint32(buf[12:16], p.PtsMs)
	var flags uint8
	if p.IsKeyframe {
		flags |= 0x01
	}
	buf[16] = flags
	buf[17] = p.DisplayIndex
	// buf[18:20] reserved, already zero.
	copy(buf[HeaderSize:], p.Payload)
	return buf
}

// FragmentCount returns the number of fragments an access unit of size n
// splits into: ceil(n/MaxPayloadBytes), with a floor of 1 so that even an
// empty frame still emits one fragment (spec §4.D).
func FragmentCount(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + MaxPayloadBytes - 1) / MaxPayloadBytes
}
