package udp

import (
	"fmt"
	"net"
	"sync/atomic"

	"github.com/duallink/duallink/internal/model"
	"github.com/duallink/duallink/internal/wire"
)

// Egress sends encoded access units to one peer over a "connected" UDP
// socket, fragmenting per spec §4.D.
//
// Resolved divergence from original_source: the Rust video_sender.rs
// early-returns without sending anything when the frame is empty; spec
// §4.D's literal text requires >=1 fragment always, including for an
// empty frame, so Egress always emits at least one datagram per SendFrame
// call (see SPEC_FULL.md / DESIGN.md).
type Egress struct {
	conn         *net.UDPConn
	displayIndex uint8
	frameSeq     atomic.Uint32
	framesSent   atomic.Uint64
}

// Dial binds an ephemeral local port and "connects" it to remoteAddr
// (host:port), mirroring the Rust sender's bind-then-connect pattern.
func Dial(remoteAddr string, displayIndex uint8) (*Egress, error) {
	raddr, err := net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		return nil, fmt.Errorf("udp: resolve remote addr %q: %w", remoteAddr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("udp: dial %q: %w", remoteAddr, err)
	}
	return &Egress{conn: conn, displayIndex: displayIndex}, nil
}

// Close releases the underlying socket.
func (e *Egress) Close() error {
	return e.conn.Close()
}

// RemoteAddr reports the peer address this Egress is connected to.
func (e *Egress) RemoteAddr() net.Addr {
	return e.conn.RemoteAddr()
}

// FramesSent reports the number of frames (not fragments) sent so far.
func (e *Egress) FramesSent() uint64 {
	return e.framesSent.Load()
}

// SendFrame fragments frame into ceil(len(data)/MaxPayloadBytes) (floor 1)
// DLNK datagrams and sends them sequentially on the connected socket,
// incrementing frame_seq once per call.
func (e *Egress) SendFrame(frame model.EncodedFrame) error {
	seq := e.frameSeq.Add(1) - 1
	data := frame.Data
	fragCount := wire.FragmentCount(len(data))
	ptsMs := uint32(frame.TimestampUs / 1000)

	for i := 0; i < fragCount; i++ {
		start := i * wire.MaxPayloadBytes
		end := start + wire.MaxPayloadBytes
		if end > len(data) {
			end = len(data)
		}
		var payload []byte
		if start < len(data) {
			payload = data[start:end]
		}
		pkt := wire.Packet{
			FrameSeq:     seq,
			FragIndex:    uint16(i),
			FragCount:    uint16(fragCount),
			PtsMs:        ptsMs,
			IsKeyframe:   frame.IsKeyframe,
			DisplayIndex: e.displayIndex,
			Payload:      payload,
		}
		buf := wire.Encode(pkt)
		if _, err := e.conn.Write(buf); err != nil {
			return fmt.Errorf("udp: send fragment %d/%d of frame %d: %w", i, fragCount, seq, err)
		}
	}
	e.framesSent.Add(1)
	return nil
}
