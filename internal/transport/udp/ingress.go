// Package udp implements DualLink's per-display UDP ingress and egress
// (spec §4.D). Egress uses a "connected" UDP socket the way
// original_source/linux-sender/.../video_sender.rs binds 0.0.0.0:0 then
// connects to the peer; Ingress publishes completed frames with a
// blocking channel send, so a full frame channel backpressures its read
// loop.
package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/duallink/duallink/internal/model"
	"github.com/duallink/duallink/internal/reassembly"
	"github.com/duallink/duallink/internal/wire"
)

// RecvBufferSize is the UDP receive buffer per spec §4.D.
const RecvBufferSize = 65535

// readPollInterval bounds how long a single Read blocks before Run
// rechecks ctx, so a cancelled ctx is observed promptly without ever
// closing the Ingress's socket (the socket is shared across every
// Run call for this display's lifetime — see Listen/Close).
const readPollInterval = 200 * time.Millisecond

// FrameChannelCapacity is the per-display completed-frame channel
// capacity (spec §4.D: "bounded, size 64").
const FrameChannelCapacity = 64

// Ingress binds one UDP socket for a display, decodes DLNK datagrams, and
// feeds them through a Reassembler, publishing completed frames.
type Ingress struct {
	conn        *net.UDPConn
	reassembler *reassembly.Reassembler
	log         *zap.Logger
}

// Listen binds 0.0.0.0:port and constructs an Ingress. The bind failure
// path here is the spec §7 Fatal error ("failure to bind any display's
// UDP ... port") — callers should treat a non-nil error as fatal to
// process startup.
func Listen(port int, log *zap.Logger) (*Ingress, error) {
	if log == nil {
		log = zap.NewNop()
	}
	addr := &net.UDPAddr{IP: net.IPv4zero, Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("udp: bind port %d: %w", port, err)
	}
	return &Ingress{
		conn:        conn,
		reassembler: reassembly.New(log),
		log:         log,
	}, nil
}

// Close releases the underlying socket.
func (in *Ingress) Close() error {
	return in.conn.Close()
}

// Run reads datagrams until ctx is cancelled or the socket errors,
// publishing completed frames to frames. Per spec §5, when frames is
// full the publish blocks, which backpressures the read loop and lets
// UDP datagrams drop at the kernel level — fragment loss then surfaces
// as reassembler eviction roughly 2s later.
//
// Run never closes the underlying socket: a display's Ingress is bound
// once (session.Display.Run) and Run is called again for every
// reconnect and hot-reload cycle (session.Display.stream), so closing
// on ctx-done here would permanently kill the socket after the first
// session. Cancellation is instead observed by polling ctx between
// short read-deadline timeouts, the same "Read with a deadline, check
// ctx, loop" idiom the teacher's internal/stream package uses for its
// own cancellable socket reads.
func (in *Ingress) Run(ctx context.Context, frames chan<- model.EncodedFrame) error {
	buf := make([]byte, RecvBufferSize)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := in.conn.SetReadDeadline(time.Now().Add(readPollInterval)); err != nil {
			return fmt.Errorf("udp: set read deadline: %w", err)
		}
		n, err := in.conn.Read(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			in.log.Warn("udp: recv error", zap.Error(err))
			return fmt.Errorf("udp: recv: %w", err)
		}
		pkt, err := wire.Decode(buf[:n])
		if err != nil {
			in.log.Debug("udp: dropped malformed datagram", zap.Error(err))
			continue
		}
		// pkt.Payload aliases buf, which the next Read overwrites; the
		// reassembler keeps fragments across reads, so hand it a copy.
		payload := make([]byte, len(pkt.Payload))
		copy(payload, pkt.Payload)
		pkt.Payload = payload
		frame, ok := in.reassembler.Ingest(pkt)
		if !ok {
			continue
		}
		select {
		case frames <- frame:
		case <-ctx.Done():
			return nil
		}
	}
}
