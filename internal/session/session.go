// Package session implements the per-display state machine of spec
// §4.G: WaitingForHello -> DecoderInit -> Streaming ->
// Cooldown/hot-reload -> reconnect, bridging the async signaling/UDP
// world to a blocking decoder worker on a dedicated OS thread.
//
// Grounded almost entirely on
// original_source/linux-receiver/.../duallink-gui/src/receiver.rs's
// run/run_background_display reconnect loops: the outer reconnect loop,
// the inner streaming select, the 300ms cooldown, the pending_config
// hot-reload bypass, and the decoder spawn_blocking + bounded-channel +
// drop(tx);handle.await shutdown sequence. Go's nearest equivalent of a
// pinned blocking OS thread is a goroutine that calls
// runtime.LockOSThread() and never returns it to the scheduler's general
// pool until it exits.
package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/duallink/duallink/internal/adapter"
	"github.com/duallink/duallink/internal/inputqueue"
	"github.com/duallink/duallink/internal/model"
	"github.com/duallink/duallink/internal/ports"
	"github.com/duallink/duallink/internal/signaling/server"
	"github.com/duallink/duallink/internal/transport/udp"
	"github.com/duallink/duallink/internal/utils"
)

// Cooldown is the pause between reconnect attempts after a non-hot-reload
// exit (spec §4.G, §5).
const Cooldown = 300 * time.Millisecond

// DecoderChannelCapacity is the bounded bridge between the streaming loop
// and the dedicated decoder thread (spec §4.G: "capacity 64").
const DecoderChannelCapacity = 64

// ExitReason classifies why the Streaming loop broke (spec §4.G).
type ExitReason string

const (
	ExitSessionStopped    ExitReason = "session_stopped"
	ExitClientDisconnected ExitReason = "client_disconnected"
	ExitConfigUpdated     ExitReason = "config_updated"
	ExitDecodeThreadGone  ExitReason = "decode_thread_gone"
	ExitChannelsClosed    ExitReason = "channels_closed"
)

// DecoderFactory constructs a fresh adapter.Decoder for a given
// StreamConfig. Supplied by the caller, since Decoder implementations are
// out of scope for this repo (spec §1, §6).
type DecoderFactory func(cfg model.StreamConfig) (adapter.Decoder, error)

// Display drives one display's full lifecycle: bind UDP + TLS signaling
// ports, run the reconnect loop until ctx is cancelled or the signaling
// channels close for good.
type Display struct {
	Index      uint8
	VideoPort  int
	SignalPort int
	Cert       tls.Certificate
	PIN        string
	InputQueue *inputqueue.Queue
	NewDecoder DecoderFactory
	Log        *zap.Logger
}

// NewDisplay builds a Display for displayIndex using DualLink's fixed
// port arithmetic (spec §4.J).
func NewDisplay(displayIndex uint8, cert tls.Certificate, pin string, queue *inputqueue.Queue, newDecoder DecoderFactory, log *zap.Logger) *Display {
	if log == nil {
		log = zap.NewNop()
	}
	idx := int(displayIndex)
	return &Display{
		Index:      displayIndex,
		VideoPort:  ports.Video(idx),
		SignalPort: ports.Signaling(idx),
		Cert:       cert,
		PIN:        pin,
		InputQueue: queue,
		NewDecoder: newDecoder,
		Log:        log.With(zap.Uint8("display_index", displayIndex)),
	}
}

// Run drives the display's outer reconnect loop until ctx is cancelled.
// It never returns until the display reaches Terminal (ctx cancelled and
// the current attempt unwinds) — "process exit requires all n to reach
// Terminal" (spec §4.H) is the caller's responsibility across displays.
func (d *Display) Run(ctx context.Context) error {
	sigAddr := fmt.Sprintf("0.0.0.0:%d", d.SignalPort)
	srv, err := server.Listen(sigAddr, d.Cert, d.PIN, d.InputQueue, d.Log)
	if err != nil {
		return fmt.Errorf("session: display %d: %w", d.Index, err)
	}
	defer srv.Close()

	ingress, err := udp.Listen(d.VideoPort, d.Log)
	if err != nil {
		return fmt.Errorf("session: display %d: %w", d.Index, err)
	}
	defer ingress.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		reason, err := d.runOnce(ctx, srv, ingress)
		if err != nil {
			d.Log.Error("session: attempt failed", zap.Error(err))
		}
		if reason == ExitChannelsClosed {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(Cooldown):
		}
	}
}

// runOnce accepts one signaling connection, waits for hello, then drives
// DecoderInit -> Streaming (with in-place hot reload) until an exit
// reason that is not a resolution-changing ConfigUpdated.
func (d *Display) runOnce(ctx context.Context, srv *server.Server, ingress *udp.Ingress) (ExitReason, error) {
	acceptCh := make(chan acceptResult, 1)
	utils.GoSafe(d.Log, "session-accept", func() {
		conn, err := srv.Accept()
		acceptCh <- acceptResult{conn: conn, err: err}
	})

	var conn *server.Conn
	select {
	case <-ctx.Done():
		return ExitChannelsClosed, nil
	case res := <-acceptCh:
		if res.err != nil {
			return ExitChannelsClosed, res.err
		}
		conn = res.conn
	}
	defer conn.Close()

	events := make(chan server.Event, 8)
	utils.GoSafe(d.Log, "session-conn-run", func() { conn.Run(events) })

	var activeCfg model.StreamConfig
	select {
	case <-ctx.Done():
		return ExitChannelsClosed, nil
	case ev, ok := <-events:
		if !ok {
			return ExitClientDisconnected, nil
		}
		if ev.Kind != server.EventSessionStarted || ev.Config == nil {
			return ExitClientDisconnected, nil
		}
		activeCfg = *ev.Config
	}

	for {
		reason, pending, err := d.stream(ctx, ingress, events, activeCfg)
		if err != nil {
			return reason, err
		}
		if reason == ExitConfigUpdated && pending != nil {
			activeCfg = *pending
			continue // hot reload: re-enter DecoderInit without a new hello
		}
		return reason, nil
	}
}

type acceptResult struct {
	conn *server.Conn
	err  error
}

// stream implements DecoderInit(cfg) -> Streaming(cfg): it spins up a
// decoder on a dedicated goroutine, bridges reassembled frames to it, and
// loops until one of the exit reasons in spec §4.G fires.
func (d *Display) stream(ctx context.Context, ingress *udp.Ingress, events <-chan server.Event, cfg model.StreamConfig) (ExitReason, *model.StreamConfig, error) {
	dec, err := d.NewDecoder(cfg)
	if err != nil {
		return ExitDecodeThreadGone, nil, fmt.Errorf("session: decoder init: %w", err)
	}

	decodeCh := make(chan model.EncodedFrame, DecoderChannelCapacity)
	decodeDone := make(chan struct{})
	var closeDecodeChOnce sync.Once
	closeDecodeCh := func() { closeDecodeChOnce.Do(func() { close(decodeCh) }) }

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(decodeDone)
		defer func() {
			if r := recover(); r != nil {
				d.Log.Error("session: decoder worker panicked", zap.Any("recover", r))
			}
		}()
		// Push errors are counted and logged for the first 10, then
		// every 100th (spec §7).
		var pushErrs int
		for frame := range decodeCh {
			if pushErr := dec.PushFrame(ctx, frame); pushErr != nil {
				pushErrs++
				if pushErrs <= 10 || pushErrs%100 == 0 {
					d.Log.Error("session: decoder push failed", zap.Int("error_count", pushErrs), zap.Error(pushErr))
				}
			}
		}
	}()

	frames := make(chan model.EncodedFrame, udp.FrameChannelCapacity)
	ingressCtx, cancelIngress := context.WithCancel(ctx)
	ingressDone := make(chan error, 1)
	utils.GoSafe(d.Log, "session-ingress", func() {
		ingressDone <- ingress.Run(ingressCtx, frames)
	})

	// ingressStopped tracks whether ingressDone has already been drained
	// by the select loop below, so shutdown never receives from it twice
	// (ingressDone is sent to at most once by the Run goroutine).
	var ingressStopped bool
	shutdown := func() {
		cancelIngress()
		if !ingressStopped {
			// Wait for Run to actually stop reading before the socket
			// is reused by the next stream() cycle on this same Ingress.
			<-ingressDone
			ingressStopped = true
		}
		closeDecodeCh()
		<-decodeDone
		_ = dec.Close()
	}

	for {
		select {
		case <-ctx.Done():
			shutdown()
			return ExitChannelsClosed, nil, nil

		case ev, ok := <-events:
			if !ok {
				shutdown()
				return ExitClientDisconnected, nil, nil
			}
			switch ev.Kind {
			case server.EventSessionStopped:
				shutdown()
				return ExitSessionStopped, nil, nil
			case server.EventClientDisconnected:
				shutdown()
				return ExitClientDisconnected, nil, nil
			case server.EventConfigUpdated:
				if ev.Config == nil {
					continue
				}
				if cfg.SameResolution(*ev.Config) {
					cfg = *ev.Config
					continue // same-resolution update: observed, no restart
				}
				shutdown()
				pending := *ev.Config
				return ExitConfigUpdated, &pending, nil
			}

		case frame := <-frames:
			select {
			case decodeCh <- frame:
			default:
				d.Log.Debug("session: decoder channel full, waiting")
				select {
				case decodeCh <- frame:
				case <-ctx.Done():
					shutdown()
					return ExitChannelsClosed, nil, nil
				}
			}

		case <-decodeDone:
			shutdown()
			return ExitDecodeThreadGone, nil, nil

		case err := <-ingressDone:
			ingressStopped = true
			if err != nil {
				d.Log.Warn("session: ingress loop ended", zap.Error(err))
			}
			shutdown()
			return ExitChannelsClosed, nil, nil
		}
	}
}
