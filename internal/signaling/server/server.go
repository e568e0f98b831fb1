// Package server implements the receiver-side signaling state machine
// (spec §4.E): TLS accept loop, hello/PIN validation, session events, and
// the single-consumer input forwarder.
//
// Grounded on original_source/linux-receiver/.../duallink-gui/src/receiver.rs
// for the overall connection lifecycle and on the teacher's
// internal/webrtc/handler.go for the per-connection-goroutine accept-loop
// shape (WebRTC/SDP specifics do not apply and are not carried over).
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/duallink/duallink/internal/inputqueue"
	"github.com/duallink/duallink/internal/model"
	"github.com/duallink/duallink/internal/ports"
	"github.com/duallink/duallink/internal/utils"
	"github.com/duallink/duallink/internal/wire"
)

// EventKind tags the events this server emits to its caller (the session
// state machine, §4.G).
type EventKind string

const (
	EventSessionStarted     EventKind = "session_started"
	EventSessionStopped     EventKind = "session_stopped"
	EventClientDisconnected EventKind = "client_disconnected"
	EventConfigUpdated      EventKind = "config_updated"
)

// Event is one signaling-server-observed occurrence for a display.
type Event struct {
	Kind      EventKind
	SessionID string
	Config    *model.StreamConfig
}

// Server accepts TLS connections for one display's signaling port and
// drives the per-connection state machine from spec §4.E's table.
type Server struct {
	listener net.Listener
	pin      string
	queue    *inputqueue.Queue
	log      *zap.Logger
}

// Listen binds addr with TLS using cert, and returns a Server ready to
// Accept connections. pin is the receiver's pairing PIN (shared across
// all displays, spec §4.H); queue is the shared single-consumer input
// channel.
func Listen(addr string, cert tls.Certificate, pin string, queue *inputqueue.Queue, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	tlsCfg := &tls.Config{Certificates: []tls.Certificate{cert}}
	tcpLn, err := ports.ListenConfig().Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("signaling/server: bind %q: %w", addr, err)
	}
	ln := tls.NewListener(tcpLn, tlsCfg)
	return &Server{listener: ln, pin: pin, queue: queue, log: log}, nil
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Accept blocks for the next incoming connection and returns a *Conn
// representing it in the Awaiting-Hello state. The TLS handshake is not
// run here: it runs on the connection's first read in Run, and a failed
// handshake ends Run like any other read error. A non-nil error here
// means the listener itself failed (e.g. Close was called).
func (s *Server) Accept() (*Conn, error) {
	raw, err := s.listener.Accept()
	if err != nil {
		return nil, fmt.Errorf("signaling/server: accept: %w", err)
	}
	return &Conn{
		raw:    raw,
		reader: wire.NewFrameReader(raw),
		writer: wire.NewFrameWriter(raw),
		pin:    s.pin,
		queue:  s.queue,
		log:    s.log,
	}, nil
}

// Conn drives one accepted connection through the Awaiting-Hello ->
// Session -> Closed lifecycle of spec §4.E's table.
type Conn struct {
	raw    net.Conn
	reader *wire.FrameReader
	writer *wire.FrameWriter
	pin    string
	queue  *inputqueue.Queue
	log    *zap.Logger

	sessionID      string
	forwarderOwned bool
	stopForwarder  chan struct{}
}

// Close closes the underlying connection and releases the input-queue
// forwarder slot if this connection held it.
func (c *Conn) Close() error {
	if c.forwarderOwned {
		if c.stopForwarder != nil {
			close(c.stopForwarder)
		}
		c.queue.Release()
		c.forwarderOwned = false
	}
	return c.raw.Close()
}

// Run drives the connection's state machine, pushing Events to events
// until the connection closes. It blocks until then.
func (c *Conn) Run(events chan<- Event) {
	defer close(events)

	msg, err := c.reader.ReadMessage()
	if err != nil {
		c.log.Debug("signaling/server: awaiting-hello read failed", zap.Error(err))
		return
	}
	if msg.Type != model.MessageHello {
		c.log.Warn("signaling/server: expected hello, got different type", zap.String("type", string(msg.Type)))
		return
	}

	if msg.PairingPIN != c.pin {
		ack := model.NewHelloAck(msg.SessionID, false, "Invalid pairing PIN")
		_ = c.writer.WriteMessage(ack)
		return
	}

	c.sessionID = msg.SessionID
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	if err := c.writer.WriteMessage(model.NewHelloAck(c.sessionID, true, "")); err != nil {
		return
	}

	events <- Event{Kind: EventSessionStarted, SessionID: c.sessionID, Config: msg.Config}

	c.forwarderOwned = c.queue.Acquire()
	if c.forwarderOwned {
		c.stopForwarder = make(chan struct{})
		utils.GoSafe(c.log, "signaling-server-forwarder", func() { c.runForwarder() })
	}

	c.runSession(events)
}

// runSession implements the "Session" row of spec §4.E's table. A
// transport-level read failure disconnects the client; a JSON parse
// error is logged and the loop continues reading, per the table's
// distinct "JSON parse error" row.
func (c *Conn) runSession(events chan<- Event) {
	for {
		body, err := c.reader.ReadBytes()
		if err != nil {
			events <- Event{Kind: EventClientDisconnected, SessionID: c.sessionID}
			return
		}
		var msg model.SignalingMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			c.log.Warn("signaling/server: malformed JSON frame", zap.Error(err))
			continue
		}
		switch msg.Type {
		case model.MessageConfigUpdate:
			events <- Event{Kind: EventConfigUpdated, SessionID: c.sessionID, Config: msg.Config}
		case model.MessageKeepalive:
			// ignored
		case model.MessageStop:
			events <- Event{Kind: EventSessionStopped, SessionID: c.sessionID}
			return
		case model.MessageHelloAck, model.MessageInputEvent:
			// not expected from this peer; ignore.
		default:
			c.log.Warn("signaling/server: unexpected message type", zap.String("type", string(msg.Type)))
		}
	}
}

// runForwarder drains the shared input queue and writes input_event
// messages to this connection, for as long as this connection holds the
// single-consumer slot. It exits (and releases the slot) on any write
// failure.
func (c *Conn) runForwarder() {
	defer func() {
		c.queue.Release()
		c.forwarderOwned = false
	}()
	for {
		select {
		case <-c.stopForwarder:
			return
		case ev := <-c.queue.Recv():
			if err := c.writer.WriteMessage(model.NewInputEventMessage(ev)); err != nil {
				c.log.Debug("signaling/server: forwarder write failed", zap.Error(err))
				return
			}
		}
	}
}
