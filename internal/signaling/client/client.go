// Package client implements the sender-side signaling client (spec
// §4.F): TOFU TLS connect, hello/hello_ack handshake, SignalingWriter,
// and a background recv loop publishing input_events to a bounded
// channel.
//
// Grounded directly on
// original_source/linux-sender/.../duallink-transport-client/src/signaling.rs
// (TofuCertVerifier, SignalingClient::connect, send_hello,
// start_recv_loop/SignalingWriter). Go's crypto/tls has no pluggable
// ServerCertVerifier trait in the rustls shape; InsecureSkipVerify plus a
// VerifyPeerCertificate callback that records (never rejects) the peer's
// certificate achieves the same trust-on-first-use effect.
package client

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"net"
	"strings"

	"go.uber.org/zap"

	"github.com/duallink/duallink/internal/model"
	"github.com/duallink/duallink/internal/utils"
	"github.com/duallink/duallink/internal/wire"
)

// InputEventChannelCapacity is the sender-side recv loop's output buffer
// (spec §4.F: "capacity 256").
const InputEventChannelCapacity = 256

// HelloResult is what SendHello's hello handshake yields.
type HelloResult struct {
	Accepted  bool
	Reason    string
	SessionID string
}

// Client holds an established, authenticated TLS signaling connection
// split into its Writer half and a background-fed input event channel.
type Client struct {
	conn   *tls.Conn
	reader *wire.FrameReader
	writer *wire.FrameWriter
	log    *zap.Logger

	// PeerFingerprint is the SHA-256 fingerprint of the server
	// certificate observed on first connect, colon-separated uppercase
	// hex — the TOFU value a UI would display to the user.
	PeerFingerprint string
}

// tofuVerifyConnection builds a VerifyPeerCertificate callback that
// accepts any certificate (trust-on-first-use) but records its SHA-256
// fingerprint into fpOut.
func tofuVerifyConnection(fpOut *string) func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return fmt.Errorf("signaling/client: no server certificate presented")
		}
		sum := sha256.Sum256(rawCerts[0])
		parts := make([]string, len(sum))
		for i, b := range sum {
			parts[i] = strings.ToUpper(hex.EncodeToString([]byte{b}))
		}
		*fpOut = strings.Join(parts, ":")
		return nil
	}
}

// Connect dials host:port over TCP, performs a TOFU TLS handshake (SNI is
// the IP literal when host is numeric, matching the Rust client), and
// returns a Client ready for SendHello.
func Connect(host string, port int, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	var fp string
	tlsCfg := &tls.Config{
		InsecureSkipVerify:    true,
		VerifyPeerCertificate: tofuVerifyConnection(&fp),
		ServerName:            host,
	}
	conn, err := tls.Dial("tcp", addr, tlsCfg)
	if err != nil {
		return nil, fmt.Errorf("signaling/client: dial %q: %w", addr, err)
	}
	return &Client{
		conn:            conn,
		reader:          wire.NewFrameReader(conn),
		writer:          wire.NewFrameWriter(conn),
		log:             log,
		PeerFingerprint: fp,
	}, nil
}

// Close closes the underlying TLS connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// SendHello sends a hello message and reads messages until a hello_ack
// arrives, ignoring any other message type in between (spec §4.F).
func (c *Client) SendHello(sessionID, deviceName string, cfg model.StreamConfig, pin string, displayIndex uint8) (HelloResult, error) {
	hello := model.NewHello(sessionID, deviceName, cfg, pin, displayIndex)
	if err := c.writer.WriteMessage(hello); err != nil {
		return HelloResult{}, fmt.Errorf("signaling/client: send hello: %w", err)
	}
	for {
		msg, err := c.reader.ReadMessage()
		if err != nil {
			return HelloResult{}, fmt.Errorf("signaling/client: read hello_ack: %w", err)
		}
		if msg.Type != model.MessageHelloAck {
			continue
		}
		return HelloResult{Accepted: msg.Accepted, Reason: msg.Reason, SessionID: msg.SessionID}, nil
	}
}

// Writer returns a SignalingWriter bound to this connection's write half.
func (c *Client) Writer() *SignalingWriter {
	return &SignalingWriter{writer: c.writer}
}

// StartRecvLoop launches a background goroutine that reads messages and
// publishes each input_event's payload to the returned channel, until a
// stop message arrives or the transport errors. An event that arrives
// while the channel is full is dropped. The channel is closed when the
// loop exits.
func (c *Client) StartRecvLoop() <-chan model.InputEvent {
	out := make(chan model.InputEvent, InputEventChannelCapacity)
	utils.GoSafe(c.log, "signaling-client-recv-loop", func() {
		defer close(out)
		for {
			msg, err := c.reader.ReadMessage()
			if err != nil {
				c.log.Debug("signaling/client: recv loop transport error", zap.Error(err))
				return
			}
			switch msg.Type {
			case model.MessageStop:
				return
			case model.MessageInputEvent:
				if msg.InputEvent == nil {
					continue
				}
				select {
				case out <- *msg.InputEvent:
				default:
					c.log.Debug("signaling/client: dropped input event, consumer channel full")
				}
			default:
				// hello/hello_ack/config_update/keepalive are not
				// expected from this peer on this path; ignore.
			}
		}
	})
	return out
}

// SignalingWriter is the write half of an established signaling
// connection (spec §4.F).
type SignalingWriter struct {
	writer *wire.FrameWriter
}

// SendKeepalive sends a keepalive message.
func (w *SignalingWriter) SendKeepalive(timestampMs uint64) error {
	return w.writer.WriteMessage(model.NewKeepalive(timestampMs))
}

// SendConfigUpdate sends a config_update message.
func (w *SignalingWriter) SendConfigUpdate(sessionID string, cfg model.StreamConfig) error {
	return w.writer.WriteMessage(model.NewConfigUpdate(sessionID, cfg))
}

// SendStop sends a stop message.
func (w *SignalingWriter) SendStop(sessionID string) error {
	return w.writer.WriteMessage(model.NewStop(sessionID))
}
