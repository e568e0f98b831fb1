package session

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duallink/duallink/internal/adapter"
	"github.com/duallink/duallink/internal/identity"
	"github.com/duallink/duallink/internal/inputqueue"
	"github.com/duallink/duallink/internal/model"
	"github.com/duallink/duallink/internal/signaling/client"
)

// fakeDecoder counts pushed frames; it implements adapter.Decoder without
// touching any real codec library (out of scope per spec §1/§6).
type fakeDecoder struct {
	mu     sync.Mutex
	pushed int
}

func (f *fakeDecoder) PushFrame(ctx context.Context, frame model.EncodedFrame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed++
	return nil
}
func (f *fakeDecoder) PollInputEvents() []model.InputEvent { return nil }
func (f *fakeDecoder) ElementName() string                 { return "fake" }
func (f *fakeDecoder) IsHardwareAccelerated() bool          { return false }
func (f *fakeDecoder) Close() error                         { return nil }

var _ adapter.Decoder = (*fakeDecoder)(nil)

func TestPortArithmeticWiring(t *testing.T) {
	disp := NewDisplay(3, tls.Certificate{}, "", nil, nil, nil)
	assert.Equal(t, 7884, disp.VideoPort)
	assert.Equal(t, 7885, disp.SignalPort)
}

// TestDisplay_FullLifecycle exercises Display.Run end-to-end: it points
// the display at a free signaling port and an ephemeral video port,
// completes a hello handshake, and checks that Run exits after context
// cancellation. No video frames are sent.
func TestDisplay_FullLifecycle(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)
	queue := inputqueue.New(nil)
	decoder := &fakeDecoder{}

	disp := NewDisplay(0, id.Certificate, id.PairingPIN, queue, func(cfg model.StreamConfig) (adapter.Decoder, error) {
		return decoder, nil
	}, nil)

	// Bind to ephemeral ports the same way Run does, but capture the
	// chosen signaling port so the test client can dial it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	require.NoError(t, ln.Close())
	disp.SignalPort = port
	disp.VideoPort = 0

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- disp.Run(ctx) }()

	// Give the listener a moment to bind.
	time.Sleep(50 * time.Millisecond)

	c, dialErr := client.Connect("127.0.0.1", disp.SignalPort, nil)
	require.NoError(t, dialErr)
	defer c.Close()

	result, helloErr := c.SendHello("s1", "phone", model.DefaultStreamConfig(), id.PairingPIN, 0)
	require.NoError(t, helloErr)
	assert.True(t, result.Accepted)

	cancel()
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Display.Run did not exit after context cancellation")
	}
}

// TestDisplay_SurvivesDisconnectAndReconnects pins spec §4.G's reconnect
// contract: a client_disconnected exit must not
// tear down the display's shared UDP Ingress, so a second client can
// still hello/stream immediately after. This exercises the fix for the
// bug where Ingress.Run closed the display's socket on every shutdown,
// permanently wedging the display after its first session.
func TestDisplay_SurvivesDisconnectAndReconnects(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)
	queue := inputqueue.New(nil)

	disp := NewDisplay(0, id.Certificate, id.PairingPIN, queue, func(cfg model.StreamConfig) (adapter.Decoder, error) {
		return &fakeDecoder{}, nil
	}, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	require.NoError(t, ln.Close())
	disp.SignalPort = port
	disp.VideoPort = 0

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan error, 1)
	go func() { runDone <- disp.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)

	// First session: connect, hello, then disconnect without a stop
	// message (client_disconnected exit path).
	c1, err := client.Connect("127.0.0.1", disp.SignalPort, nil)
	require.NoError(t, err)
	result1, err := c1.SendHello("s1", "phone", model.DefaultStreamConfig(), id.PairingPIN, 0)
	require.NoError(t, err)
	require.True(t, result1.Accepted)
	require.NoError(t, c1.Close())

	// Give the display time to observe the disconnect, run its
	// Cooldown, and re-Accept.
	time.Sleep(Cooldown + 300*time.Millisecond)

	// Second session on the same display: this only succeeds if the
	// display's shared Ingress and signaling listener both survived the
	// first session's shutdown.
	c2, err := client.Connect("127.0.0.1", disp.SignalPort, nil)
	require.NoError(t, err)
	defer c2.Close()
	result2, err := c2.SendHello("s2", "phone", model.DefaultStreamConfig(), id.PairingPIN, 0)
	require.NoError(t, err)
	assert.True(t, result2.Accepted, "display must accept a second session after the first client disconnected, not become Terminal")

	cancel()
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Display.Run did not exit after context cancellation")
	}
}
