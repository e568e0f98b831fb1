// Package supervisor fans out N independent display sessions sharing one
// TLS identity, PIN, and input channel (spec §4.H).
//
// Grounded on the teacher's internal/device/manager.go Manager
// (sync.RWMutex-guarded maps of per-entity sessions with Add/Remove/Get
// methods), generalised from a map keyed by dynamically-discovered
// device IP to a fixed-size slice indexed by display index [0, n), since
// DualLink's display count is bounded and known at startup (spec §4.H,
// §6 DUALLINK_DISPLAY_COUNT), unlike the teacher's ADB device discovery.
package supervisor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/duallink/duallink/internal/adapter"
	"github.com/duallink/duallink/internal/config"
	"github.com/duallink/duallink/internal/identity"
	"github.com/duallink/duallink/internal/inputqueue"
	"github.com/duallink/duallink/internal/model"
	"github.com/duallink/duallink/internal/session"
)

// Supervisor owns one identity.Identity and a fixed slice of
// session.Display instances, one per display index.
type Supervisor struct {
	mu       sync.RWMutex
	displays []*session.Display
	identity *identity.Identity
	queue    *inputqueue.Queue
	log      *zap.Logger
}

// New generates a fresh TLS identity + PIN and constructs n displays (n
// is clamped to [config.MinDisplays, config.MaxDisplays] here via
// config.ClampDisplayCount), all sharing one input queue.
func New(n int, newDecoder session.DecoderFactory, log *zap.Logger) (*Supervisor, error) {
	if log == nil {
		log = zap.NewNop()
	}
	n = config.ClampDisplayCount(n)

	id, err := identity.Generate()
	if err != nil {
		return nil, fmt.Errorf("supervisor: generate identity: %w", err)
	}

	queue := inputqueue.New(log)
	displays := make([]*session.Display, n)
	for i := 0; i < n; i++ {
		displays[i] = session.NewDisplay(uint8(i), id.Certificate, id.PairingPIN, queue, newDecoder, log)
	}

	return &Supervisor{
		displays: displays,
		identity: id,
		queue:    queue,
		log:      log,
	}, nil
}

// Identity returns the shared session identity (PIN + fingerprint), e.g.
// for mDNS advertisement or operator display.
func (s *Supervisor) Identity() model.SessionIdentity {
	return s.identity.SessionIdentity
}

// DisplayCount reports how many displays this supervisor manages.
func (s *Supervisor) DisplayCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.displays)
}

// Display returns the display at index idx, or nil if out of range.
func (s *Supervisor) Display(idx int) *session.Display {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx < 0 || idx >= len(s.displays) {
		return nil
	}
	return s.displays[idx]
}

// Run starts every display's reconnect loop and blocks until all of them
// reach Terminal — i.e. until ctx is cancelled and every display's Run
// call has returned (spec §4.H: "process exit requires all n to reach
// Terminal"; exiting any one display does not tear down the others).
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.RLock()
	displays := make([]*session.Display, len(s.displays))
	copy(displays, s.displays)
	s.mu.RUnlock()

	var wg sync.WaitGroup
	errs := make([]error, len(displays))
	for i, d := range displays {
		wg.Add(1)
		go func(i int, d *session.Display) {
			defer wg.Done()
			if err := d.Run(ctx); err != nil {
				errs[i] = err
				s.log.Error("supervisor: display exited with error", zap.Uint8("display_index", d.Index), zap.Error(err))
			}
		}(i, d)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("supervisor: at least one display failed: %w", err)
		}
	}
	return nil
}

// noopDecoderFactory is a placeholder DecoderFactory usable only where no
// real adapter.Decoder is configured (e.g. smoke-testing the supervisor
// wiring without a decode backend). It returns adapter.Decoder values
// that drop every frame; production callers must supply their own
// DecoderFactory bound to a real out-of-scope collaborator.
func noopDecoderFactory(model.StreamConfig) (adapter.Decoder, error) {
	return nopDecoder{}, nil
}

type nopDecoder struct{}

func (nopDecoder) PushFrame(ctx context.Context, frame model.EncodedFrame) error { return nil }
func (nopDecoder) PollInputEvents() []model.InputEvent                           { return nil }
func (nopDecoder) ElementName() string                                          { return "noop" }
func (nopDecoder) IsHardwareAccelerated() bool                                   { return false }
func (nopDecoder) Close() error                                                  { return nil }

// NoopDecoderFactory exposes noopDecoderFactory for callers (notably
// cmd/duallink-receiver) that have not wired a real decoder adapter yet.
var NoopDecoderFactory session.DecoderFactory = noopDecoderFactory
