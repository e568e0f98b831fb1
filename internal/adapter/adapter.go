// Package adapter declares the external collaborator contracts that spec
// §1 places explicitly out of scope: the media decoder/encoder plugins,
// screen capture backends, and input injection backends. They are
// specified here only as Go interfaces (spec §6 "Adapter contracts"),
// never implemented concretely — a production deployment would satisfy
// these with something like the teacher's goav (FFmpeg)/go-sdl2/robotgo
// stack, but wiring a concrete backend is out of this repo's scope (see
// DESIGN.md's dependency-drop ledger).
package adapter

import (
	"context"

	"github.com/duallink/duallink/internal/model"
)

// RawFrame is an opaque, unparsed raw video frame in whatever pixel
// format the active Capturer/Decoder pair agreed on. Its shape is not
// specified further here: the out-of-scope collaborators on either side
// own that contract.
type RawFrame struct {
	Width, Height int
	PixelFormat   string
	Data          []byte
}

// Decoder is the opaque FramePipe referenced in spec §1: it accepts
// access units and emits raw frames, and is released by Close. In
// internal/session, PushFrame is called from a goroutine locked to its
// own OS thread; the DecoderFactory that constructs the decoder and the
// Close call both run on the session goroutine, not on that thread.
type Decoder interface {
	// PushFrame submits one EncodedFrame for decoding.
	PushFrame(ctx context.Context, frame model.EncodedFrame) error
	// PollInputEvents returns any input events the decoder's owned
	// window surface observed since the last call (spec §6).
	PollInputEvents() []model.InputEvent
	// ElementName identifies the underlying decoder element, e.g. for
	// diagnostics ("avdec_h264", "vtdec", ...).
	ElementName() string
	// IsHardwareAccelerated reports whether this decoder instance uses
	// hardware acceleration.
	IsHardwareAccelerated() bool
	// Close releases the decoder and its dedicated thread.
	Close() error
}

// Encoder is the sender-side counterpart to Decoder.
type Encoder interface {
	PushFrame(ctx context.Context, frame RawFrame) error
	NextEncoded() (model.EncodedFrame, bool)
	SendEOS() error
}

// Capturer is a screen capture backend (portal-based,
// monitor-handle-based, ...).
type Capturer interface {
	Open(ctx context.Context, cfg model.StreamConfig) error
	NextFrame() (RawFrame, bool)
	Close() error
}

// Injector delivers an InputEvent to the local OS input subsystem.
type Injector interface {
	Inject(ev model.InputEvent) error
}
