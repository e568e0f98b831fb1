// Package model holds the wire-adjacent value types shared across
// DualLink's transport, signaling, and session packages.
package model

import (
	"encoding/json"
	"time"
)

// Resolution is a display resolution in pixels. Immutable per session
// except via a config_update message.
type Resolution struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Codec identifies the video codec tag carried in the hello message.
type Codec string

const (
	CodecH264 Codec = "h264"
	CodecH265 Codec = "h265"
)

// Common resolution presets, named the way the original Rust core named
// them (FHD/QHD/UHD), kept for config defaults and tests.
var (
	ResolutionFHD = Resolution{Width: 1920, Height: 1080}
	ResolutionQHD = Resolution{Width: 2560, Height: 1440}
	ResolutionUHD = Resolution{Width: 3840, Height: 2160}
)

// StreamConfig describes the active (or requested) video stream
// parameters. It must deserialize from both snake_case and camelCase key
// spellings, since the sender and receiver may be built at different
// times and the wire format tolerates either.
type StreamConfig struct {
	Resolution    Resolution `json:"resolution"`
	TargetFPS     uint32     `json:"targetFps"`
	MaxBitrateBps uint64     `json:"maxBitrateBps"`
	Codec         Codec      `json:"codec"`
	LowLatency    bool       `json:"lowLatency"`
}

// streamConfigWire is the canonical (camelCase) wire shape, used for
// MarshalJSON so this repo always emits camelCase.
type streamConfigWire struct {
	Resolution    Resolution `json:"resolution"`
	TargetFPS     uint32     `json:"targetFps"`
	MaxBitrateBps uint64     `json:"maxBitrateBps"`
	Codec         Codec      `json:"codec"`
	LowLatency    bool       `json:"lowLatency"`
}

// MarshalJSON always emits the camelCase wire shape.
func (c StreamConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(streamConfigWire(c))
}

// UnmarshalJSON accepts both snake_case and camelCase spellings of every
// field, per spec §3 ("Must deserialize both snake_case and camelCase key
// forms (wire compatibility)") and invariant 9.
func (c *StreamConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	pick := func(names ...string) json.RawMessage {
		for _, n := range names {
			if v, ok := raw[n]; ok {
				return v
			}
		}
		return nil
	}
	var out StreamConfig
	if v := pick("resolution"); v != nil {
		if err := json.Unmarshal(v, &out.Resolution); err != nil {
			return err
		}
	}
	if v := pick("targetFps", "target_fps"); v != nil {
		if err := json.Unmarshal(v, &out.TargetFPS); err != nil {
			return err
		}
	}
	if v := pick("maxBitrateBps", "max_bitrate_bps"); v != nil {
		if err := json.Unmarshal(v, &out.MaxBitrateBps); err != nil {
			return err
		}
	}
	if v := pick("codec"); v != nil {
		if err := json.Unmarshal(v, &out.Codec); err != nil {
			return err
		}
	}
	if v := pick("lowLatency", "low_latency"); v != nil {
		if err := json.Unmarshal(v, &out.LowLatency); err != nil {
			return err
		}
	}
	*c = out
	return nil
}

// DefaultStreamConfig matches spec §3: 1920x1080, 30fps, 8Mbps, h264, low
// latency enabled.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Resolution:    ResolutionFHD,
		TargetFPS:     30,
		MaxBitrateBps: 8_000_000,
		Codec:         CodecH264,
		LowLatency:    true,
	}
}

// HighPerformanceStreamConfig raises the frame rate to 60 and the bitrate
// to 12 Mb/s at the default resolution, mirroring the original core's
// high_performance() preset.
func HighPerformanceStreamConfig() StreamConfig {
	cfg := DefaultStreamConfig()
	cfg.TargetFPS = 60
	cfg.MaxBitrateBps = 12_000_000
	return cfg
}

// FrameInterval returns the nominal inter-frame interval for TargetFPS.
func (c StreamConfig) FrameInterval() time.Duration {
	if c.TargetFPS == 0 {
		return 0
	}
	return time.Second / time.Duration(c.TargetFPS)
}

// SameResolution reports whether two configs share identical resolution,
// the condition that decides whether a config_update triggers a decoder
// restart (spec §4.G).
func (c StreamConfig) SameResolution(other StreamConfig) bool {
	return c.Resolution == other.Resolution
}

// EncodedFrame is one complete H.264 (or H.265) access unit, produced by
// the reassembler and consumed by the decoder worker. Immutable once
// constructed.
type EncodedFrame struct {
	Data        []byte
	TimestampUs uint64
	IsKeyframe  bool
	Codec       Codec
}

// SessionIdentity is generated once at receiver startup and lives for the
// process lifetime.
type SessionIdentity struct {
	PairingPIN     string
	TLSFingerprint string
}

// DisplayChannels are the per-display handles exposed to the orchestrator.
type DisplayChannels struct {
	DisplayIndex uint8
	FrameRx      <-chan EncodedFrame
	EventRx      <-chan InputEvent
}
