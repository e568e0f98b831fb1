package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamConfig_CamelCaseRoundTrip(t *testing.T) {
	cfg := DefaultStreamConfig()
	body, err := json.Marshal(cfg)
	require.NoError(t, err)

	var got StreamConfig
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, cfg, got)
}

func TestStreamConfig_SnakeCaseDecodes(t *testing.T) {
	body := []byte(`{
		"resolution": {"width": 2560, "height": 1440},
		"target_fps": 60,
		"max_bitrate_bps": 12000000,
		"codec": "h265",
		"low_latency": false
	}`)
	var got StreamConfig
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, ResolutionQHD, got.Resolution)
	assert.Equal(t, uint32(60), got.TargetFPS)
	assert.Equal(t, uint64(12_000_000), got.MaxBitrateBps)
	assert.Equal(t, CodecH265, got.Codec)
	assert.False(t, got.LowLatency)
}

func TestStreamConfig_CamelCaseDecodes(t *testing.T) {
	body := []byte(`{
		"resolution": {"width": 2560, "height": 1440},
		"targetFps": 60,
		"maxBitrateBps": 12000000,
		"codec": "h265",
		"lowLatency": false
	}`)
	var got StreamConfig
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, uint32(60), got.TargetFPS)
	assert.Equal(t, uint64(12_000_000), got.MaxBitrateBps)
}

func TestInputEvent_JSONRoundTrip(t *testing.T) {
	cases := []InputEvent{
		{Type: InputMouseMove, X: 0.5, Y: 0.25, DisplayIndex: 0},
		{Type: InputMouseDown, X: 0.1, Y: 0.9, Button: MouseButtonLeft},
		{Type: InputKeyDown, Keycode: 0xFF0D},
		{Type: InputGesturePinch, Scale: 1.5, Phase: GesturePhaseChanged, X: 0.3, Y: 0.3},
		{Type: InputScrollSmooth, DeltaX: 1.2, DeltaY: -3.4},
	}
	for _, ev := range cases {
		body, err := json.Marshal(ev)
		require.NoError(t, err)
		var got InputEvent
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, ev, got)
	}
}

func TestInputEvent_ClampsCoordinates(t *testing.T) {
	ev := InputEvent{Type: InputMouseMove, X: 1.5, Y: -0.5}
	ev.Clamp()
	assert.Equal(t, 1.0, ev.X)
	assert.Equal(t, 0.0, ev.Y)
}

func TestSignalingMessage_JSONRoundTrip(t *testing.T) {
	cfg := DefaultStreamConfig()
	msgs := []SignalingMessage{
		NewHello("s1", "phone", cfg, "123456", 2),
		NewHelloAck("s1", false, "Invalid pairing PIN"),
		NewConfigUpdate("s1", cfg),
		NewKeepalive(1234),
		NewStop("s1"),
		NewInputEventMessage(InputEvent{Type: InputMouseUp, X: 0.2, Y: 0.8}),
	}
	for _, m := range msgs {
		body, err := json.Marshal(m)
		require.NoError(t, err)
		var got SignalingMessage
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, m.Type, got.Type)
		assert.Equal(t, m.SessionID, got.SessionID)
	}
}
