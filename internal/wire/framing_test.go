package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duallink/duallink/internal/model"
)

func TestFrameWriterReader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewFrameWriter(&buf)
	msg := model.NewHello("sess-1", "my-phone", model.DefaultStreamConfig(), "123456", 0)
	require.NoError(t, w.WriteMessage(msg))

	r := NewFrameReader(&buf)
	got, err := r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, msg.Type, got.Type)
	assert.Equal(t, msg.SessionID, got.SessionID)
	assert.Equal(t, msg.PairingPIN, got.PairingPIN)
	require.NotNil(t, got.Config)
	assert.Equal(t, msg.Config.Resolution, got.Config.Resolution)
}

func TestFrameReader_RejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewFrameWriter(&buf)
	big := bytes.Repeat([]byte("a"), MaxFrameBytes+1)
	require.NoError(t, w.WriteBytes(big))

	r := NewFrameReader(&buf)
	_, err := r.ReadBytes()
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestFrameReader_UnknownFieldsIgnored(t *testing.T) {
	var buf bytes.Buffer
	w := NewFrameWriter(&buf)
	require.NoError(t, w.WriteBytes([]byte(`{"type":"keepalive","timestampMs":42,"extraField":"ignored"}`)))

	r := NewFrameReader(&buf)
	msg, err := r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, model.MessageKeepalive, msg.Type)
	assert.Equal(t, uint64(42), msg.TimestampMs)
}
