package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RejectsBadMagic(t *testing.T) {
	buf := Encode(Packet{FrameSeq: 1, FragIndex: 0, FragCount: 1, Payload: []byte{1, 2, 3}})
	buf[0] ^= 0xFF // corrupt magic
	_, err := Decode(buf)
	assert.ErrorIs(t, err, ErrNotAPacket)
}

func TestDecode_RejectsShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrNotAPacket)
}

func TestDecode_RejectsZeroFragCount(t *testing.T) {
	buf := Encode(Packet{FrameSeq: 1, FragIndex: 0, FragCount: 1, Payload: nil})
	// frag_count lives at byte offset 10..12
	buf[10], buf[11] = 0, 0
	_, err := Decode(buf)
	assert.ErrorIs(t, err, ErrNotAPacket)
}

func TestDecode_AllowsEmptyPayload(t *testing.T) {
	buf := Encode(Packet{FrameSeq: 1, FragIndex: 0, FragCount: 1})
	p, err := Decode(buf)
	require.NoError(t, err)
	assert.Empty(t, p.Payload)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	// S1 scenario from spec §8.
	payload := []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x88}
	p := Packet{
		FrameSeq:     7,
		FragIndex:    0,
		FragCount:    1,
		PtsMs:        1000,
		IsKeyframe:   true,
		DisplayIndex: 0,
		Payload:      payload,
	}
	buf := Encode(p)
	require.Len(t, buf, HeaderSize+len(payload))

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, p.FrameSeq, got.FrameSeq)
	assert.Equal(t, p.FragIndex, got.FragIndex)
	assert.Equal(t, p.FragCount, got.FragCount)
	assert.Equal(t, p.PtsMs, got.PtsMs)
	assert.True(t, got.IsKeyframe)
	assert.Equal(t, payload, got.Payload)
}

func TestFragmentCount(t *testing.T) {
	assert.Equal(t, 1, FragmentCount(0))
	assert.Equal(t, 1, FragmentCount(1))
	assert.Equal(t, 1, FragmentCount(MaxPayloadBytes))
	assert.Equal(t, 2, FragmentCount(MaxPayloadBytes+1))
	assert.Equal(t, 3, FragmentCount(MaxPayloadBytes*2+1))
}
