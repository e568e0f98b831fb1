package reassembly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duallink/duallink/internal/wire"
)

func TestIngest_S1_SinglePacketFrame(t *testing.T) {
	r := New(nil)
	payload := []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x88}
	frame, ok := r.Ingest(wire.Packet{
		FrameSeq: 7, FragIndex: 0, FragCount: 1,
		PtsMs: 1000, IsKeyframe: true, Payload: payload,
	})
	require.True(t, ok)
	assert.Equal(t, payload, frame.Data)
	assert.Equal(t, uint64(1_000_000), frame.TimestampUs)
	assert.True(t, frame.IsKeyframe)
}

func TestIngest_S2_OutOfOrderFragments(t *testing.T) {
	r := New(nil)
	a, b, c := []byte("A"), []byte("B"), []byte("C")

	_, ok := r.Ingest(wire.Packet{FrameSeq: 12, FragIndex: 2, FragCount: 3, Payload: c})
	assert.False(t, ok)
	_, ok = r.Ingest(wire.Packet{FrameSeq: 12, FragIndex: 0, FragCount: 3, Payload: a})
	assert.False(t, ok)
	frame, ok := r.Ingest(wire.Packet{FrameSeq: 12, FragIndex: 1, FragCount: 3, Payload: b})
	require.True(t, ok)
	assert.Equal(t, []byte("ABC"), frame.Data)
}

func TestIngest_S3_LostFragmentEvicted(t *testing.T) {
	r := New(nil)
	start := time.Now()
	r.now = func() time.Time { return start }

	_, ok := r.Ingest(wire.Packet{FrameSeq: 20, FragIndex: 0, FragCount: 2, Payload: []byte("x")})
	assert.False(t, ok)
	assert.Equal(t, 1, r.PendingCount())

	r.now = func() time.Time { return start.Add(2100 * time.Millisecond) }
	_, ok = r.Ingest(wire.Packet{FrameSeq: 21, FragIndex: 0, FragCount: 1, Payload: []byte("y")})
	assert.True(t, ok) // frame 21 is single-fragment, completes immediately
	assert.Equal(t, 0, r.PendingCount(), "frame 20 must have been evicted")
}

func TestIngest_DuplicateFragmentsAreIdempotent(t *testing.T) {
	r := New(nil)
	a, b := []byte("A"), []byte("B")

	_, ok := r.Ingest(wire.Packet{FrameSeq: 1, FragIndex: 0, FragCount: 2, Payload: a})
	assert.False(t, ok)
	// Duplicate of fragment 0 — must not corrupt the slot.
	_, ok = r.Ingest(wire.Packet{FrameSeq: 1, FragIndex: 0, FragCount: 2, Payload: []byte("zzzz")})
	assert.False(t, ok)
	frame, ok := r.Ingest(wire.Packet{FrameSeq: 1, FragIndex: 1, FragCount: 2, Payload: b})
	require.True(t, ok)
	assert.Equal(t, []byte("AB"), frame.Data)
}

func TestIngest_OutOfRangeFragIndexDropped(t *testing.T) {
	r := New(nil)
	_, ok := r.Ingest(wire.Packet{FrameSeq: 1, FragIndex: 5, FragCount: 2, Payload: []byte("x")})
	assert.False(t, ok)
	assert.Equal(t, 1, r.PendingCount(), "slot is still created for the declared frag_count")
}

func TestIngest_EmptyPayloadFrameCompletes(t *testing.T) {
	r := New(nil)
	frame, ok := r.Ingest(wire.Packet{FrameSeq: 1, FragIndex: 0, FragCount: 1})
	require.True(t, ok)
	assert.Empty(t, frame.Data)
}
