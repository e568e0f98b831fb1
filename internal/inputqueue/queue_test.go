package inputqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duallink/duallink/internal/model"
)

func TestQueue_PreservesOrder(t *testing.T) {
	q := New(nil)
	for i := 0; i < 5; i++ {
		q.TrySend(model.InputEvent{Type: model.InputKeyDown, Keycode: uint32(i)})
	}
	for i := 0; i < 5; i++ {
		ev := <-q.Recv()
		assert.Equal(t, uint32(i), ev.Keycode)
	}
}

func TestQueue_DropsOnFull(t *testing.T) {
	q := New(nil)
	for i := 0; i < Capacity; i++ {
		q.TrySend(model.InputEvent{Type: model.InputKeyDown, Keycode: uint32(i)})
	}
	// Queue is now full; the next send must be dropped, not block.
	q.TrySend(model.InputEvent{Type: model.InputKeyDown, Keycode: 999})
	assert.Equal(t, uint64(1), q.Dropped())
	assert.Len(t, q.ch, Capacity)
}

func TestQueue_SingleConsumerAcquireRelease(t *testing.T) {
	q := New(nil)
	require.True(t, q.Acquire())
	assert.False(t, q.Acquire(), "a second acquire must fail while the first holds the slot")
	q.Release()
	assert.True(t, q.Acquire(), "after release, acquire succeeds again")
}
