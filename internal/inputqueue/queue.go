// Package inputqueue implements the bounded, lossy, single-consumer
// InputEvent queue shared across displays (spec §4.I, §4.H, §9).
//
// Grounded directly on the teacher's utils.go pushToRTPChannel/
// clearFrameChannel and internal/video/rtp.go PushToChannel: a
// non-blocking select/default send, already used by the teacher for
// exactly this "latency-critical, lossy by design" tradeoff on its RTP
// frame channel.
package inputqueue

import (
	"sync"

	"go.uber.org/zap"

	"github.com/duallink/duallink/internal/model"
)

// Capacity is the queue's fixed buffer size (spec §4.I).
const Capacity = 256

// Queue is a bounded multi-producer, single-consumer InputEvent channel.
// Producers try-send and drop on full; the consumer end is acquired by at
// most one forwarder at a time, guarded by consumerMu (spec §4.E, §9).
// Acquire/Release enforce the one-forwarder rule; which display's
// connection gets the slot is first-come-first-served, not fixed to
// display 0.
type Queue struct {
	ch         chan model.InputEvent
	log        *zap.Logger
	consumerMu sync.Mutex
	acquired   bool

	dropped uint64
	mu      sync.Mutex
}

// New constructs a Queue. log may be nil.
func New(log *zap.Logger) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{
		ch:  make(chan model.InputEvent, Capacity),
		log: log,
	}
}

// TrySend enqueues ev, dropping it silently (but counting the drop) if
// the queue is full.
func (q *Queue) TrySend(ev model.InputEvent) {
	select {
	case q.ch <- ev:
	default:
		q.mu.Lock()
		q.dropped++
		n := q.dropped
		q.mu.Unlock()
		q.log.Debug("inputqueue: dropped event, queue full",
			zap.String("type", string(ev.Type)),
			zap.Uint64("total_dropped", n),
		)
	}
}

// Dropped returns the number of events dropped so far. Spec §9 notes
// the core drop-on-full policy exposes no metric; this counter is an
// optional ambient diagnostic that does not change the drop behavior
// itself (see SPEC_FULL.md's "Design Notes" supplement).
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Acquire claims the single-consumer slot, returning false if another
// forwarder already holds it.
func (q *Queue) Acquire() bool {
	q.consumerMu.Lock()
	defer q.consumerMu.Unlock()
	if q.acquired {
		return false
	}
	q.acquired = true
	return true
}

// Release frees the single-consumer slot. Per spec §9's documented (not
// "fixed") behavior, releasing does not wake or re-arm any other waiting
// session — the next caller of Acquire simply succeeds if one happens to
// call it.
func (q *Queue) Release() {
	q.consumerMu.Lock()
	defer q.consumerMu.Unlock()
	q.acquired = false
}

// Recv exposes the receive side for the active consumer.
func (q *Queue) Recv() <-chan model.InputEvent {
	return q.ch
}
