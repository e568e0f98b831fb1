// Package reassembly reconstructs H.264 access units from out-of-order
// DLNK UDP fragments (spec §4.C), one instance per display (never
// shared).
//
// Grounded on the teacher's internal/stream/reader.go StateMu-guarded
// per-device mutable state idiom: one sync.Mutex wraps the whole partial
// frame map here, the same way deviceSession.StateMu wraps the teacher's
// SPS/PPS/PTS bookkeeping.
package reassembly

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/duallink/duallink/internal/model"
	"github.com/duallink/duallink/internal/wire"
)

// EvictionTimeout is the per-frame reassembly timeout (spec §4.C, §5).
const EvictionTimeout = 2 * time.Second

// partialFrame is the reassembly slot for one frame_seq.
type partialFrame struct {
	fragments  [][]byte
	received   uint16
	total      uint16
	ptsMs      uint32
	isKeyframe bool
	firstSeen  time.Time
}

// Reassembler holds the in-flight partial frames for a single display.
type Reassembler struct {
	mu     sync.Mutex
	slots  map[uint32]*partialFrame
	log    *zap.Logger
	now    func() time.Time
}

// New constructs a Reassembler. log may be nil (a no-op logger is used).
func New(log *zap.Logger) *Reassembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reassembler{
		slots: make(map[uint32]*partialFrame),
		log:   log,
		now:   time.Now,
	}
}

// Ingest feeds one decoded DLNK packet into the reassembler. It returns
// a completed EncodedFrame and true when the packet completes its frame;
// otherwise it returns the zero value and false.
//
// Invariants enforced here (spec §8):
//  1. Stale entries (first_seen older than EvictionTimeout) are evicted
//     first, one warning logged per eviction.
//  2. A slot is created on first sight of a frame_seq.
//  3. frag_index >= slot.total silently drops the packet.
//  4. An empty target fragment is filled; already-filled fragments are
//     left untouched, making duplicates idempotent.
//  5. received == total removes the slot and concatenates fragments in
//     index order.
func (r *Reassembler) Ingest(p wire.Packet) (model.EncodedFrame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictStaleLocked()

	slot, ok := r.slots[p.FrameSeq]
	if !ok {
		slot = &partialFrame{
			fragments: make([][]byte, p.FragCount),
			total:     p.FragCount,
			ptsMs:     p.PtsMs,
			isKeyframe: p.IsKeyframe,
			firstSeen: r.now(),
		}
		r.slots[p.FrameSeq] = slot
	}

	if p.FragIndex >= slot.total {
		// Malformed: index out of range for this frame's declared total.
		return model.EncodedFrame{}, false
	}

	if slot.fragments[p.FragIndex] == nil {
		slot.fragments[p.FragIndex] = p.Payload
		slot.received++
	}

	if slot.received < slot.total {
		return model.EncodedFrame{}, false
	}

	delete(r.slots, p.FrameSeq)

	total := 0
	for _, f := range slot.fragments {
		total += len(f)
	}
	data := make([]byte, 0, total)
	for _, f := range slot.fragments {
		data = append(data, f...)
	}

	return model.EncodedFrame{
		Data:        data,
		TimestampUs: uint64(slot.ptsMs) * 1000,
		IsKeyframe:  slot.isKeyframe,
		Codec:       model.CodecH264,
	}, true
}

// evictStaleLocked removes every slot whose first_seen predates
// EvictionTimeout. Caller must hold r.mu.
func (r *Reassembler) evictStaleLocked() {
	now := r.now()
	for seq, slot := range r.slots {
		if now.Sub(slot.firstSeen) >= EvictionTimeout {
			delete(r.slots, seq)
			r.log.Warn("reassembly: evicted incomplete frame",
				zap.Uint32("frame_seq", seq),
				zap.Uint16("received", slot.received),
				zap.Uint16("total", slot.total),
			)
		}
	}
}

// PendingCount reports the number of in-flight partial frames. Intended
// for tests and diagnostics only.
func (r *Reassembler) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}
