package ingest

import (
	"sync"

	"sentinel/core"
)

// SourceBuffer is a bounded, time-ordered ring of sensor records for one
// source. The feed goroutine is the only writer; the detection cycle reads
// copies via Snapshot. Insertion order is arrival order: the producer is
// assumed monotonic and late arrivals are appended at the tail, not
// re-sorted.
type SourceBuffer struct {
	mu       sync.RWMutex
	records  []*core.SensorRecord // ring storage, len == capacity
	head     int                  // index of oldest record
	size     int
	capacity int
}

// NewSourceBuffer creates a buffer with the given capacity.
func NewSourceBuffer(capacity int) *SourceBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &SourceBuffer{
		records:  make([]*core.SensorRecord, capacity),
		capacity: capacity,
	}
}

// Append inserts a record at the tail, evicting the oldest record when the
// buffer is full. O(1); never blocks the detection cycle longer than the
// copy in Snapshot.
func (b *SourceBuffer) Append(rec *core.SensorRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tail := (b.head + b.size) % b.capacity
	b.records[tail] = rec
	if b.size == b.capacity {
		b.head = (b.head + 1) % b.capacity
	} else {
		b.size++
	}
}

// Snapshot returns a copy of the most recent count records (or fewer) in
// insertion order. The returned slice is owned by the caller.
func (b *SourceBuffer) Snapshot(count int) []*core.SensorRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if count <= 0 || b.size == 0 {
		return nil
	}
	if count > b.size {
		count = b.size
	}
	out := make([]*core.SensorRecord, count)
	first := b.head + b.size - count // oldest record included in the snapshot
	for i := 0; i < count; i++ {
		out[i] = b.records[(first+i)%b.capacity]
	}
	return out
}

// Len returns the current number of buffered records.
func (b *SourceBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Capacity returns the configured bound.
func (b *SourceBuffer) Capacity() int {
	return b.capacity
}

// BufferSet groups one buffer per sensor source.
type BufferSet struct {
	POS         *SourceBuffer
	RFID        *SourceBuffer
	Queue       *SourceBuffer
	Recognition *SourceBuffer
}

// NewBufferSet creates the four per-source buffers with a shared capacity.
func NewBufferSet(capacity int) *BufferSet {
	return &BufferSet{
		POS:         NewSourceBuffer(capacity),
		RFID:        NewSourceBuffer(capacity),
		Queue:       NewSourceBuffer(capacity),
		Recognition: NewSourceBuffer(capacity),
	}
}

// Append routes a record to the buffer for its source. Inventory snapshots
// are not buffered; they go to the InventoryStore instead.
func (s *BufferSet) Append(rec *core.SensorRecord) {
	switch rec.Source {
	case core.SourcePOS:
		s.POS.Append(rec)
	case core.SourceRFID:
		s.RFID.Append(rec)
	case core.SourceQueue:
		s.Queue.Append(rec)
	case core.SourceRecognition:
		s.Recognition.Append(rec)
	}
}

// Counts returns the current length of each buffer, keyed by source.
func (s *BufferSet) Counts() map[core.SourceKind]int {
	return map[core.SourceKind]int{
		core.SourcePOS:         s.POS.Len(),
		core.SourceRFID:        s.RFID.Len(),
		core.SourceQueue:       s.Queue.Len(),
		core.SourceRecognition: s.Recognition.Len(),
	}
}
