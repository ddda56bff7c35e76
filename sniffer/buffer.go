package sniffer

import "sync"

// DefaultBufferCapacity matches the firmware's 200-slot ring.
const DefaultBufferCapacity = 200

// Stats is a consistent snapshot of the buffer counters, taken under a
// single lock hold so the three values always agree with each other.
type Stats struct {
	Enqueued   uint64 // every Push ever made, including evicting ones
	Overflowed uint64 // Push calls that evicted the oldest record
	Occupancy  int    // records currently buffered
}

// Buffer is a fixed-capacity FIFO ring of capture records shared between
// the ingest path (producer) and the consumer loop. A full buffer evicts
// its oldest record to admit a new one (drop-oldest); the eviction is
// counted, never reported as an error.
//
// Every operation is a short exclusive critical section: lock, copy a
// fixed-size value, release. Nothing blocks or allocates while the lock
// is held, so the producer may call Push from a latency-sensitive
// callback context.
type Buffer struct {
	mu         sync.Mutex
	records    []CaptureRecord
	head       int // next slot to write
	tail       int // oldest record
	count      int
	enqueued   uint64
	overflowed uint64
}

// NewBuffer creates a buffer with the given capacity. Zero or negative
// capacity falls back to DefaultBufferCapacity. Capacity is fixed for the
// buffer's lifetime and the counters reset only here.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &Buffer{
		records: make([]CaptureRecord, capacity),
	}
}

// Push unconditionally accepts a record. At capacity the oldest record is
// overwritten and the overflow counter increments; occupancy never exceeds
// capacity.
func (b *Buffer) Push(rec CaptureRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == len(b.records) {
		b.overflowed++
		b.tail = (b.tail + 1) % len(b.records)
	} else {
		b.count++
	}

	b.records[b.head] = rec
	b.head = (b.head + 1) % len(b.records)
	b.enqueued++
}

// Pop removes and returns the oldest record in FIFO order. The second
// return value is false when the buffer is empty.
func (b *Buffer) Pop() (CaptureRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return CaptureRecord{}, false
	}

	rec := b.records[b.tail]
	// Clear the slot so the payload backing array can be collected
	b.records[b.tail] = CaptureRecord{}
	b.tail = (b.tail + 1) % len(b.records)
	b.count--

	return rec, true
}

// Stats returns the counter triple as of the call.
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Stats{
		Enqueued:   b.enqueued,
		Overflowed: b.overflowed,
		Occupancy:  b.count,
	}
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.records)
}
