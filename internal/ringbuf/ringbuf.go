// Package ringbuf implements the bounded sample channel between the
// latency engines and their consumer.
//
// The ring carries fixed-size records from many concurrent producers
// to a single consumer. Producers reserve a slot, fill it, and publish
// it; reservation never blocks and fails immediately when the ring is
// full. Records from one producer are delivered in submission order.
// No ordering is promised across producers.
package ringbuf

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by Next once the ring is closed and drained.
var ErrClosed = errors.New("ringbuf: closed")

// pollInterval bounds how long a blocked consumer waits before
// re-checking for published records.
const pollInterval = time.Millisecond

// Ring is a bounded multi-producer single-consumer queue of
// fixed-size records.
//
// Each slot carries a sequence number (Vyukov bounded-queue scheme):
// a producer claims a slot by advancing tail with a CAS, fills the
// slot's buffer, then publishes by bumping the slot sequence. The
// consumer observes the bumped sequence, copies the record out, and
// recycles the slot for the next lap.
type Ring struct {
	slots      []slot
	mask       uint64
	recordSize int

	tail atomic.Uint64 // next slot producers claim
	head atomic.Uint64 // next slot the consumer reads

	drops  atomic.Uint64 // failed reservations
	closed atomic.Bool

	// notify wakes a parked consumer; producers only ever attempt a
	// non-blocking send on it.
	notify chan struct{}
}

type slot struct {
	seq atomic.Uint64
	buf []byte
}

// New creates a ring for records of recordSize bytes with at least
// capacityBytes of payload capacity. The slot count is rounded up to
// a power of two.
func New(recordSize, capacityBytes int) (*Ring, error) {
	if recordSize <= 0 {
		return nil, fmt.Errorf("ringbuf: record size must be positive, got %d", recordSize)
	}
	if capacityBytes < recordSize {
		return nil, fmt.Errorf("ringbuf: capacity %d below one record of %d bytes", capacityBytes, recordSize)
	}

	n := nextPow2(uint64(capacityBytes) / uint64(recordSize))
	r := &Ring{
		slots:      make([]slot, n),
		mask:       n - 1,
		recordSize: recordSize,
		notify:     make(chan struct{}, 1),
	}
	backing := make([]byte, int(n)*recordSize)
	for i := range r.slots {
		r.slots[i].seq.Store(uint64(i))
		r.slots[i].buf = backing[i*recordSize : (i+1)*recordSize]
	}
	return r, nil
}

// nextPow2 rounds n up to a power of two, with a floor of 1.
func nextPow2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// RecordSize returns the fixed record size the ring was built for.
func (r *Ring) RecordSize() int { return r.recordSize }

// Cap returns the number of record slots.
func (r *Ring) Cap() int { return len(r.slots) }

// Drops returns how many reservations have failed because the ring
// was full.
func (r *Ring) Drops() uint64 { return r.drops.Load() }

// Reservation is a claimed, not yet published slot. The caller fills
// Buf and then calls Publish exactly once. A reservation must not be
// held across blocking work: the consumer cannot advance past an
// unpublished slot.
type Reservation struct {
	ring *Ring
	pos  uint64

	// Buf is the slot's backing storage, recordSize bytes long.
	Buf []byte
}

// Reserve claims the next slot. It never blocks: when the ring is
// full (or closed) it fails immediately and the sample is counted as
// dropped.
func (r *Ring) Reserve() (Reservation, bool) {
	if r.closed.Load() {
		r.drops.Add(1)
		return Reservation{}, false
	}
	pos := r.tail.Load()
	for {
		s := &r.slots[pos&r.mask]
		seq := s.seq.Load()
		switch {
		case seq == pos:
			if r.tail.CompareAndSwap(pos, pos+1) {
				return Reservation{ring: r, pos: pos, Buf: s.buf}, true
			}
			pos = r.tail.Load()
		case seq < pos:
			// Slot not yet recycled by the consumer: full.
			r.drops.Add(1)
			return Reservation{}, false
		default:
			// Another producer claimed pos first.
			pos = r.tail.Load()
		}
	}
}

// Publish makes the reserved record visible to the consumer.
func (res Reservation) Publish() {
	r := res.ring
	r.slots[res.pos&r.mask].seq.Store(res.pos + 1)
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Poll copies the next published record into buf and reports whether
// a record was available. buf must be at least RecordSize bytes.
// Poll must only be called from the single consumer goroutine.
func (r *Ring) Poll(buf []byte) bool {
	pos := r.head.Load()
	s := &r.slots[pos&r.mask]
	if s.seq.Load() != pos+1 {
		return false
	}
	copy(buf[:r.recordSize], s.buf)
	// Recycle the slot for the producers' next lap.
	s.seq.Store(pos + r.mask + 1)
	r.head.Store(pos + 1)
	return true
}

// Next blocks until a record is available, copying it into buf. It
// returns ErrClosed once the ring is closed and fully drained, or the
// context error if ctx is cancelled first.
func (r *Ring) Next(ctx context.Context, buf []byte) error {
	for {
		if r.Poll(buf) {
			return nil
		}
		if r.closed.Load() {
			// Re-check: a producer may have published between the
			// failed poll and the closed check.
			if r.Poll(buf) {
				return nil
			}
			return ErrClosed
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.notify:
		case <-time.After(pollInterval):
		}
	}
}

// Close marks the ring closed. Later reservations fail; records
// already published remain readable until drained.
func (r *Ring) Close() {
	r.closed.Store(true)
	select {
	case r.notify <- struct{}{}:
	default:
	}
}
