package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// storeShards is the number of lock shards in a Store. Identities
// arriving on different cores usually land on different shards, so
// put/take critical sections rarely contend.
const storeShards = 64

// Store is the bounded correlation table mapping an in-flight
// operation's identity to a recorded value (a start timestamp, or any
// other per-operation word).
//
// Put and Take are individually atomic and never block beyond a
// short per-shard critical section. The table holds at most the
// capacity fixed at construction: a Put for a new identity when the
// table is full is silently dropped — the operation simply goes
// untracked. There is no TTL; an identity whose Take never arrives
// occupies its entry until the process detaches the engine.
type Store struct {
	shards   [storeShards]storeShard
	capacity int64
	count    atomic.Int64
	dropped  atomic.Uint64
}

type storeShard struct {
	mu      sync.Mutex
	entries map[uint64]int64
}

// NewStore creates a store holding at most capacity entries.
func NewStore(capacity int) (*Store, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("store capacity must be positive, got %d", capacity)
	}
	s := &Store{capacity: int64(capacity)}
	for i := range s.shards {
		s.shards[i].entries = make(map[uint64]int64)
	}
	return s, nil
}

// shardFor spreads identities across shards. Identities are often
// pointers (low bits always zero) or small sequential ids, so the
// raw value is mixed first.
func (s *Store) shardFor(id uint64) *storeShard {
	id *= 0x9e3779b97f4a7c15 // Fibonacci hashing
	return &s.shards[id>>58&(storeShards-1)]
}

// Put records value for id, overwriting any existing entry
// (last-write-wins: a reused identity whose earlier operation never
// completed is re-tracked from the new start). When id is new and the
// store is at capacity the entry is dropped silently; the caller must
// not care, because the operation being traced must not.
func (s *Store) Put(id uint64, value int64) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	if _, exists := sh.entries[id]; exists {
		sh.entries[id] = value
		sh.mu.Unlock()
		return
	}
	if s.count.Add(1) > s.capacity {
		s.count.Add(-1)
		sh.mu.Unlock()
		s.dropped.Add(1)
		return
	}
	sh.entries[id] = value
	sh.mu.Unlock()
}

// Take atomically removes and returns the entry for id. A missing
// entry is an expected outcome, not an error: the begin may have
// predated attach, been dropped at capacity, or been overwritten.
func (s *Store) Take(id uint64) (int64, bool) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	value, ok := sh.entries[id]
	if ok {
		delete(sh.entries, id)
	}
	sh.mu.Unlock()
	if ok {
		s.count.Add(-1)
	}
	return value, ok
}

// Len returns the number of tracked entries.
func (s *Store) Len() int {
	return int(s.count.Load())
}

// Cap returns the fixed capacity.
func (s *Store) Cap() int {
	return int(s.capacity)
}

// Dropped returns how many new entries were refused at capacity.
func (s *Store) Dropped() uint64 {
	return s.dropped.Load()
}
