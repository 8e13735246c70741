// Package stats aggregates delivered latency samples into percentile
// histograms on the consumer side of the sample channel.
//
// Aggregation is keyed (by device or by syscall id) and dual-scope:
// an interval histogram reset on a fixed period, and a lifetime
// histogram that accumulates until the process exits. HDR histograms
// keep percentile queries O(1) at a fixed memory cost per key.
package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Options sizes the histograms. Zero values pick the defaults used
// for latency in microseconds: 1µs to 60s at 3 significant figures.
type Options struct {
	HistMin    int64
	HistMax    int64
	HistSigFig int

	// TopN, when positive, additionally tracks the N largest values
	// per key in each scope.
	TopN int
}

func (o Options) withDefaults() Options {
	if o.HistMin == 0 {
		o.HistMin = 1
	}
	if o.HistMax == 0 {
		o.HistMax = 60_000_000
	}
	if o.HistSigFig == 0 {
		o.HistSigFig = 3
	}
	return o
}

// KeyStats holds both scopes for one key.
type KeyStats struct {
	Interval *hdrhistogram.Histogram
	Lifetime *hdrhistogram.Histogram

	// IntervalTop and LifetimeTop are nil unless Options.TopN > 0.
	IntervalTop *TopN
	LifetimeTop *TopN
}

func newKeyStats(o Options) *KeyStats {
	ks := &KeyStats{
		Interval: hdrhistogram.New(o.HistMin, o.HistMax, o.HistSigFig),
		Lifetime: hdrhistogram.New(o.HistMin, o.HistMax, o.HistSigFig),
	}
	if o.TopN > 0 {
		ks.IntervalTop = NewTopN(o.TopN)
		ks.LifetimeTop = NewTopN(o.TopN)
	}
	return ks
}

func (ks *KeyStats) record(v int64) {
	ks.Interval.RecordValue(v)
	ks.Lifetime.RecordValue(v)
	if ks.IntervalTop != nil {
		ks.IntervalTop.Add(v)
		ks.LifetimeTop.Add(v)
	}
}

func (ks *KeyStats) resetInterval() {
	ks.Interval.Reset()
	if ks.IntervalTop != nil {
		ks.IntervalTop.Reset()
	}
}

// snapshot deep-copies both scopes so rendering never races with
// recording.
func (ks *KeyStats) snapshot() *KeyStats {
	snap := &KeyStats{
		Interval: hdrhistogram.Import(ks.Interval.Export()),
		Lifetime: hdrhistogram.Import(ks.Lifetime.Export()),
	}
	if ks.IntervalTop != nil {
		snap.IntervalTop = ks.IntervalTop.Clone()
		snap.LifetimeTop = ks.LifetimeTop.Clone()
	}
	return snap
}

// State aggregates samples for all keys of one operation kind.
// It is safe for one recording goroutine and any number of
// snapshotting goroutines.
type State struct {
	mu        sync.RWMutex
	stats     map[uint32]*KeyStats
	opts      Options
	startTime time.Time
	lastReset time.Time
}

// New creates an empty State.
func New(opts Options) *State {
	now := time.Now()
	return &State{
		stats:     make(map[uint32]*KeyStats),
		opts:      opts.withDefaults(),
		startTime: now,
		lastReset: now,
	}
}

// Record adds one latency observation for key. Values outside the
// histogram range are clamped, not dropped: a 2-minute outlier still
// counts, pinned at the top bucket.
func (s *State) Record(key uint32, latencyUs int64) {
	latencyUs = s.clamp(latencyUs)
	s.mu.Lock()
	ks, ok := s.stats[key]
	if !ok {
		ks = newKeyStats(s.opts)
		s.stats[key] = ks
	}
	ks.record(latencyUs)
	s.mu.Unlock()
}

func (s *State) clamp(v int64) int64 {
	if v < s.opts.HistMin {
		return s.opts.HistMin
	}
	if v > s.opts.HistMax {
		return s.opts.HistMax
	}
	return v
}

// ResetIntervals clears every key's interval scope. Lifetime scopes
// persist.
func (s *State) ResetIntervals() {
	s.mu.Lock()
	for _, ks := range s.stats {
		ks.resetInterval()
	}
	s.lastReset = time.Now()
	s.mu.Unlock()
}

// Snapshot returns deep copies of all key stats plus the start and
// last-reset times, for lock-free rendering.
func (s *State) Snapshot() (map[uint32]*KeyStats, time.Time, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[uint32]*KeyStats, len(s.stats))
	for key, ks := range s.stats {
		snap[key] = ks.snapshot()
	}
	return snap, s.startTime, s.lastReset
}

// TotalCount returns the lifetime sample count across all keys.
func (s *State) TotalCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, ks := range s.stats {
		total += ks.Lifetime.TotalCount()
	}
	return total
}
