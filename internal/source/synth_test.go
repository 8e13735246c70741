package source

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/probeops/latrace/internal/engine"
)

// countingBlockSink records pairing without a full engine behind it.
type countingBlockSink struct {
	mu        sync.Mutex
	issues    int
	completes int
	inflight  map[uint64]bool
}

func (s *countingBlockSink) OnIssue(ev engine.BlockIssue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight == nil {
		s.inflight = make(map[uint64]bool)
	}
	s.issues++
	s.inflight[ev.Req] = true
}

func (s *countingBlockSink) OnComplete(ev engine.BlockComplete) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completes++
	if !s.inflight[ev.Req] {
		s.completes = -1 << 30 // poison: completion without issue
	}
	delete(s.inflight, ev.Req)
}

func TestBlockSynthPairsEveryRequest(t *testing.T) {
	sink := &countingBlockSink{}
	synth := &BlockSynth{Config: SynthConfig{
		Workers:    4,
		Period:     200 * time.Microsecond,
		MinLatency: 10 * time.Microsecond,
		MaxLatency: 100 * time.Microsecond,
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	synth.Run(ctx, sink)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.issues == 0 {
		t.Fatal("synthetic source generated no traffic")
	}
	if sink.completes < 0 {
		t.Fatal("completion arrived for an unissued request")
	}
	// Workers cancelled mid-operation leave at most one unfinished
	// request each.
	if sink.issues-sink.completes > 4 {
		t.Errorf("issues %d vs completes %d: too many unpaired", sink.issues, sink.completes)
	}
}

func TestSyscallSynthThroughEngine(t *testing.T) {
	eng, err := engine.NewSyscallEngine(engine.SyscallConfig{})
	if err != nil {
		t.Fatalf("NewSyscallEngine() error = %v", err)
	}
	for _, id := range []uint32{0, 1, 74} {
		if err := eng.Filter().Allow(id); err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
	}

	synth := &SyscallSynth{Config: SynthConfig{
		Workers:    2,
		Period:     100 * time.Microsecond,
		MinLatency: 10 * time.Microsecond,
		MaxLatency: 50 * time.Microsecond,
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	synth.Run(ctx, eng)

	if eng.Emitted() == 0 {
		t.Error("no samples emitted from synthetic syscall traffic")
	}
}
