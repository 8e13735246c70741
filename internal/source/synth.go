package source

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/probeops/latrace/internal/engine"
	"github.com/probeops/latrace/internal/record"
)

// SynthConfig shapes a synthetic workload: Workers concurrent
// operation streams, each issuing one operation roughly every Period
// with a uniformly random service time in [MinLatency, MaxLatency).
type SynthConfig struct {
	Workers    int
	Period     time.Duration
	MinLatency time.Duration
	MaxLatency time.Duration
}

func (c SynthConfig) withDefaults() SynthConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Period <= 0 {
		c.Period = 2 * time.Millisecond
	}
	if c.MinLatency <= 0 {
		c.MinLatency = 50 * time.Microsecond
	}
	if c.MaxLatency <= c.MinLatency {
		c.MaxLatency = c.MinLatency + 5*time.Millisecond
	}
	return c
}

func (c SynthConfig) randLatency(rng *rand.Rand) time.Duration {
	return c.MinLatency + time.Duration(rng.Int63n(int64(c.MaxLatency-c.MinLatency)))
}

// BlockSynth generates synthetic block request traffic against a set
// of devices, spread over concurrent workers the way completions
// arrive from independent hardware queues.
type BlockSynth struct {
	Config  SynthConfig
	Devices []uint32 // packed device numbers to cycle through

	nextReq atomic.Uint64
}

// Run generates traffic until the context is cancelled.
func (s *BlockSynth) Run(ctx context.Context, sink BlockSink) {
	cfg := s.Config.withDefaults()
	devices := s.Devices
	if len(devices) == 0 {
		devices = []uint32{8 << 20, 8<<20 | 16, 259 << 20}
	}

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)))
			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(cfg.Period):
				}
				dev := devices[rng.Intn(len(devices))]
				req := s.nextReq.Add(1)
				sink.OnIssue(engine.BlockIssue{Req: req, Major: dev >> 20, Minor: dev & 0xFFFFF})
				select {
				case <-ctx.Done():
					return
				case <-time.After(cfg.randLatency(rng)):
				}
				sink.OnComplete(engine.BlockComplete{Req: req, Major: dev >> 20, Minor: dev & 0xFFFFF})
			}
		}(w)
	}
	wg.Wait()
}

// SyscallSynth generates synthetic syscall traffic: each worker
// stands in for one thread looping through the given syscall ids.
type SyscallSynth struct {
	Config   SynthConfig
	Syscalls []uint32
	Comm     string
}

// Run generates traffic until the context is cancelled.
func (s *SyscallSynth) Run(ctx context.Context, sink SyscallSink) {
	cfg := s.Config.withDefaults()
	ids := s.Syscalls
	if len(ids) == 0 {
		ids = []uint32{0, 1, 74}
	}
	comm := s.Comm
	if comm == "" {
		comm = "latrace-synth"
	}

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(w)<<32))
			tid := uint32(1000 + w)
			pid := uint32(1000)
			commBuf := record.MakeComm(comm)
			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(cfg.Period):
				}
				id := ids[rng.Intn(len(ids))]
				sink.OnEnter(engine.SyscallEnter{TID: tid, PID: pid, ID: id, Comm: commBuf})
				select {
				case <-ctx.Done():
					return
				case <-time.After(cfg.randLatency(rng)):
				}
				ret := int64(rng.Intn(1 << 16))
				if rng.Intn(100) == 0 {
					ret = -5 // the occasional EIO
				}
				sink.OnExit(engine.SyscallExit{TID: tid, PID: pid, Ret: ret, Comm: commBuf})
			}
		}(w)
	}
	wg.Wait()
}
