// Package source drives the latency engines with begin/end events.
//
// The engines never initiate their own execution: something external
// triggers every handler invocation. In the kernel that something is
// an instrumentation point; here it is an event source — a recorded
// trace replayed through the handlers, or a synthetic workload for
// exercising the pipeline.
package source

import (
	"sync/atomic"

	"github.com/probeops/latrace/internal/engine"
)

// BlockSink receives block request events. *engine.BlockEngine
// implements it.
type BlockSink interface {
	OnIssue(engine.BlockIssue)
	OnComplete(engine.BlockComplete)
}

// SyscallSink receives syscall events. *engine.SyscallEngine
// implements it.
type SyscallSink interface {
	OnEnter(engine.SyscallEnter)
	OnExit(engine.SyscallExit)
}

// VirtualClock is an engine.Clock driven by a trace's own
// timestamps, so replayed latencies come out exactly as recorded.
type VirtualClock struct {
	ns atomic.Int64
}

// Now returns the current virtual time in nanoseconds.
func (c *VirtualClock) Now() int64 { return c.ns.Load() }

// Set moves the virtual time.
func (c *VirtualClock) Set(ns int64) { c.ns.Store(ns) }
