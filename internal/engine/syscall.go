package engine

import (
	"sync/atomic"

	"github.com/probeops/latrace/internal/record"
	"github.com/probeops/latrace/internal/ringbuf"
)

// Default sizing for the syscall engine. Syscalls are identified by
// the executing thread, so the store only needs to cover threads with
// a syscall in flight.
const (
	DefaultSyscallStoreCapacity = 10240
	DefaultSyscallRingBytes     = 256 << 10
)

// SyscallEnter is the begin event for one syscall. The thread id is
// the identity: a thread cannot have two syscalls in flight at once.
type SyscallEnter struct {
	TID  uint32
	PID  uint32
	ID   uint32
	Comm [record.CommLen]byte
}

// SyscallExit is the end event. The syscall id is absent here — exit
// events do not carry it — so the engine keeps it correlated per
// thread alongside the start timestamp.
type SyscallExit struct {
	TID  uint32
	PID  uint32
	Ret  int64
	Comm [record.CommLen]byte
}

// SyscallConfig configures a SyscallEngine. Zero values pick
// defaults.
type SyscallConfig struct {
	StoreCapacity int
	RingBytes     int
	Clock         Clock
}

// SyscallEngine correlates syscall enter/exit events into latency
// samples. Same contract as BlockEngine: handlers run concurrently
// on every core, never block, and never surface a failure.
type SyscallEngine struct {
	// starts and ids are parallel tables keyed by thread id: the
	// start timestamp and the entered syscall's id. They are separate
	// stores rather than one widened entry so each keeps the plain
	// identity->word shape.
	starts *Store
	ids    *Store

	filter *SyscallFilter
	ring   *ringbuf.Ring
	now    Clock

	emitted atomic.Uint64
}

// NewSyscallEngine creates a syscall latency engine.
func NewSyscallEngine(cfg SyscallConfig) (*SyscallEngine, error) {
	if cfg.StoreCapacity == 0 {
		cfg.StoreCapacity = DefaultSyscallStoreCapacity
	}
	if cfg.RingBytes == 0 {
		cfg.RingBytes = DefaultSyscallRingBytes
	}
	if cfg.Clock == nil {
		cfg.Clock = Nanotime
	}

	starts, err := NewStore(cfg.StoreCapacity)
	if err != nil {
		return nil, err
	}
	ids, err := NewStore(cfg.StoreCapacity)
	if err != nil {
		return nil, err
	}
	ring, err := ringbuf.New(record.SyscallSize, cfg.RingBytes)
	if err != nil {
		return nil, err
	}
	return &SyscallEngine{
		starts: starts,
		ids:    ids,
		filter: NewSyscallFilter(),
		ring:   ring,
		now:    cfg.Clock,
	}, nil
}

// Filter exposes the syscall filter for external configuration.
func (e *SyscallEngine) Filter() *SyscallFilter { return e.filter }

// Ring exposes the sample channel for the consumer to drain.
func (e *SyscallEngine) Ring() *ringbuf.Ring { return e.ring }

// OnEnter records the start of a syscall for the calling thread. A
// second enter for the same thread before an exit overwrites the
// first; the eventual sample reflects the later enter only.
func (e *SyscallEngine) OnEnter(ev SyscallEnter) {
	if !e.filter.ShouldTrace(ev.ID, ev.Comm) {
		return
	}
	tid := uint64(ev.TID)
	ts := e.now()
	e.starts.Put(tid, ts)
	e.ids.Put(tid, int64(ev.ID))
}

// OnExit pairs an exit with its recorded enter and emits a sample.
// The pid, return value, and comm are taken from the exit event: the
// return value only exists at completion.
func (e *SyscallEngine) OnExit(ev SyscallExit) {
	tid := uint64(ev.TID)
	start, ok := e.starts.Take(tid)
	if !ok {
		return
	}
	id, ok := e.ids.Take(tid)
	if !ok {
		// Start without an id: the id insert was dropped at
		// capacity. The start entry is already cleaned up.
		return
	}
	latency := uint64(e.now() - start)

	res, ok := e.ring.Reserve()
	if !ok {
		return
	}
	record.EncodeSyscall(res.Buf, record.Syscall{
		LatencyNs: latency,
		ID:        uint32(id),
		PID:       ev.PID,
		TID:       ev.TID,
		Ret:       ev.Ret,
		Comm:      ev.Comm,
	})
	res.Publish()
	e.emitted.Add(1)
}

// Emitted returns how many samples have been published.
func (e *SyscallEngine) Emitted() uint64 { return e.emitted.Load() }

// DroppedSamples returns exits lost to a full sample channel.
func (e *SyscallEngine) DroppedSamples() uint64 { return e.ring.Drops() }

// DroppedStarts returns enters lost to a full correlation store.
func (e *SyscallEngine) DroppedStarts() uint64 { return e.starts.Dropped() }

// Close closes the sample channel. Pending records stay readable
// until the consumer drains them.
func (e *SyscallEngine) Close() { e.ring.Close() }
