package engine

import (
	"sync/atomic"

	"github.com/probeops/latrace/internal/record"
	"github.com/probeops/latrace/internal/ringbuf"
	"github.com/probeops/latrace/pkg/devno"
)

// Default sizing for the block engine, matching the expected number
// of concurrently in-flight requests and a burst of completions.
const (
	DefaultBlockStoreCapacity = 65536
	DefaultBlockRingBytes     = 8 << 20
)

// BlockIssue is the begin event for one block request. Req is the
// identity: a handle to the request object, unique among requests in
// flight at the same time.
type BlockIssue struct {
	Req   uint64
	Major uint32
	Minor uint32
}

// BlockComplete is the end event for one block request. The device
// pair is carried again because the sample context is re-resolved at
// completion time, not reused from the issue event.
type BlockComplete struct {
	Req   uint64
	Major uint32
	Minor uint32
}

// BlockConfig configures a BlockEngine. Zero values pick defaults.
type BlockConfig struct {
	StoreCapacity int
	RingBytes     int
	Clock         Clock
}

// BlockEngine correlates block request issue/complete events into
// latency samples.
//
// OnIssue and OnComplete are triggered externally, potentially on
// every core at once. Neither ever blocks, fails, or reports anything
// to its caller: an event the engine cannot handle is skipped and the
// traced request proceeds untouched.
type BlockEngine struct {
	store  *Store
	filter *DeviceFilter
	ring   *ringbuf.Ring
	now    Clock

	emitted atomic.Uint64
}

// NewBlockEngine creates a block latency engine.
func NewBlockEngine(cfg BlockConfig) (*BlockEngine, error) {
	if cfg.StoreCapacity == 0 {
		cfg.StoreCapacity = DefaultBlockStoreCapacity
	}
	if cfg.RingBytes == 0 {
		cfg.RingBytes = DefaultBlockRingBytes
	}
	if cfg.Clock == nil {
		cfg.Clock = Nanotime
	}

	store, err := NewStore(cfg.StoreCapacity)
	if err != nil {
		return nil, err
	}
	ring, err := ringbuf.New(record.BlockSize, cfg.RingBytes)
	if err != nil {
		return nil, err
	}
	return &BlockEngine{
		store:  store,
		filter: NewDeviceFilter(),
		ring:   ring,
		now:    cfg.Clock,
	}, nil
}

// Filter exposes the device filter for external configuration.
func (e *BlockEngine) Filter() *DeviceFilter { return e.filter }

// Ring exposes the sample channel for the consumer to drain.
func (e *BlockEngine) Ring() *ringbuf.Ring { return e.ring }

// OnIssue records the start of a block request.
func (e *BlockEngine) OnIssue(ev BlockIssue) {
	dev := devno.Pack(ev.Major, ev.Minor)
	if dev == 0 {
		// No backing device; nothing to attribute the sample to.
		return
	}
	if !e.filter.ShouldTrace(dev) {
		return
	}
	e.store.Put(ev.Req, e.now())
}

// OnComplete pairs a completion with its recorded start and emits a
// sample. A completion with no recorded start is an orphan: the issue
// predated attach, was filtered, or was evicted. Orphans are skipped.
func (e *BlockEngine) OnComplete(ev BlockComplete) {
	start, ok := e.store.Take(ev.Req)
	if !ok {
		return
	}
	latency := uint64(e.now() - start)

	dev := devno.Pack(ev.Major, ev.Minor)
	if dev == 0 {
		return
	}

	res, ok := e.ring.Reserve()
	if !ok {
		// Channel full: the sample is dropped, never the request.
		return
	}
	record.EncodeBlock(res.Buf, record.Block{Dev: dev, LatencyNs: latency})
	res.Publish()
	e.emitted.Add(1)
}

// Emitted returns how many samples have been published.
func (e *BlockEngine) Emitted() uint64 { return e.emitted.Load() }

// DroppedSamples returns completions lost to a full sample channel.
func (e *BlockEngine) DroppedSamples() uint64 { return e.ring.Drops() }

// DroppedStarts returns issues lost to a full correlation store.
func (e *BlockEngine) DroppedStarts() uint64 { return e.store.Dropped() }

// Close closes the sample channel. Pending records stay readable
// until the consumer drains them.
func (e *BlockEngine) Close() { e.ring.Close() }
