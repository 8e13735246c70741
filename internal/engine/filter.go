package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/probeops/latrace/internal/record"
)

// FilterCapacity is the maximum number of keys an allow-set holds.
const FilterCapacity = 64

// ErrFilterFull is returned when an allow-set is at capacity. Unlike
// the handlers, filter configuration runs outside the traced path, so
// the writer gets a real error it can act on.
var ErrFilterFull = fmt.Errorf("filter allow-set full (capacity %d)", FilterCapacity)

// DeviceFilter decides which block devices to trace.
//
// The policy is default-allow with opt-in restriction: while the
// enable flag is off every device is traced; once on, only devices in
// the allow-set are. Writes take effect on the next handler
// invocation, with no snapshotting.
type DeviceFilter struct {
	enabled atomic.Bool

	mu    sync.RWMutex
	allow map[uint32]struct{}
}

// NewDeviceFilter creates a device filter with filtering disabled.
func NewDeviceFilter() *DeviceFilter {
	return &DeviceFilter{allow: make(map[uint32]struct{})}
}

// SetEnabled flips the single-byte enable flag.
func (f *DeviceFilter) SetEnabled(enabled bool) {
	f.enabled.Store(enabled)
}

// Allow adds a device to the allow-set.
func (f *DeviceFilter) Allow(dev uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.allow[dev]; !ok && len(f.allow) >= FilterCapacity {
		return ErrFilterFull
	}
	f.allow[dev] = struct{}{}
	return nil
}

// ShouldTrace reports whether events for dev are worth tracking. It
// is side-effect-free and runs on every begin event.
func (f *DeviceFilter) ShouldTrace(dev uint32) bool {
	if !f.enabled.Load() {
		return true
	}
	f.mu.RLock()
	_, ok := f.allow[dev]
	f.mu.RUnlock()
	return ok
}

// SyscallFilter decides which syscalls to trace.
//
// The policy is default-deny: a syscall id is traced only when it is
// present in the allow-set; an empty set traces nothing. An optional
// command-name pattern additionally restricts tracing to processes
// whose comm matches.
type SyscallFilter struct {
	mu      sync.RWMutex
	allow   map[uint32]struct{}
	pattern [record.CommLen]byte
	hasPat  bool
}

// NewSyscallFilter creates a syscall filter with an empty allow-set.
func NewSyscallFilter() *SyscallFilter {
	return &SyscallFilter{allow: make(map[uint32]struct{})}
}

// Allow adds a syscall id to the allow-set.
func (f *SyscallFilter) Allow(id uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.allow[id]; !ok && len(f.allow) >= FilterCapacity {
		return ErrFilterFull
	}
	f.allow[id] = struct{}{}
	return nil
}

// SetComm installs the command-name pattern. An empty name clears it.
func (f *SyscallFilter) SetComm(name string) {
	f.mu.Lock()
	f.pattern = record.MakeComm(name)
	f.hasPat = name != ""
	f.mu.Unlock()
}

// ShouldTrace reports whether a syscall from the process named comm
// is worth tracking.
func (f *SyscallFilter) ShouldTrace(id uint32, comm [record.CommLen]byte) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if _, ok := f.allow[id]; !ok {
		return false
	}
	if !f.hasPat {
		return true
	}
	return matchComm(f.pattern, comm)
}

// matchComm compares a comm pattern against a task comm byte by byte
// over the fixed buffer. The comparison succeeds when both strings
// terminate at the same offset, or when no mismatching byte is found
// over the first CommLen-1 bytes. A consequence kept from the
// original comparison loop: after the pattern's NUL a match requires
// the name's byte at that offset to equal zero too, but a pattern
// exactly CommLen-1 bytes long matches any name sharing that prefix.
func matchComm(pattern, comm [record.CommLen]byte) bool {
	for i := 0; i < record.CommLen-1; i++ {
		if pattern[i] == 0 && comm[i] == 0 {
			return true
		}
		if pattern[i] != comm[i] {
			return false
		}
	}
	return true
}
