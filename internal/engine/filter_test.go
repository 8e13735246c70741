package engine

import (
	"testing"

	"github.com/probeops/latrace/internal/record"
)

func TestDeviceFilterDefaultAllow(t *testing.T) {
	f := NewDeviceFilter()

	// Disabled: everything traces, allow-set irrelevant.
	if !f.ShouldTrace(0x00100001) {
		t.Error("disabled filter rejected a device")
	}
	if err := f.Allow(0x00800020); err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !f.ShouldTrace(0x00900000) {
		t.Error("disabled filter rejected device outside allow-set")
	}

	// Enabled: only the allow-set traces.
	f.SetEnabled(true)
	if !f.ShouldTrace(0x00800020) {
		t.Error("enabled filter rejected allowed device")
	}
	if f.ShouldTrace(0x00900000) {
		t.Error("enabled filter accepted device outside allow-set")
	}

	// Disabling again restores default-allow.
	f.SetEnabled(false)
	if !f.ShouldTrace(0x00900000) {
		t.Error("re-disabled filter rejected a device")
	}
}

func TestDeviceFilterCapacity(t *testing.T) {
	f := NewDeviceFilter()
	for i := 0; i < FilterCapacity; i++ {
		if err := f.Allow(uint32(i)); err != nil {
			t.Fatalf("Allow(%d) error = %v", i, err)
		}
	}
	if err := f.Allow(FilterCapacity); err != ErrFilterFull {
		t.Errorf("Allow() at capacity = %v, want ErrFilterFull", err)
	}
	// Re-adding an existing key is not a new entry.
	if err := f.Allow(0); err != nil {
		t.Errorf("Allow() of existing key at capacity = %v", err)
	}
}

func TestSyscallFilterDefaultDeny(t *testing.T) {
	f := NewSyscallFilter()
	comm := record.MakeComm("anything")

	// Empty allow-set: nothing traces, there is no enable flag to
	// flip this policy.
	for _, id := range []uint32{0, 1, 74, 9999} {
		if f.ShouldTrace(id, comm) {
			t.Errorf("empty allow-set traced syscall %d", id)
		}
	}

	if err := f.Allow(74); err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !f.ShouldTrace(74, comm) {
		t.Error("allowed syscall rejected")
	}
	if f.ShouldTrace(75, comm) {
		t.Error("unlisted syscall accepted")
	}
}

func TestSyscallFilterCommPattern(t *testing.T) {
	f := NewSyscallFilter()
	if err := f.Allow(0); err != nil {
		t.Fatalf("Allow() error = %v", err)
	}

	f.SetComm("storagenode")
	if !f.ShouldTrace(0, record.MakeComm("storagenode")) {
		t.Error("exact comm rejected")
	}
	if f.ShouldTrace(0, record.MakeComm("storagenode2")) {
		t.Error("longer comm accepted against shorter pattern")
	}
	if f.ShouldTrace(0, record.MakeComm("storagenod")) {
		t.Error("shorter comm accepted")
	}
	if f.ShouldTrace(0, record.MakeComm("postgres")) {
		t.Error("unrelated comm accepted")
	}

	// Clearing the pattern removes the restriction.
	f.SetComm("")
	if !f.ShouldTrace(0, record.MakeComm("postgres")) {
		t.Error("cleared pattern still rejecting")
	}
}

func TestMatchComm(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		comm    string
		want    bool
	}{
		{"exact", "nginx", "nginx", true},
		{"both empty", "", "", true},
		{"mismatch", "nginx", "nginz", false},
		{"pattern shorter", "ng", "nginx", false},
		{"comm shorter", "nginx", "ng", false},
		// A full-width pattern matches any comm sharing the first 15
		// bytes: the loop never reaches the differing byte. Kept
		// exactly as the original comparison behaves.
		{"full-width prefix", "123456789012345", "123456789012345", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchComm(record.MakeComm(tt.pattern), record.MakeComm(tt.comm))
			if got != tt.want {
				t.Errorf("matchComm(%q, %q) = %v, want %v", tt.pattern, tt.comm, got, tt.want)
			}
		})
	}
}

func TestMatchCommFullWidthTruncation(t *testing.T) {
	// Two names that differ only past the truncation point are
	// indistinguishable to the matcher.
	pattern := record.MakeComm("abcdefghijklmno") // 15 bytes, fills the buffer
	long := record.MakeComm("abcdefghijklmnoXYZ")
	if !matchComm(pattern, long) {
		t.Error("full-width pattern should match a truncated longer comm")
	}
}
