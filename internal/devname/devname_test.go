package devname

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// writeFixture lays out a minimal sysfs tree:
//
//	<root>/dev/block/8:32/uevent      (partition-style lookup)
//	<root>/block/sdc/uevent           (name -> number lookup)
func writeFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	byNum := filepath.Join(root, "dev", "block", "8:32")
	if err := os.MkdirAll(byNum, 0o755); err != nil {
		t.Fatal(err)
	}
	uevent := "MAJOR=8\nMINOR=32\nDEVNAME=sdc\nDEVTYPE=disk\n"
	if err := os.WriteFile(filepath.Join(byNum, "uevent"), []byte(uevent), 0o644); err != nil {
		t.Fatal(err)
	}

	byName := filepath.Join(root, "block", "sdc")
	if err := os.MkdirAll(byName, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(byName, "uevent"), []byte(uevent), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestLookupFromUevent(t *testing.T) {
	r := NewWithRoot(writeFixture(t))

	if got := r.Lookup(8<<20 | 32); got != "sdc" {
		t.Errorf("Lookup(8:32) = %q, want %q", got, "sdc")
	}
}

func TestLookupUnknownFallsBack(t *testing.T) {
	r := NewWithRoot(t.TempDir())

	if got := r.Lookup(253<<20 | 7); got != "253:7" {
		t.Errorf("Lookup() fallback = %q, want %q", got, "253:7")
	}
}

func TestLookupCaches(t *testing.T) {
	root := writeFixture(t)
	r := NewWithRoot(root)

	if got := r.Lookup(8<<20 | 32); got != "sdc" {
		t.Fatalf("Lookup() = %q", got)
	}
	// Remove the tree: the cached name must survive.
	if err := os.RemoveAll(filepath.Join(root, "dev")); err != nil {
		t.Fatal(err)
	}
	if got := r.Lookup(8<<20 | 32); got != "sdc" {
		t.Errorf("cached Lookup() = %q, want %q", got, "sdc")
	}
}

func TestIsTracked(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"sda", true},
		{"sdc1", true},
		{"nvme0n1", true},
		{"nvme1n1p2", true},
		{"loop0", false},
		{"dm-3", false},
		{"253:7", false},
	}
	for _, tt := range tests {
		if got := IsTracked(tt.name); got != tt.want {
			t.Errorf("IsTracked(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseFilter(t *testing.T) {
	r := NewWithRoot(writeFixture(t))

	tests := []struct {
		name    string
		filter  string
		want    []uint32
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"pair", "8:48", []uint32{8<<20 | 48}, false},
		{"name", "sdc", []uint32{8<<20 | 32}, false},
		{"mixed", "sdc, 8:48", []uint32{8<<20 | 32, 8<<20 | 48}, false},
		{"unknown name", "sdz", nil, true},
		{"bad pair", "8:x", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ParseFilter(tt.filter)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFilter(%q) error = %v, wantErr %v", tt.filter, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseFilter(%q) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}
