package sysnames

import (
	"reflect"
	"testing"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		num  uint32
		ok   bool
	}{
		{"read", 0, true},
		{"write", 1, true},
		{"fsync", 74, true},
		{"pread64", 17, true},
		{"openat", 257, true},
		{"sendmmsg", 307, true},
		{"bogus", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			num, ok := Number(tt.name)
			if ok != tt.ok || (ok && num != tt.num) {
				t.Errorf("Number(%q) = %d, %v, want %d, %v", tt.name, num, ok, tt.num, tt.ok)
			}
		})
	}
}

func TestName(t *testing.T) {
	if got := Name(74); got != "fsync" {
		t.Errorf("Name(74) = %q, want %q", got, "fsync")
	}
	if got := Name(9999); got != "sys_9999" {
		t.Errorf("Name(9999) = %q, want %q", got, "sys_9999")
	}
}

func TestNameNumberRoundTrip(t *testing.T) {
	for _, name := range All() {
		num, ok := Number(name)
		if !ok {
			t.Fatalf("All() returned unknown name %q", name)
		}
		if got := Name(num); got != name {
			t.Errorf("Name(Number(%q)) = %q", name, got)
		}
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name    string
		list    string
		want    []uint32
		wantErr bool
	}{
		{"default set", "pread64,pwrite64,fsync", []uint32{17, 18, 74}, false},
		{"spaces and empties", " read , ,write ", []uint32{0, 1}, false},
		{"empty list", "", nil, false},
		{"unknown", "read,frobnicate", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseList(tt.list)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseList(%q) error = %v, wantErr %v", tt.list, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseList(%q) = %v, want %v", tt.list, got, tt.want)
			}
		})
	}
}
