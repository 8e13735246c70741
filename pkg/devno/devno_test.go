package devno

import "testing"

func TestPackUnpack(t *testing.T) {
	tests := []struct {
		name   string
		major  uint32
		minor  uint32
		packed uint32
	}{
		{"sda", 8, 0, 8 << 20},
		{"sdc", 8, 32, 8<<20 | 32},
		{"nvme0n1", 259, 0, 259 << 20},
		{"loop7", 7, 7, 7<<20 | 7},
		{"one-one", 1, 1, 0x00100001},
		{"zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pack(tt.major, tt.minor)
			if got != tt.packed {
				t.Errorf("Pack(%d, %d) = %#x, want %#x", tt.major, tt.minor, got, tt.packed)
			}
			major, minor := Unpack(got)
			if major != tt.major || minor != tt.minor {
				t.Errorf("Unpack(%#x) = %d, %d, want %d, %d", got, major, minor, tt.major, tt.minor)
			}
		})
	}
}

func TestPackMasksOversizedMinor(t *testing.T) {
	// A minor wider than 20 bits must not bleed into the major field.
	got := Pack(8, 1<<MinorBits|5)
	want := Pack(8, 5)
	if got != want {
		t.Errorf("Pack with oversized minor = %#x, want %#x", got, want)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"8:32", 8<<20 | 32, false},
		{"259:0", 259 << 20, false},
		{"1:1", 0x00100001, false},
		{"sdc", 0, true},
		{"8:", 0, true},
		{":32", 0, true},
		{"8:32:1", 0, true},
		{"-1:0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Parse(%q) = %#x, want %#x", tt.in, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	if got := String(8<<20 | 48); got != "8:48" {
		t.Errorf("String() = %q, want %q", got, "8:48")
	}
}
