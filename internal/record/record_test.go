package record

import (
	"bytes"
	"testing"
)

func TestEncodeBlockLayout(t *testing.T) {
	buf := make([]byte, BlockSize)
	EncodeBlock(buf, Block{Dev: 0x00100001, LatencyNs: 150})

	want := []byte{
		0x01, 0x00, 0x10, 0x00, // dev = 1<<20 | 1
		0x00, 0x00, 0x00, 0x00, // padding
		0x96, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // latency = 150
	}
	if !bytes.Equal(buf, want) {
		t.Errorf("EncodeBlock bytes = % x, want % x", buf, want)
	}

	got, err := DecodeBlock(buf)
	if err != nil {
		t.Fatalf("DecodeBlock() error = %v", err)
	}
	if got.Dev != 0x00100001 || got.LatencyNs != 150 {
		t.Errorf("DecodeBlock() = %+v", got)
	}
}

func TestDecodeBlockShort(t *testing.T) {
	if _, err := DecodeBlock(make([]byte, BlockSize-1)); err == nil {
		t.Error("DecodeBlock() accepted short buffer")
	}
}

func TestEncodeSyscallLayout(t *testing.T) {
	buf := make([]byte, SyscallSize)
	EncodeSyscall(buf, Syscall{
		LatencyNs: 0x0102030405060708,
		ID:        74, // fsync
		PID:       4242,
		TID:       4243,
		Ret:       -5, // EIO
		Comm:      MakeComm("storagenode"),
	})

	// Field offsets are the contract: latency 0, id 8, pid 12, tid 16,
	// pad 20, ret 24, comm 32.
	if buf[0] != 0x08 || buf[7] != 0x01 {
		t.Errorf("latency bytes wrong: % x", buf[0:8])
	}
	if buf[8] != 74 {
		t.Errorf("syscall id at offset 8 = %d, want 74", buf[8])
	}
	if !bytes.Equal(buf[20:24], []byte{0, 0, 0, 0}) {
		t.Errorf("padding at offset 20 not zero: % x", buf[20:24])
	}
	if !bytes.Equal(buf[24:32], []byte{0xfb, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("ret at offset 24 = % x, want two's-complement -5", buf[24:32])
	}
	if string(buf[32:43]) != "storagenode" || buf[43] != 0 {
		t.Errorf("comm at offset 32 = %q", buf[32:48])
	}

	got, err := DecodeSyscall(buf)
	if err != nil {
		t.Fatalf("DecodeSyscall() error = %v", err)
	}
	if got.Ret != -5 || got.PID != 4242 || got.TID != 4243 || got.ID != 74 {
		t.Errorf("DecodeSyscall() = %+v", got)
	}
	if CommString(got.Comm) != "storagenode" {
		t.Errorf("CommString() = %q", CommString(got.Comm))
	}
}

func TestMakeComm(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "nginx", "nginx"},
		{"empty", "", ""},
		{"exactly 15", "123456789012345", "123456789012345"},
		{"truncated", "a-very-long-process-name", "a-very-long-pro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comm := MakeComm(tt.in)
			if got := CommString(comm); got != tt.want {
				t.Errorf("CommString(MakeComm(%q)) = %q, want %q", tt.in, got, tt.want)
			}
			// Last byte always stays NUL, like a kernel task comm.
			if comm[CommLen-1] != 0 {
				t.Errorf("MakeComm(%q) final byte = %d, want 0", tt.in, comm[CommLen-1])
			}
		})
	}
}
