// Package record defines the fixed-width binary layouts carried on the
// sample channels.
//
// Consumers decode records by byte offset, so field widths, order, and
// padding are part of the contract and must not change. All fields are
// little-endian.
package record

import (
	"encoding/binary"
	"fmt"
)

// CommLen is the fixed width of a command-name buffer, including the
// NUL padding.
const CommLen = 16

// BlockSize is the encoded size of a block sample:
//
//	offset 0  u32 dev (major<<20 | minor)
//	offset 4  u32 padding
//	offset 8  u64 latency_ns
const BlockSize = 16

// SyscallSize is the encoded size of a syscall sample:
//
//	offset 0   u64 latency_ns
//	offset 8   u32 syscall_id
//	offset 12  u32 pid
//	offset 16  u32 tid
//	offset 20  u32 padding
//	offset 24  s64 ret
//	offset 32  char comm[16], NUL-padded
//
// The padding at offset 20 keeps the 64-bit return value naturally
// aligned, matching the C struct the layout originates from.
const SyscallSize = 48

// Block is one completed block-request latency sample.
type Block struct {
	Dev       uint32
	LatencyNs uint64
}

// Syscall is one completed syscall latency sample.
type Syscall struct {
	LatencyNs uint64
	ID        uint32
	PID       uint32
	TID       uint32
	Ret       int64
	Comm      [CommLen]byte
}

// EncodeBlock writes a block sample into buf, which must be at least
// BlockSize bytes.
func EncodeBlock(buf []byte, s Block) {
	binary.LittleEndian.PutUint32(buf[0:4], s.Dev)
	binary.LittleEndian.PutUint32(buf[4:8], 0)
	binary.LittleEndian.PutUint64(buf[8:16], s.LatencyNs)
}

// DecodeBlock reads a block sample from buf.
func DecodeBlock(buf []byte) (Block, error) {
	if len(buf) < BlockSize {
		return Block{}, fmt.Errorf("block record too short: %d bytes, want %d", len(buf), BlockSize)
	}
	return Block{
		Dev:       binary.LittleEndian.Uint32(buf[0:4]),
		LatencyNs: binary.LittleEndian.Uint64(buf[8:16]),
	}, nil
}

// EncodeSyscall writes a syscall sample into buf, which must be at
// least SyscallSize bytes.
func EncodeSyscall(buf []byte, s Syscall) {
	binary.LittleEndian.PutUint64(buf[0:8], s.LatencyNs)
	binary.LittleEndian.PutUint32(buf[8:12], s.ID)
	binary.LittleEndian.PutUint32(buf[12:16], s.PID)
	binary.LittleEndian.PutUint32(buf[16:20], s.TID)
	binary.LittleEndian.PutUint32(buf[20:24], 0)
	binary.LittleEndian.PutUint64(buf[24:32], uint64(s.Ret))
	copy(buf[32:32+CommLen], s.Comm[:])
}

// DecodeSyscall reads a syscall sample from buf.
func DecodeSyscall(buf []byte) (Syscall, error) {
	if len(buf) < SyscallSize {
		return Syscall{}, fmt.Errorf("syscall record too short: %d bytes, want %d", len(buf), SyscallSize)
	}
	s := Syscall{
		LatencyNs: binary.LittleEndian.Uint64(buf[0:8]),
		ID:        binary.LittleEndian.Uint32(buf[8:12]),
		PID:       binary.LittleEndian.Uint32(buf[12:16]),
		TID:       binary.LittleEndian.Uint32(buf[16:20]),
		Ret:       int64(binary.LittleEndian.Uint64(buf[24:32])),
	}
	copy(s.Comm[:], buf[32:32+CommLen])
	return s, nil
}

// MakeComm converts a command name into a fixed NUL-padded buffer.
// Names longer than CommLen-1 are truncated the way the kernel
// truncates task comms.
func MakeComm(name string) [CommLen]byte {
	var comm [CommLen]byte
	copy(comm[:CommLen-1], name)
	return comm
}

// CommString converts a fixed comm buffer back into a string,
// dropping the NUL padding.
func CommString(comm [CommLen]byte) string {
	for i, b := range comm {
		if b == 0 {
			return string(comm[:i])
		}
	}
	return string(comm[:])
}
