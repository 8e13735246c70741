package config

import (
	"fmt"
	"strings"

	"github.com/probeops/latrace/internal/record"
	"github.com/probeops/latrace/pkg/devno"
	"github.com/probeops/latrace/pkg/sysnames"
)

// Validate checks cross-field constraints the schema cannot express.
func (c Config) Validate() error {
	if len(c.Block.Devices) > 64 {
		return fmt.Errorf("block.devices: at most 64 entries, got %d", len(c.Block.Devices))
	}
	for _, dev := range c.Block.Devices {
		if dev == "" {
			return fmt.Errorf("block.devices: empty entry")
		}
		if strings.Contains(dev, ":") {
			if _, err := devno.Parse(dev); err != nil {
				return fmt.Errorf("block.devices: %w", err)
			}
		}
	}
	if c.Block.StoreCapacity < 1 {
		return fmt.Errorf("block.storeCapacity must be positive, got %d", c.Block.StoreCapacity)
	}
	if c.Block.RingBytes < record.BlockSize {
		return fmt.Errorf("block.ringBytes must hold at least one sample (%d bytes), got %d",
			record.BlockSize, c.Block.RingBytes)
	}

	if len(c.Syscalls.Names) > 64 {
		return fmt.Errorf("syscalls.names: at most 64 entries, got %d", len(c.Syscalls.Names))
	}
	for _, name := range c.Syscalls.Names {
		if _, ok := sysnames.Number(name); !ok {
			return fmt.Errorf("syscalls.names: unknown syscall %q", name)
		}
	}
	if len(c.Syscalls.Comm) > record.CommLen-1 {
		return fmt.Errorf("syscalls.comm: at most %d characters, got %d",
			record.CommLen-1, len(c.Syscalls.Comm))
	}
	if c.Syscalls.StoreCapacity < 1 {
		return fmt.Errorf("syscalls.storeCapacity must be positive, got %d", c.Syscalls.StoreCapacity)
	}
	if c.Syscalls.RingBytes < record.SyscallSize {
		return fmt.Errorf("syscalls.ringBytes must hold at least one sample (%d bytes), got %d",
			record.SyscallSize, c.Syscalls.RingBytes)
	}

	if c.Display.Interval <= 0 {
		return fmt.Errorf("display.interval must be positive")
	}
	if c.Display.Refresh <= 0 {
		return fmt.Errorf("display.refresh must be positive")
	}

	if c.Histogram.Min < 1 {
		return fmt.Errorf("histogram.min must be at least 1, got %d", c.Histogram.Min)
	}
	if c.Histogram.Max <= c.Histogram.Min {
		return fmt.Errorf("histogram.max (%d) must exceed histogram.min (%d)",
			c.Histogram.Max, c.Histogram.Min)
	}
	if c.Histogram.SigFigs < 1 || c.Histogram.SigFigs > 5 {
		return fmt.Errorf("histogram.sigFigs must be 1-5, got %d", c.Histogram.SigFigs)
	}
	return nil
}
