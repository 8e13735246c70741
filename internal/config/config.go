// Package config loads and validates the latrace configuration file.
//
// Configuration is YAML. Every setting has a flag equivalent; the
// file exists so a box's standing monitor setup is reproducible.
//
// Example:
//
//	block:
//	  devices: [sdc, "8:48"]
//	  storeCapacity: 65536
//	  ringBytes: 8388608
//	syscalls:
//	  names: [pread64, pwrite64, fsync]
//	  comm: storagenode
//	display:
//	  interval: 10s
//	  refresh: 100ms
//	  batch: false
//	histogram:
//	  min: 1
//	  max: 60000000
//	  sigFigs: 3
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Block     Block     `json:"block,omitempty" yaml:"block,omitempty"`
	Syscalls  Syscalls  `json:"syscalls,omitempty" yaml:"syscalls,omitempty"`
	Display   Display   `json:"display,omitempty" yaml:"display,omitempty"`
	Histogram Histogram `json:"histogram,omitempty" yaml:"histogram,omitempty"`
}

// Block configures the block-latency engine and its device filter.
type Block struct {
	// Devices is the allow-set, as names ("sdc") or "major:minor"
	// pairs. Empty leaves device filtering disabled: trace all.
	Devices []string `json:"devices,omitempty" yaml:"devices,omitempty"`

	// StoreCapacity bounds concurrently tracked in-flight requests.
	StoreCapacity int `json:"storeCapacity,omitempty" yaml:"storeCapacity,omitempty"`

	// RingBytes bounds the sample channel.
	RingBytes int `json:"ringBytes,omitempty" yaml:"ringBytes,omitempty"`
}

// Syscalls configures the syscall-latency engine and its filter.
type Syscalls struct {
	// Names is the allow-set of syscall names. Syscalls not listed
	// are never traced.
	Names []string `json:"names,omitempty" yaml:"names,omitempty"`

	// Comm, when set, restricts tracing to processes with this
	// command name.
	Comm string `json:"comm,omitempty" yaml:"comm,omitempty"`

	StoreCapacity int `json:"storeCapacity,omitempty" yaml:"storeCapacity,omitempty"`
	RingBytes     int `json:"ringBytes,omitempty" yaml:"ringBytes,omitempty"`
}

// Display configures the terminal monitor.
type Display struct {
	// Interval is the period after which interval histograms reset.
	Interval Duration `json:"interval,omitempty" yaml:"interval,omitempty"`

	// Refresh is the screen redraw period.
	Refresh Duration `json:"refresh,omitempty" yaml:"refresh,omitempty"`

	// Batch disables screen clearing, appending each refresh.
	Batch bool `json:"batch,omitempty" yaml:"batch,omitempty"`
}

// Histogram sizes the consumer-side HDR histograms, in microseconds.
type Histogram struct {
	Min     int64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     int64 `json:"max,omitempty" yaml:"max,omitempty"`
	SigFigs int   `json:"sigFigs,omitempty" yaml:"sigFigs,omitempty"`
}

// Duration is a time.Duration that unmarshals from "10s" style
// strings in YAML and JSON.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Block: Block{
			StoreCapacity: 65536,
			RingBytes:     8 << 20,
		},
		Syscalls: Syscalls{
			Names:         []string{"pread64", "pwrite64", "fsync", "fdatasync", "read", "write"},
			StoreCapacity: 10240,
			RingBytes:     256 << 10,
		},
		Display: Display{
			Interval: Duration(10 * time.Second),
			Refresh:  Duration(100 * time.Millisecond),
		},
		Histogram: Histogram{
			Min:     1,
			Max:     60_000_000,
			SigFigs: 3,
		},
	}
}

// applyDefaults fills zero-valued fields from Default. Lists are left
// alone: an explicitly empty syscall list means "trace nothing" and
// must stay empty.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Block.StoreCapacity == 0 {
		c.Block.StoreCapacity = def.Block.StoreCapacity
	}
	if c.Block.RingBytes == 0 {
		c.Block.RingBytes = def.Block.RingBytes
	}
	if c.Syscalls.StoreCapacity == 0 {
		c.Syscalls.StoreCapacity = def.Syscalls.StoreCapacity
	}
	if c.Syscalls.RingBytes == 0 {
		c.Syscalls.RingBytes = def.Syscalls.RingBytes
	}
	if c.Display.Interval == 0 {
		c.Display.Interval = def.Display.Interval
	}
	if c.Display.Refresh == 0 {
		c.Display.Refresh = def.Display.Refresh
	}
	if c.Histogram.Min == 0 {
		c.Histogram.Min = def.Histogram.Min
	}
	if c.Histogram.Max == 0 {
		c.Histogram.Max = def.Histogram.Max
	}
	if c.Histogram.SigFigs == 0 {
		c.Histogram.SigFigs = def.Histogram.SigFigs
	}
}
