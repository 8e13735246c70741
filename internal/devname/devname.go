// Package devname resolves packed device numbers to block device
// names using sysfs.
package devname

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/probeops/latrace/pkg/devno"
)

// Resolver maps device numbers to names, caching results. Lookups
// that fail fall back to the "major:minor" form, which is also
// cached: a device that is gone will not come back under the same
// number mid-session.
type Resolver struct {
	sysRoot string

	mu    sync.RWMutex
	names map[uint32]string
}

// New creates a resolver reading from /sys.
func New() *Resolver {
	return NewWithRoot("/sys")
}

// NewWithRoot creates a resolver reading from an alternate sysfs
// root. Tests point this at a fixture tree.
func NewWithRoot(root string) *Resolver {
	return &Resolver{
		sysRoot: root,
		names:   make(map[uint32]string),
	}
}

// Lookup returns the device name for a packed device number.
func (r *Resolver) Lookup(dev uint32) string {
	r.mu.RLock()
	if name, ok := r.names[dev]; ok {
		r.mu.RUnlock()
		return name
	}
	r.mu.RUnlock()

	name := r.resolve(dev)

	r.mu.Lock()
	r.names[dev] = name
	r.mu.Unlock()
	return name
}

func (r *Resolver) resolve(dev uint32) string {
	major, minor := devno.Unpack(dev)
	name := fmt.Sprintf("%d:%d", major, minor)

	// Whole-disk devices expose their block directory a level up.
	blockPath := fmt.Sprintf("%s/dev/block/%d:%d/device/../block", r.sysRoot, major, minor)
	if entries, err := os.ReadDir(blockPath); err == nil && len(entries) > 0 {
		return entries[0].Name()
	}

	// Partitions and virtual devices carry DEVNAME in uevent.
	ueventPath := fmt.Sprintf("%s/dev/block/%d:%d/uevent", r.sysRoot, major, minor)
	if data, err := os.ReadFile(ueventPath); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if strings.HasPrefix(line, "DEVNAME=") {
				return strings.TrimPrefix(line, "DEVNAME=")
			}
		}
	}
	return name
}

// IsTracked reports whether a device name belongs to the device
// classes worth aggregating (NVMe and SCSI disks).
func IsTracked(name string) bool {
	return strings.HasPrefix(name, "nvme") || strings.HasPrefix(name, "sd")
}

// ParseFilter converts a comma-separated device filter (names like
// "sdc" or pairs like "8:32") into packed device numbers, resolving
// names through sysfs.
func (r *Resolver) ParseFilter(filter string) ([]uint32, error) {
	if filter == "" {
		return nil, nil
	}

	var devs []uint32
	for _, d := range strings.Split(filter, ",") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if strings.Contains(d, ":") {
			dev, err := devno.Parse(d)
			if err != nil {
				return nil, err
			}
			devs = append(devs, dev)
			continue
		}

		dev, err := r.lookupByName(d)
		if err != nil {
			return nil, err
		}
		devs = append(devs, dev)
	}
	return devs, nil
}

// lookupByName reads MAJOR/MINOR out of /sys/block/<name>/uevent.
func (r *Resolver) lookupByName(name string) (uint32, error) {
	data, err := os.ReadFile(fmt.Sprintf("%s/block/%s/uevent", r.sysRoot, name))
	if err != nil {
		return 0, fmt.Errorf("device not found: %s", name)
	}
	var major, minor uint32
	var haveMajor, haveMinor bool
	for _, line := range strings.Split(string(data), "\n") {
		if v, ok := strings.CutPrefix(line, "MAJOR="); ok {
			if _, err := fmt.Sscanf(v, "%d", &major); err == nil {
				haveMajor = true
			}
		}
		if v, ok := strings.CutPrefix(line, "MINOR="); ok {
			if _, err := fmt.Sscanf(v, "%d", &minor); err == nil {
				haveMinor = true
			}
		}
	}
	if !haveMajor || !haveMinor {
		return 0, fmt.Errorf("no device number for %s", name)
	}
	return devno.Pack(major, minor), nil
}
