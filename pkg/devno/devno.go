// Package devno packs and unpacks block device numbers.
//
// A device number is a single 32-bit value combining the driver major
// number and the per-device minor number:
//
//	dev = major << 20 | minor
//
// The minor occupies the low 20 bits, the major the bits above it. A
// packed value of zero means "no backing device" and is never a valid
// device of interest.
package devno

import (
	"fmt"
	"strconv"
	"strings"
)

// MinorBits is the width of the minor-number field.
const MinorBits = 20

// minorMask selects the minor field from a packed device number.
const minorMask = (1 << MinorBits) - 1

// Pack combines a major/minor pair into a single device number.
func Pack(major, minor uint32) uint32 {
	return major<<MinorBits | minor&minorMask
}

// Unpack splits a packed device number into its major/minor pair.
func Unpack(dev uint32) (major, minor uint32) {
	return dev >> MinorBits, dev & minorMask
}

// String renders a packed device number in "major:minor" form.
func String(dev uint32) string {
	major, minor := Unpack(dev)
	return fmt.Sprintf("%d:%d", major, minor)
}

// Parse converts a "major:minor" string into a packed device number.
func Parse(s string) (uint32, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid device number %q: want major:minor", s)
	}
	major, err := strconv.ParseUint(parts[0], 10, 12)
	if err != nil {
		return 0, fmt.Errorf("invalid major in %q: %w", s, err)
	}
	minor, err := strconv.ParseUint(parts[1], 10, MinorBits)
	if err != nil {
		return 0, fmt.Errorf("invalid minor in %q: %w", s, err)
	}
	return Pack(uint32(major), uint32(minor)), nil
}
