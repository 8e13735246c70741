// Package output renders aggregated latency statistics to the
// terminal.
package output

import (
	"fmt"
	"time"
)

// FormatLatency renders a latency in microseconds compactly: µs below
// a millisecond, whole (rounded) ms below a second, fractional
// seconds above.
func FormatLatency(us int64) string {
	if us < 1000 {
		return fmt.Sprintf("%dµs", us)
	}
	if us < 1_000_000 {
		ms := (us + 500) / 1000
		return fmt.Sprintf("%dms", ms)
	}
	s := float64(us) / 1_000_000
	return fmt.Sprintf("%.1fs", s)
}

// FormatLatencyPadded renders a latency right-aligned in 8 columns.
func FormatLatencyPadded(us int64) string {
	return fmt.Sprintf("%8s", FormatLatency(us))
}

// FormatCount renders a sample count with a K/M/B suffix.
func FormatCount(n int64) string {
	if n >= 1_000_000_000 {
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	}
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// FormatDuration renders an elapsed time at a resolution matching its
// magnitude.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
