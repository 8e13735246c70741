package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/probeops/latrace/internal/stats"
)

const tableWidth = 120

// highLatencyUs is where a max latency switches to the alarm color.
const highLatencyUs = 1_000_000

// Display renders latency tables for one operation kind.
type Display struct {
	Out       io.Writer
	Title     string
	BatchMode bool
	Scheme    *ColorScheme

	// KeyName renders a row key (device number, syscall id) as a
	// display name.
	KeyName func(uint32) string

	// ShowTop adds a top-5 maxima section when the snapshots carry
	// top-N data.
	ShowTop bool

	// Footer, when set, contributes an extra status line (drop
	// counters and the like).
	Footer func() string
}

func (d *Display) resetCursor(buf *strings.Builder) {
	if !d.BatchMode {
		buf.WriteString("\033[H\033[J")
	}
}

// Render writes one full refresh of the monitor tables.
func (d *Display) Render(snap map[uint32]*stats.KeyStats, startTime, lastReset time.Time, intervalDur time.Duration) {
	var buf strings.Builder
	d.resetCursor(&buf)
	now := time.Now()

	keys := make([]uint32, 0, len(snap))
	for key := range snap {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return d.KeyName(keys[i]) < d.KeyName(keys[j])
	})

	elapsed := now.Sub(startTime)
	intervalElapsed := now.Sub(lastReset)
	d.Scheme.Title.Fprintf(&buf, "%s - %s (uptime: %s, interval: %s/%s)\n",
		d.Title, now.Format("15:04:05"),
		FormatDuration(elapsed), FormatDuration(intervalElapsed), FormatDuration(intervalDur))
	buf.WriteString(strings.Repeat("=", tableWidth))
	buf.WriteString("\n")

	d.section(&buf, "INTERVAL", keys, snap, func(ks *stats.KeyStats) *hdrhistogram.Histogram {
		return ks.Interval
	})
	buf.WriteString("\n")
	totalSamples := d.section(&buf, "LIFETIME", keys, snap, func(ks *stats.KeyStats) *hdrhistogram.Histogram {
		return ks.Lifetime
	})

	if d.ShowTop {
		buf.WriteString("\n")
		d.topSection(&buf, keys, snap)
	}

	buf.WriteString(strings.Repeat("=", tableWidth))
	buf.WriteString("\n")

	rate := float64(0)
	if elapsed.Seconds() > 0 {
		rate = float64(totalSamples) / elapsed.Seconds()
	}
	footer := fmt.Sprintf("Total: %s samples | Rate: %s/s",
		FormatCount(totalSamples), FormatCount(int64(rate)))
	if d.Footer != nil {
		footer += " | " + d.Footer()
	}
	d.Scheme.Footer.Fprintln(&buf, footer)

	if d.BatchMode {
		buf.WriteString("\n")
	}
	fmt.Fprint(d.Out, buf.String())
}

// section writes one histogram table and returns its total count.
func (d *Display) section(buf *strings.Builder, label string, keys []uint32, snap map[uint32]*stats.KeyStats, hist func(*stats.KeyStats) *hdrhistogram.Histogram) int64 {
	d.Scheme.Header.Fprintf(buf, "%-10s │ %8s %8s %8s %8s %8s %8s %8s │ %9s\n",
		label, "avg", "p50", "p90", "p95", "p99", "p99.9", "max", "samples")
	buf.WriteString(strings.Repeat("-", tableWidth))
	buf.WriteString("\n")

	var total int64
	for _, key := range keys {
		h := hist(snap[key])
		n := h.TotalCount()
		total += n
		name := d.KeyName(key)
		if n == 0 {
			fmt.Fprintf(buf, "%-10s │ %8s %8s %8s %8s %8s %8s %8s │ %9s\n",
				name, "-", "-", "-", "-", "-", "-", "-", "0")
			continue
		}
		maxCol := d.Scheme.LatencyOK
		if h.Max() >= highLatencyUs {
			maxCol = d.Scheme.LatencyHi
		}
		d.Scheme.Key.Fprintf(buf, "%-10s", name)
		fmt.Fprintf(buf, " │ %s %s %s %s %s %s %s │ %9s\n",
			FormatLatencyPadded(int64(h.Mean())),
			FormatLatencyPadded(h.ValueAtQuantile(50)),
			FormatLatencyPadded(h.ValueAtQuantile(90)),
			FormatLatencyPadded(h.ValueAtQuantile(95)),
			FormatLatencyPadded(h.ValueAtQuantile(99)),
			FormatLatencyPadded(h.ValueAtQuantile(99.9)),
			maxCol.Sprint(FormatLatencyPadded(h.Max())),
			FormatCount(n),
		)
	}
	return total
}

// topSection writes the top-5 maxima per key, interval then lifetime.
func (d *Display) topSection(buf *strings.Builder, keys []uint32, snap map[uint32]*stats.KeyStats) {
	d.Scheme.Header.Fprintf(buf, "%-10s │ %-44s │ %-44s\n",
		"TOP-5 MAX", "interval (worst last)", "lifetime (worst last)")
	buf.WriteString(strings.Repeat("-", tableWidth))
	buf.WriteString("\n")

	for _, key := range keys {
		ks := snap[key]
		if ks.IntervalTop == nil {
			continue
		}
		d.Scheme.Key.Fprintf(buf, "%-10s", d.KeyName(key))
		fmt.Fprintf(buf, " │ %s │ %s\n",
			formatTop(ks.IntervalTop), formatTop(ks.LifetimeTop))
	}
}

// formatTop renders a TopN as five fixed-width columns, dash-padded.
func formatTop(top *stats.TopN) string {
	vals := top.Get()
	parts := make([]string, 0, 5)
	for i := 0; i < 5-len(vals); i++ {
		parts = append(parts, fmt.Sprintf("%8s", "-"))
	}
	for _, v := range vals {
		parts = append(parts, FormatLatencyPadded(v))
	}
	return strings.Join(parts, " ")
}
