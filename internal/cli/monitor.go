package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/probeops/latrace/internal/config"
	"github.com/probeops/latrace/internal/output"
	"github.com/probeops/latrace/internal/ringbuf"
	"github.com/probeops/latrace/internal/stats"
)

// monitorOptions holds the flags shared by the blk and syscalls
// commands.
type monitorOptions struct {
	configPath string
	tracePath  string
	synth      bool
	batch      bool
	interval   time.Duration
	exportPath string
	top        int
}

func monitorFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to a YAML configuration file")
	cmd.Flags().String("trace", "", "Replay events from a JSONL trace file instead of tracing live")
	cmd.Flags().Bool("synth", false, "Generate synthetic events (for trying the tool out)")
	cmd.Flags().BoolP("batch", "b", false, "Batch mode: append each refresh instead of clearing the screen")
	cmd.Flags().DurationP("interval", "i", 0, "Interval histogram reset period (default 10s)")
	cmd.Flags().String("export", "", "Write a JSON summary of lifetime stats to this file on exit")
	cmd.Flags().Int("top", 5, "Track the N slowest samples per key (0 disables)")
}

func getMonitorOptions(cmd *cobra.Command) monitorOptions {
	var o monitorOptions
	o.configPath, _ = cmd.Flags().GetString("config")
	o.tracePath, _ = cmd.Flags().GetString("trace")
	o.synth, _ = cmd.Flags().GetBool("synth")
	o.batch, _ = cmd.Flags().GetBool("batch")
	o.interval, _ = cmd.Flags().GetDuration("interval")
	o.exportPath, _ = cmd.Flags().GetString("export")
	o.top, _ = cmd.Flags().GetInt("top")
	return o
}

// loadConfig resolves effective configuration: the file when given,
// built-in defaults otherwise, with command-line overrides applied on
// top by the caller.
func loadConfig(o monitorOptions) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		cfg, err = config.Load(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
	}
	if o.interval > 0 {
		cfg.Display.Interval = config.Duration(o.interval)
	}
	if o.batch {
		cfg.Display.Batch = true
	}
	return cfg, nil
}

// monitor drains one sample ring into aggregated stats and keeps the
// terminal display current.
type monitor struct {
	ring    *ringbuf.Ring
	stats   *stats.State
	display *output.Display

	// sample decodes one ring record into an aggregation key and a
	// latency. ok=false skips the record.
	sample func(buf []byte) (key uint32, latencyNs uint64, ok bool)

	refresh  time.Duration
	interval time.Duration

	exportPath string
}

// run consumes samples until the context is cancelled or the ring is
// closed and drained, rendering at the refresh rate and resetting
// interval histograms at the interval boundary. A final render and
// the optional export happen on the way out.
func (m *monitor) run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.consume(ctx)
	}()

	refresh := time.NewTicker(m.refresh)
	defer refresh.Stop()
	reset := time.NewTicker(m.interval)
	defer reset.Stop()

	for {
		select {
		case <-done:
			m.render()
			if m.exportPath != "" {
				if err := m.writeExport(); err != nil {
					return err
				}
				log.WithField("path", m.exportPath).Info("wrote stats export")
			}
			return nil
		case <-refresh.C:
			m.render()
		case <-reset.C:
			m.stats.ResetIntervals()
		}
	}
}

func (m *monitor) consume(ctx context.Context) {
	buf := make([]byte, m.ring.RecordSize())
	for {
		if err := m.ring.Next(ctx, buf); err != nil {
			if !errors.Is(err, ringbuf.ErrClosed) && !errors.Is(err, context.Canceled) {
				log.WithError(err).Warn("sample channel read failed")
			}
			return
		}
		key, latencyNs, ok := m.sample(buf)
		if !ok {
			continue
		}
		m.stats.Record(key, int64(latencyNs/1000))
	}
}

func (m *monitor) render() {
	snap, start, lastReset := m.stats.Snapshot()
	m.display.Render(snap, start, lastReset, m.interval)
}

// exportKey is the per-key shape of the JSON summary, all latencies
// in microseconds.
type exportKey struct {
	Count int64   `json:"count"`
	AvgUs float64 `json:"avgUs"`
	P50Us int64   `json:"p50Us"`
	P99Us int64   `json:"p99Us"`
	MaxUs int64   `json:"maxUs"`
}

type exportDoc struct {
	CapturedAt time.Time            `json:"capturedAt"`
	Title      string               `json:"title"`
	Keys       map[string]exportKey `json:"keys"`
	Total      int64                `json:"total"`
}

func (m *monitor) writeExport() error {
	snap, _, _ := m.stats.Snapshot()
	doc := exportDoc{
		CapturedAt: time.Now().UTC(),
		Title:      m.display.Title,
		Keys:       make(map[string]exportKey, len(snap)),
	}

	keys := make([]uint32, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		h := snap[k].Lifetime
		if h.TotalCount() == 0 {
			continue
		}
		doc.Keys[m.display.KeyName(k)] = exportKey{
			Count: h.TotalCount(),
			AvgUs: h.Mean(),
			P50Us: h.ValueAtQuantile(50),
			P99Us: h.ValueAtQuantile(99),
			MaxUs: h.Max(),
		}
		doc.Total += h.TotalCount()
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	if err := os.WriteFile(m.exportPath, data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}
