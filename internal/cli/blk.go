package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/probeops/latrace/internal/config"
	"github.com/probeops/latrace/internal/devname"
	"github.com/probeops/latrace/internal/engine"
	"github.com/probeops/latrace/internal/output"
	"github.com/probeops/latrace/internal/record"
	"github.com/probeops/latrace/internal/source"
	"github.com/probeops/latrace/internal/stats"
	"github.com/probeops/latrace/pkg/devno"
)

var blkCmd = &cobra.Command{
	Use:   "blk",
	Short: "Monitor block device I/O latency",
	Long: `Blk measures the latency of block layer requests from issue to
completion, aggregated per device. With no device filter every device
is traced; -d restricts tracing to the listed devices.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := getMonitorOptions(cmd)
		deviceList, _ := cmd.Flags().GetString("devices")

		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}
		if deviceList != "" {
			cfg.Block.Devices = strings.Split(deviceList, ",")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runBlk(ctx, cfg, opts)
	},
}

func runBlk(ctx context.Context, cfg config.Config, opts monitorOptions) error {
	resolver := devname.New()

	clk := engine.Clock(engine.Nanotime)
	var vclk *source.VirtualClock
	if opts.tracePath != "" {
		vclk = &source.VirtualClock{}
		clk = vclk.Now
	}

	eng, err := engine.NewBlockEngine(engine.BlockConfig{
		StoreCapacity: cfg.Block.StoreCapacity,
		RingBytes:     cfg.Block.RingBytes,
		Clock:         clk,
	})
	if err != nil {
		return err
	}

	devs, err := resolver.ParseFilter(strings.Join(cfg.Block.Devices, ","))
	if err != nil {
		return err
	}
	if len(devs) > 0 {
		eng.Filter().SetEnabled(true)
		for _, d := range devs {
			if err := eng.Filter().Allow(d); err != nil {
				return err
			}
		}
	}

	st := stats.New(stats.Options{
		HistMin:    cfg.Histogram.Min,
		HistMax:    cfg.Histogram.Max,
		HistSigFig: cfg.Histogram.SigFigs,
		TopN:       opts.top,
	})

	mon := &monitor{
		ring:  eng.Ring(),
		stats: st,
		display: &output.Display{
			Out:       os.Stdout,
			Title:     "BLOCK DEVICE LATENCY",
			BatchMode: cfg.Display.Batch,
			Scheme:    output.SchemeFor(cfg.Display.Batch),
			KeyName:   resolver.Lookup,
			ShowTop:   opts.top > 0,
			Footer: func() string {
				return fmt.Sprintf("Dropped: %s starts, %s samples",
					output.FormatCount(int64(eng.DroppedStarts())),
					output.FormatCount(int64(eng.DroppedSamples())))
			},
		},
		sample: func(buf []byte) (uint32, uint64, bool) {
			s, err := record.DecodeBlock(buf)
			if err != nil {
				return 0, 0, false
			}
			// Skip loop, dm and other virtual devices when the name
			// resolved through sysfs; an unresolved device (trace
			// replay on another box) stays visible under its pair.
			name := resolver.Lookup(s.Dev)
			if name != devno.String(s.Dev) && !devname.IsTracked(name) {
				return 0, 0, false
			}
			return s.Dev, s.LatencyNs, true
		},
		refresh:    cfg.Display.Refresh.Std(),
		interval:   cfg.Display.Interval.Std(),
		exportPath: opts.exportPath,
	}

	switch {
	case opts.tracePath != "":
		f, err := os.Open(opts.tracePath)
		if err != nil {
			return fmt.Errorf("opening trace: %w", err)
		}
		rep := &source.Replayer{Clock: vclk, Block: eng}
		log.WithField("trace", opts.tracePath).Info("replaying block trace")
		go func() {
			defer eng.Close()
			defer f.Close()
			if err := rep.Run(ctx, f); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("trace replay failed")
			}
		}()
	case opts.synth:
		synth := &source.BlockSynth{Devices: devs}
		go func() {
			defer eng.Close()
			synth.Run(ctx, eng)
		}()
	default:
		return errors.New("no event source: use --trace FILE or --synth")
	}

	return mon.run(ctx)
}

func init() {
	blkCmd.Flags().StringP("devices", "d", "", "Comma-separated devices to trace (names or major:minor pairs)")
	monitorFlags(blkCmd)
}
