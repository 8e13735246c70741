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
	"github.com/probeops/latrace/internal/engine"
	"github.com/probeops/latrace/internal/output"
	"github.com/probeops/latrace/internal/record"
	"github.com/probeops/latrace/internal/source"
	"github.com/probeops/latrace/internal/stats"
	"github.com/probeops/latrace/pkg/sysnames"
)

var syscallsCmd = &cobra.Command{
	Use:   "syscalls",
	Short: "Monitor syscall latency",
	Long: `Syscalls measures the latency of system calls from enter to exit,
aggregated per syscall. Only syscalls named with -s (or in the
configuration file) are traced; -c further restricts tracing to
processes whose command name matches.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := getMonitorOptions(cmd)
		names, _ := cmd.Flags().GetString("syscalls")
		comm, _ := cmd.Flags().GetString("comm")

		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}
		if names != "" {
			cfg.Syscalls.Names = strings.Split(names, ",")
		}
		if comm != "" {
			cfg.Syscalls.Comm = comm
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runSyscalls(ctx, cfg, opts)
	},
}

func runSyscalls(ctx context.Context, cfg config.Config, opts monitorOptions) error {
	ids, err := sysnames.ParseList(strings.Join(cfg.Syscalls.Names, ","))
	if err != nil {
		return err
	}

	clk := engine.Clock(engine.Nanotime)
	var vclk *source.VirtualClock
	if opts.tracePath != "" {
		vclk = &source.VirtualClock{}
		clk = vclk.Now
	}

	eng, err := engine.NewSyscallEngine(engine.SyscallConfig{
		StoreCapacity: cfg.Syscalls.StoreCapacity,
		RingBytes:     cfg.Syscalls.RingBytes,
		Clock:         clk,
	})
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := eng.Filter().Allow(id); err != nil {
			return err
		}
	}
	if cfg.Syscalls.Comm != "" {
		eng.Filter().SetComm(cfg.Syscalls.Comm)
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
			Title:     "SYSCALL LATENCY",
			BatchMode: cfg.Display.Batch,
			Scheme:    output.SchemeFor(cfg.Display.Batch),
			KeyName:   sysnames.Name,
			ShowTop:   opts.top > 0,
			Footer: func() string {
				return fmt.Sprintf("Dropped: %s starts, %s samples",
					output.FormatCount(int64(eng.DroppedStarts())),
					output.FormatCount(int64(eng.DroppedSamples())))
			},
		},
		sample: func(buf []byte) (uint32, uint64, bool) {
			s, err := record.DecodeSyscall(buf)
			if err != nil {
				return 0, 0, false
			}
			return s.ID, s.LatencyNs, true
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
		rep := &source.Replayer{Clock: vclk, Syscall: eng}
		log.WithField("trace", opts.tracePath).Info("replaying syscall trace")
		go func() {
			defer eng.Close()
			defer f.Close()
			if err := rep.Run(ctx, f); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("trace replay failed")
			}
		}()
	case opts.synth:
		synth := &source.SyscallSynth{Syscalls: ids, Comm: cfg.Syscalls.Comm}
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
	syscallsCmd.Flags().StringP("syscalls", "s", "", "Comma-separated syscall names to trace")
	syscallsCmd.Flags().StringP("comm", "c", "", "Only trace processes with this command name")
	monitorFlags(syscallsCmd)
}
