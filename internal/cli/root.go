package cli

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "latrace",
	Short:   "Terminal-based block device and syscall latency monitor",
	Version: version,
	Long: `Latrace measures I/O latency by correlating begin/end event pairs:
block request issue to completion, and syscall enter to exit. Samples
are aggregated into HDR histograms and rendered as live terminal
tables, refreshed several times a second.

Events come from a recorded trace file, or from a built-in synthetic
workload for trying the tool out.`,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print help
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	// Add subcommands to root command
	RootCmd.AddCommand(blkCmd)
	RootCmd.AddCommand(syscallsCmd)
	RootCmd.AddCommand(queryCmd)
}
