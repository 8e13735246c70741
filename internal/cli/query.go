package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/probeops/latrace/pkg/jsonpath"
)

var queryCmd = &cobra.Command{
	Use:   "query FILE PATH [PATH...]",
	Short: "Query values out of an exported stats file",
	Long: `Query resolves JSONPath expressions against a JSON stats export
written by blk or syscalls --export.

Examples:
  latrace query export.json '$.keys.sda.p99Us'
  latrace query export.json '$.total' '$.keys.nvme0n1.count'`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading export: %w", err)
		}

		paths := args[1:]
		for _, path := range paths {
			value, err := jsonpath.Extract(string(data), path)
			if err != nil {
				return err
			}
			if len(paths) == 1 {
				fmt.Fprintln(cmd.OutOrStdout(), value)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", path, value)
			}
		}
		return nil
	},
}
