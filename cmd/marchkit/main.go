package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marchkit/marchkit/cmd/marchkit/commands"
	"github.com/marchkit/marchkit/config"
	"github.com/marchkit/marchkit/logger"
)

var rootCmd = &cobra.Command{
	Use:   "marchkit",
	Short: "marchkit - host CPU microarchitecture detection",
	Long: `marchkit - host CPU microarchitecture catalog and detection.

marchkit detects the most specific microarchitecture the running host
satisfies, so build tooling can pick the right compiler tuning flags.

Examples:
  marchkit detect                    # Detect the host microarchitecture
  marchkit detect --json             # Machine-readable detection result
  marchkit targets                   # List all known targets
  marchkit family haswell            # Show family and lineage of a target
  marchkit compat haswell            # Can this host run haswell-tuned code?
  marchkit tuning haswell gcc 9.3.0  # Tuning name for a compiler version`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")

		jsonLogs := false
		if cfg, err := config.Load(); err == nil {
			jsonLogs = cfg.Log.JSON
		}
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")

	rootCmd.AddCommand(commands.DetectCmd)
	rootCmd.AddCommand(commands.TargetsCmd)
	rootCmd.AddCommand(commands.FamilyCmd)
	rootCmd.AddCommand(commands.CompatCmd)
	rootCmd.AddCommand(commands.TuningCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
