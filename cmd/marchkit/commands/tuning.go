package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marchkit/marchkit/targets"
)

// TuningCmd resolves the tuning name for a compiler version
var TuningCmd = &cobra.Command{
	Use:   "tuning <target> <compiler> <version>",
	Short: "Show the tuning name a compiler should be passed for a target",
	Long: `Resolve the -march/-mcpu value a compiler version should be passed to
generate code for a target. When the compiler version predates the
target, the closest ancestor it can tune for is reported instead.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := targets.Lookup(args[0])
		if err != nil {
			return err
		}

		name, err := target.TuningFor(args[1], args[2])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	},
}
