package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marchkit/marchkit/errors"
	"github.com/marchkit/marchkit/targets"
)

// CompatCmd reports whether the host can run code tuned for a target
var CompatCmd = &cobra.Command{
	Use:   "compat <target>",
	Short: "Check whether the host can run code tuned for a target",
	Long: `Check whether the running host can execute binaries tuned for the
named target: true when the target is the detected microarchitecture
itself or one of its ancestors.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := targets.Lookup(args[0])
		if err != nil {
			return err
		}

		host, err := targets.DetectHost()
		if err != nil {
			return err
		}

		compatible, err := hostSupports(host, target)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "host:       %s\n", host.Name)
		fmt.Fprintf(out, "target:     %s\n", target.Name)
		fmt.Fprintf(out, "compatible: %t\n", compatible)
		return nil
	},
}

// hostSupports reports whether a host microarchitecture can run code
// tuned for target. A target unrelated to the host is not supported,
// not an error.
func hostSupports(host, target *targets.Microarchitecture) (bool, error) {
	compatible, err := target.LessEqual(host)
	if err != nil {
		if errors.IsIncomparable(err) {
			return false, nil
		}
		return false, err
	}
	return compatible, nil
}
