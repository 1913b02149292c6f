package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marchkit/marchkit/targets"
)

// TargetsCmd lists all known targets
var TargetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List all known microarchitecture targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := targets.SupportedTargetNames()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}
