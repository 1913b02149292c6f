// Package commands implements the marchkit CLI subcommands.
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marchkit/marchkit/targets"
)

// DetectCmd detects the host microarchitecture
var DetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect the host microarchitecture",
	Long: `Detect the most specific microarchitecture the running host satisfies.

Detection always succeeds: a host no catalog entry matches reports a
generic target named after its machine type.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := targets.DetectHost()
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			output, err := json.MarshalIndent(target.ToMap(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), target.Name)
		return nil
	},
}

func init() {
	DetectCmd.Flags().BoolP("json", "j", false, "Output the detected target as JSON")
}
