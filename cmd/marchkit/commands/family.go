package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marchkit/marchkit/targets"
)

// FamilyCmd shows the family and lineage of a target
var FamilyCmd = &cobra.Command{
	Use:   "family <target>",
	Short: "Show the architecture family and lineage of a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := targets.Lookup(args[0])
		if err != nil {
			return err
		}

		family, err := target.Family()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "target:   %s\n", target.Name)
		fmt.Fprintf(out, "vendor:   %s\n", target.Vendor)
		fmt.Fprintf(out, "family:   %s\n", family.Name)
		if len(target.Parents) > 0 {
			fmt.Fprintf(out, "parents:  %s\n", strings.Join(target.ParentNames(), ", "))
		}
		if ancestors := target.Ancestors(); len(ancestors) > 0 {
			names := make([]string, len(ancestors))
			for i, a := range ancestors {
				names[i] = a.Name
			}
			fmt.Fprintf(out, "lineage:  %s\n", strings.Join(names, " -> "))
		}
		if features := target.FeatureList(); len(features) > 0 {
			fmt.Fprintf(out, "features: %s\n", strings.Join(features, " "))
		}
		return nil
	},
}
