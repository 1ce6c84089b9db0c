package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newUpgradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Resolve the profile and apply the result to the mod directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			if dryRun {
				plan, err := c.app.Plan(cmd.Context(), configPath(cmd))
				if err != nil {
					return err
				}
				printPlan(cmd.OutOrStdout(), plan)
				return nil
			}

			plan, err := c.app.Upgrade(cmd.Context(), configPath(cmd))
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "Resolve and print the plan without touching the mod directory")
	return cmd
}
