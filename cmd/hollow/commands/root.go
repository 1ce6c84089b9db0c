// Package commands implements the CLI commands for the hollow mod engine.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/hollowmc/hollow/internal/build"
	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/spf13/cobra"
)

// defaultProfilePath is where commands look for the profile when --config
// is not given.
const defaultProfilePath = "hollow.yaml"

// CLI represents the command line interface for hollow.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Plan(ctx context.Context, configPath string) (domain.Plan, error)
	Upgrade(ctx context.Context, configPath string) (domain.Plan, error)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "hollow",
		Short:         "A mod resolution and installation engine for game servers",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", defaultProfilePath, "Path to the profile file")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newUpgradeCmd())
	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}

// printPlan renders a plan step per line, skipping no-ops.
func printPlan(w io.Writer, plan domain.Plan) {
	for _, step := range plan.Steps {
		switch step.Action {
		case domain.ActionAdd:
			_, _ = fmt.Fprintf(w, "  + %s %s\n", step.Ref.Key(), step.Version.ID)
		case domain.ActionUpdate:
			_, _ = fmt.Fprintf(w, "  ~ %s %s -> %s\n", step.Ref.Key(), step.Old.VersionID, step.Version.ID)
		case domain.ActionRemove:
			_, _ = fmt.Fprintf(w, "  - %s %s\n", step.Ref.Key(), step.Old.VersionID)
		case domain.ActionDisable:
			_, _ = fmt.Fprintf(w, "  o %s disabled\n", step.Ref.Key())
		case domain.ActionEnable:
			_, _ = fmt.Fprintf(w, "  o %s enabled\n", step.Ref.Key())
		case domain.ActionNoOp:
		}
	}
	_, _ = fmt.Fprintln(w, plan.Summary())
}
