// Package main is the entry point for the hollow mod engine.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"github.com/hollowmc/hollow/cmd/hollow/commands"
	"github.com/hollowmc/hollow/internal/app"
	"github.com/hollowmc/hollow/internal/core/domain"
	_ "github.com/hollowmc/hollow/internal/wiring"
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr, func(ctx context.Context) (*app.Components, func(), error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		return c, func() {}, err
	}))
}

func run(
	ctx context.Context,
	args []string,
	stderr io.Writer,
	provider ComponentProvider,
) int {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	components, cleanup, err := provider(ctx)
	if err != nil {
		// Logger is not available yet if initialization failed.
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}
	defer cleanup()

	cli := commands.New(components.App)
	cli.SetArgs(args)
	cli.SetOutput(os.Stdout, stderr)

	if err := cli.Execute(ctx); err != nil {
		components.Logger.Error(err)
		// Resolution failures get their own exit code so scripts can tell
		// "your mod set is inconsistent" apart from infrastructure errors.
		if errors.Is(err, domain.ErrNoCompatibleVersion) || errors.Is(err, domain.ErrUnresolvableConflict) {
			return 2
		}
		return 1
	}
	return 0
}
