// Command estatectl is the operator CLI for EstateHub: schema migration, demo
// data and listing moderation from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"estatehub/internal/bootstrap"
	"estatehub/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// openRuntime connects the shared runtime. Tests replace it.
var openRuntime = func(ctx context.Context) (*bootstrap.Runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return bootstrap.InitRuntime(ctx, cfg)
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "estatectl",
		Short:         "EstateHub operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(
		migrateCmd(),
		seedCmd(),
		listingsCmd(),
	)
	return root
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
