// Package commands provides the rcos CLI.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with all subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rcos",
		Short: "Cooperative teaching kernel with per-task syscall accounting",
		Long: `rcos boots a small cooperative kernel, loads the built-in user programs
and runs them to completion, accounting every syscall each task makes.

Commands:
  run        Run programs and print their console output
  snapshot   Run programs, then export per-task accounting as Parquet
  serve      Run programs and expose accounting as Prometheus metrics
  version    Print build information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		NewRunCmd(),
		NewSnapshotCmd(),
		NewServeCmd(),
		NewVersionCmd(),
	)

	return root
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
