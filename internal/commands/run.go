package commands

import (
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run subcommand.
func NewRunCmd() *cobra.Command {
	opts := &kernelOptions{}
	cmd := &cobra.Command{
		Aliases: []string{"r"},
		Use:     "run [programs...]",
		Short:   "Run programs to completion",
		Long: `Boot the kernel, load the named programs (all built-ins if none are
given) and run them until every task has exited.

Example:
  rcos run
  rcos run yield_a yield_b yield_c --log-level trace`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(args)
			if err != nil {
				return err
			}
			s, err := boot(cmd, cfg)
			if err != nil {
				return err
			}
			return s.run(cmd.Context())
		},
	}
	opts.addFlags(cmd)
	return cmd
}
