package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rcos/taskos/export"
)

// NewSnapshotCmd creates the snapshot subcommand.
func NewSnapshotCmd() *cobra.Command {
	opts := &kernelOptions{}
	var output string
	cmd := &cobra.Command{
		Use:   "snapshot [programs...]",
		Short: "Run programs and export accounting as Parquet",
		Long: `Run the named programs to completion, then write one Parquet row per
task with its final status, time and syscall counters.

Example:
  rcos snapshot -o acct.parquet
  rcos snapshot taskinfo sleep`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(args)
			if err != nil {
				return err
			}
			s, err := boot(cmd, cfg)
			if err != nil {
				return err
			}
			runErr := s.run(cmd.Context())

			path := output
			if path == "" {
				path = fmt.Sprintf("snapshot-%s.parquet", time.Now().Format("20060102-150405"))
			}
			rows := export.Rows(s.sys.Kernel().BootID().String(), s.sys.Kernel().Snapshot())
			if err := export.WriteFile(path, rows); err != nil {
				return fmt.Errorf("failed to export snapshot: %w", err)
			}
			s.log.Infof("wrote %d rows to %s", len(rows), path)
			return runErr
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (auto-generated if empty)")
	return cmd
}
