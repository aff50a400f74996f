package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"rcos/app"
	"rcos/hal"
	"rcos/internal/buildinfo"
	"rcos/internal/klog"
	"rcos/taskos/kernel"
)

// ErrTasksFailed is returned when a program exits with a non-zero code.
var ErrTasksFailed = errors.New("tasks failed")

type kernelOptions struct {
	logLevel string
	memBytes int
	sleepMs  int64
}

func (o *kernelOptions) addFlags(cmd *cobra.Command) {
	def := app.DefaultConfig()
	cmd.Flags().StringVar(&o.logLevel, "log-level", def.LogLevel.String(), "Kernel log level (off, error, warn, info, debug, trace)")
	cmd.Flags().IntVar(&o.memBytes, "mem", kernel.DefaultMemBytes, "User address space per task in bytes")
	cmd.Flags().Int64Var(&o.sleepMs, "sleep-ms", def.SleepMs, "Sleep duration used by the sleep and taskinfo programs")
}

func (o *kernelOptions) config(programs []string) (app.Config, error) {
	level, err := klog.ParseLevel(o.logLevel)
	if err != nil {
		return app.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if o.memBytes <= 0 {
		return app.Config{}, fmt.Errorf("invalid configuration: --mem %d", o.memBytes)
	}
	if o.sleepMs < 0 {
		return app.Config{}, fmt.Errorf("invalid configuration: --sleep-ms %d", o.sleepMs)
	}

	cfg := app.DefaultConfig()
	cfg.Programs = programs
	cfg.LogLevel = level
	cfg.MemBytes = o.memBytes
	cfg.SleepMs = o.sleepMs
	cfg.BootID = uuid.New()
	return cfg, nil
}

// session is one booted system together with the host it runs on.
type session struct {
	sys *app.System
	cfg app.Config
	log *klog.Logger
}

func boot(cmd *cobra.Command, cfg app.Config) (*session, error) {
	h := hal.NewWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr())
	log := klog.New(h.Logger(), cfg.LogLevel).With("rcos: ")

	sys, err := app.New(h, cfg)
	if err != nil {
		return nil, err
	}
	log.Infof("boot %s (%s), %d programs", sys.Kernel().BootID(), buildinfo.Read().Short(), len(sys.Kernel().Snapshot()))
	return &session{sys: sys, cfg: cfg, log: log}, nil
}

func (s *session) run(ctx context.Context) error {
	if err := s.sys.Run(ctx); err != nil {
		return err
	}
	failed := s.sys.Failed()
	for _, f := range failed {
		s.log.Errorf("task %d %q exited with code %d", f.ID, f.Name, f.ExitCode)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d: %w", len(failed), len(s.sys.Kernel().Snapshot()), ErrTasksFailed)
	}
	s.log.Infof("all programs exited after %d switches", s.sys.Kernel().Switches())
	return nil
}
