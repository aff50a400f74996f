package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"rcos/hal"
	"rcos/internal/klog"
	"rcos/taskos/kernel"
	"rcos/taskos/mm"
	"rcos/taskos/syscall"
)

// Config selects the programs to load and how the kernel is set up.
type Config struct {
	// Programs to spawn, in order. Empty means all of DefaultPrograms.
	Programs []string
	LogLevel klog.Level
	// MemBytes is the user address space per task (kernel default if 0).
	MemBytes int
	// SleepMs is how long the sleep and taskinfo programs wait.
	SleepMs  int64
	Observer kernel.Observer
	BootID   uuid.UUID
}

// DefaultConfig returns the configuration used by the CLI.
func DefaultConfig() Config {
	return Config{
		LogLevel: klog.LevelInfo,
		SleepMs:  100,
	}
}

// System is a booted kernel with its programs loaded.
type System struct {
	k *kernel.Kernel
}

// New boots a kernel on h and spawns the configured programs.
func New(h hal.HAL, cfg Config) (*System, error) {
	log := klog.New(h.Logger(), cfg.LogLevel)

	k := kernel.New(kernel.Config{
		Clock:        h.Clock(),
		Log:          log,
		Observer:     cfg.Observer,
		BootID:       cfg.BootID,
		MemBytes:     cfg.MemBytes,
		PanicHandler: panicHandler(h),
	})
	table := syscall.NewTable(k, h.Clock(), h.Console(), log)
	k.SetTrapHandler(func(mem *mm.AddressSpace, id uint64, args [3]uintptr) int64 {
		return table.Dispatch(mem, id, args)
	})

	names := cfg.Programs
	if len(names) == 0 {
		names = DefaultPrograms()
	}
	for _, name := range names {
		task, ok := newProgram(name, cfg)
		if !ok {
			return nil, fmt.Errorf("unknown program %q", name)
		}
		if _, err := k.Spawn(name, task); err != nil {
			return nil, err
		}
	}

	return &System{k: k}, nil
}

// Kernel returns the booted kernel.
func (s *System) Kernel() *kernel.Kernel { return s.k }

// Run runs every program to completion.
func (s *System) Run(ctx context.Context) error {
	return s.k.Run(ctx)
}

// Failed returns the tasks that exited with a non-zero code.
func (s *System) Failed() []kernel.TaskSnapshot {
	var out []kernel.TaskSnapshot
	for _, snap := range s.k.Snapshot() {
		if snap.ExitCode != 0 {
			out = append(out, snap)
		}
	}
	return out
}
