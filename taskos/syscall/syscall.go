// Package syscall implements the process-control syscalls and the trap
// dispatch that routes a syscall number to its handler.
package syscall

import (
	"rcos/hal"
	"rcos/internal/klog"
	"rcos/taskos/mm"
	"rcos/taskos/proto"
)

// FdStdout is the only file descriptor write accepts.
const FdStdout = 1

// Registry is the task registry the handlers act through. It owns every
// task's accounting record.
type Registry interface {
	// RecordSyscall counts one invocation by the current task.
	RecordSyscall(id uint64) error
	// ExitCurrentAndRunNext switches to another task and never returns.
	ExitCurrentAndRunNext(code int32)
	// SuspendCurrentAndRunNext returns once the caller is scheduled again.
	SuspendCurrentAndRunNext()
	// PopulateTaskInfo writes the current task's snapshot into dst.
	PopulateTaskInfo(dst mm.UserBuffer) error
	// Panic halts the kernel and never returns.
	Panic(v any)
}

// Memory validates user addresses for the calling task.
type Memory interface {
	UserBuffer(addr uintptr, size, align int) (mm.UserBuffer, error)
	Read(addr uintptr, n int) ([]byte, error)
}

// Table holds the collaborators the handlers need.
type Table struct {
	reg     Registry
	clock   hal.Clock
	console hal.Console
	log     *klog.Logger
}

// NewTable returns a syscall table. console may be nil, in which case write fails.
func NewTable(reg Registry, clock hal.Clock, console hal.Console, log *klog.Logger) *Table {
	return &Table{reg: reg, clock: clock, console: console, log: log.With("kernel: ")}
}

// Dispatch counts the syscall against the current task and runs its handler.
// Unknown or out-of-range ids return -1.
func (t *Table) Dispatch(mem Memory, id uint64, args [3]uintptr) int64 {
	if err := t.reg.RecordSyscall(id); err != nil {
		t.log.Warnf("rejected syscall %d: %v", id, err)
		return -1
	}

	switch id {
	case proto.SysWrite:
		return t.Write(mem, args[0], args[1], int(args[2]))
	case proto.SysExit:
		t.Exit(int32(args[0]))
		return -1
	case proto.SysYield:
		return t.Yield()
	case proto.SysGetTime:
		return t.GetTime(mem, args[0], args[1])
	case proto.SysTaskInfo:
		return t.TaskInfo(mem, args[0])
	default:
		t.log.Warnf("unsupported syscall %s", proto.SyscallName(id))
		return -1
	}
}
