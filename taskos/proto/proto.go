// Package proto defines the syscall numbers and the user-visible memory
// layouts shared between the kernel and user programs.
package proto

import "fmt"

// MaxSyscalls is the number of syscall counter slots in TaskInfo.
const MaxSyscalls = 500

// Syscall numbers (RISC-V Linux numbering).
const (
	SysWrite    uint64 = 64
	SysExit     uint64 = 93
	SysYield    uint64 = 124
	SysGetTime  uint64 = 169
	SysTaskInfo uint64 = 410
)

// SyscallName returns a short name for a syscall number.
func SyscallName(id uint64) string {
	switch id {
	case SysWrite:
		return "write"
	case SysExit:
		return "exit"
	case SysYield:
		return "yield"
	case SysGetTime:
		return "get_time"
	case SysTaskInfo:
		return "task_info"
	default:
		return fmt.Sprintf("sys_%d", id)
	}
}

// TaskStatus is the lifecycle tag of a task. It is written to user memory
// as a u32.
type TaskStatus uint32

const (
	StatusUnInit TaskStatus = iota
	StatusReady
	StatusRunning
	StatusExited
)

func (s TaskStatus) String() string {
	switch s {
	case StatusUnInit:
		return "uninit"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusExited:
		return "exited"
	default:
		return "unknown"
	}
}
