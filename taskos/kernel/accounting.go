package kernel

import (
	"errors"
	"fmt"
	"math"

	"rcos/taskos/proto"
)

// MaxSyscalls is the number of per-task syscall counters.
const MaxSyscalls = proto.MaxSyscalls

// TaskStatus is the lifecycle tag of a task.
type TaskStatus = proto.TaskStatus

// ErrSyscallRange is returned when a syscall index does not fit the counter array.
var ErrSyscallRange = errors.New("syscall index out of range")

// TaskAccounting records one task's status, per-syscall invocation counts
// and cumulative time in milliseconds.
//
// The zero value is an uninitialised task with all counters at zero.
type TaskAccounting struct {
	status   TaskStatus
	syscalls [MaxSyscalls]uint32
	time     uint64
}

// Status returns the lifecycle status.
func (a *TaskAccounting) Status() TaskStatus { return a.status }

// SetStatus replaces the lifecycle status.
func (a *TaskAccounting) SetStatus(s TaskStatus) { a.status = s }

// SyscallCounts returns a copy of all counters.
func (a *TaskAccounting) SyscallCounts() [MaxSyscalls]uint32 { return a.syscalls }

// SetSyscallCounts replaces all counters at once.
func (a *TaskAccounting) SetSyscallCounts(counts *[MaxSyscalls]uint32) {
	if counts == nil {
		return
	}
	a.syscalls = *counts
}

// SyscallCount returns the counter at index, or 0 if index is out of range.
func (a *TaskAccounting) SyscallCount(index uint64) uint32 {
	if index >= MaxSyscalls {
		return 0
	}
	return a.syscalls[index]
}

// IncrementSyscall bumps the counter at index. Counters saturate at
// math.MaxUint32.
func (a *TaskAccounting) IncrementSyscall(index uint64) error {
	if index >= MaxSyscalls {
		return fmt.Errorf("increment %d (max %d): %w", index, MaxSyscalls, ErrSyscallRange)
	}
	if a.syscalls[index] != math.MaxUint32 {
		a.syscalls[index]++
	}
	return nil
}

// Time returns the cumulative time in milliseconds.
func (a *TaskAccounting) Time() uint64 { return a.time }

// SetTime updates the cumulative time. Values below the current time are
// ignored: time never goes backwards.
func (a *TaskAccounting) SetTime(ms uint64) {
	if ms > a.time {
		a.time = ms
	}
}

// Info returns the user-visible snapshot of the record.
func (a *TaskAccounting) Info() proto.TaskInfo {
	return proto.TaskInfo{
		Status:       a.status,
		SyscallTimes: a.syscalls,
		Time:         a.time,
	}
}
