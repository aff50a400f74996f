package proto

import "encoding/binary"

const (
	// TaskInfoSize is the size of a TaskInfo in user memory.
	TaskInfoSize = 2016
	// TaskInfoAlign is the required alignment of a TaskInfo buffer.
	TaskInfoAlign = 8

	taskInfoCountersOff = 4
	taskInfoTimeOff     = 2008
)

// TaskInfo is the snapshot of a task's accounting returned by task_info.
type TaskInfo struct {
	Status       TaskStatus
	SyscallTimes [MaxSyscalls]uint32
	// Time is in milliseconds.
	Time uint64
}

// PutTaskInfo encodes ti into dst.
//
// Layout (little-endian):
//   - u32: status
//   - [MaxSyscalls]u32: syscall counters
//   - 4 bytes padding
//   - u64: time (ms)
func PutTaskInfo(dst []byte, ti *TaskInfo) bool {
	if len(dst) < TaskInfoSize || ti == nil {
		return false
	}
	binary.LittleEndian.PutUint32(dst[0:4], uint32(ti.Status))
	for i, n := range ti.SyscallTimes {
		off := taskInfoCountersOff + 4*i
		binary.LittleEndian.PutUint32(dst[off:off+4], n)
	}
	clear(dst[taskInfoCountersOff+4*MaxSyscalls : taskInfoTimeOff])
	binary.LittleEndian.PutUint64(dst[taskInfoTimeOff:TaskInfoSize], ti.Time)
	return true
}

// DecodeTaskInfo decodes a TaskInfo written by PutTaskInfo.
func DecodeTaskInfo(b []byte) (TaskInfo, bool) {
	var ti TaskInfo
	if len(b) < TaskInfoSize {
		return ti, false
	}
	ti.Status = TaskStatus(binary.LittleEndian.Uint32(b[0:4]))
	for i := range ti.SyscallTimes {
		off := taskInfoCountersOff + 4*i
		ti.SyscallTimes[i] = binary.LittleEndian.Uint32(b[off : off+4])
	}
	ti.Time = binary.LittleEndian.Uint64(b[taskInfoTimeOff:TaskInfoSize])
	return ti, true
}
