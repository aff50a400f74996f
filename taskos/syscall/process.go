package syscall

import "rcos/taskos/proto"

// Exit ends the current task with code and switches to the next one.
// It never returns; if the registry ever comes back, the kernel panics.
func (t *Table) Exit(code int32) {
	t.log.Tracef("sys_exit code=%d", code)
	t.reg.ExitCurrentAndRunNext(code)
	t.reg.Panic("unreachable in sys_exit")
}

// Yield gives up the CPU and returns 0 once the task runs again.
func (t *Table) Yield() int64 {
	t.log.Tracef("sys_yield")
	t.reg.SuspendCurrentAndRunNext()
	return 0
}

// GetTime writes the current time as a TimeVal at ts and returns 0. The tz
// argument is ignored.
//
// The clock itself cannot fail. -1 is returned only when the address space
// rejects ts (unmapped, read-only or misaligned), and then nothing is
// written.
func (t *Table) GetTime(mem Memory, ts, _ uintptr) int64 {
	var us uint64
	if t.clock != nil {
		us = t.clock.NowMicros()
	}
	buf, err := mem.UserBuffer(ts, proto.TimeValSize, proto.TimeValAlign)
	if err != nil {
		t.log.Warnf("sys_get_time: %v", err)
		return -1
	}
	t.log.Tracef("sys_get_time ts=%#x", buf.Addr())
	proto.PutTimeVal(buf.Bytes(), proto.TimeValFromMicros(us))
	return 0
}

// TaskInfo writes the caller's accounting snapshot at ti. Like GetTime it
// returns -1 only when ti is rejected by the address space.
func (t *Table) TaskInfo(mem Memory, ti uintptr) int64 {
	buf, err := mem.UserBuffer(ti, proto.TaskInfoSize, proto.TaskInfoAlign)
	if err != nil {
		t.log.Warnf("sys_task_info: %v", err)
		return -1
	}
	t.log.Tracef("sys_task_info ti=%#x", buf.Addr())
	if err := t.reg.PopulateTaskInfo(buf); err != nil {
		t.log.Warnf("sys_task_info: %v", err)
		return -1
	}
	return 0
}

// Write copies n bytes at buf to the console. Only stdout is supported.
func (t *Table) Write(mem Memory, fd, buf uintptr, n int) int64 {
	if fd != FdStdout {
		t.log.Warnf("sys_write: unsupported fd %d", fd)
		return -1
	}
	data, err := mem.Read(buf, n)
	if err != nil {
		t.log.Warnf("sys_write: %v", err)
		return -1
	}
	if t.console == nil {
		return -1
	}
	written, err := t.console.Write(data)
	if err != nil {
		t.log.Warnf("sys_write: %v", err)
		return -1
	}
	return int64(written)
}
