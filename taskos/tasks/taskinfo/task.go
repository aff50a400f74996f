package taskinfo

import (
	"fmt"

	"rcos/taskos/kernel"
	"rcos/taskos/proto"
	"rcos/taskos/user"
)

// Task checks the task_info syscall against the calls it made itself.
type Task struct {
	sleepMs int64
}

func New(sleepMs int64) *Task { return &Task{sleepMs: sleepMs} }

func (t *Task) Run(ctx *kernel.Context) {
	p, err := user.New(ctx)
	if err != nil {
		panic(err)
	}

	t1 := p.GetTime()
	p.Yield()
	p.Sleep(t.sleepMs)
	t2 := p.GetTime()
	info, ret := p.TaskInfo()
	t3 := p.GetTime()

	if err := Check(info, ret, t1, t2, t3); err != nil {
		p.Printf("taskinfo: %v\n", err)
		p.Exit(-1)
	}
	p.Println("Test task info OK!")
	p.Exit(0)
}

// Check validates a task_info snapshot taken between t2 and t3 by a task
// that started timing at t1, slept with yields and made no write or exit
// calls before the snapshot.
func Check(info proto.TaskInfo, ret, t1, t2, t3 int64) error {
	switch {
	case ret != 0:
		return fmt.Errorf("task_info returned %d", ret)
	case info.Status != proto.StatusRunning:
		return fmt.Errorf("status %s, want running", info.Status)
	case info.SyscallTimes[proto.SysGetTime] < 3:
		return fmt.Errorf("get_time count %d, want >= 3", info.SyscallTimes[proto.SysGetTime])
	case info.SyscallTimes[proto.SysTaskInfo] != 1:
		return fmt.Errorf("task_info count %d, want 1", info.SyscallTimes[proto.SysTaskInfo])
	case info.SyscallTimes[proto.SysWrite] != 0:
		return fmt.Errorf("write count %d, want 0", info.SyscallTimes[proto.SysWrite])
	case info.SyscallTimes[proto.SysYield] == 0:
		return fmt.Errorf("yield count 0, want > 0")
	case info.SyscallTimes[proto.SysExit] != 0:
		return fmt.Errorf("exit count %d, want 0", info.SyscallTimes[proto.SysExit])
	case t2-t1 > int64(info.Time)+1:
		return fmt.Errorf("time %d ms shorter than observed %d ms", info.Time, t2-t1)
	case int64(info.Time) >= t3-t1+100:
		return fmt.Errorf("time %d ms longer than observed %d ms", info.Time, t3-t1)
	}
	return nil
}
