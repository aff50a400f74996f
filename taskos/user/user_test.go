package user

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"rcos/taskos/kernel"
	"rcos/taskos/mm"
	"rcos/taskos/proto"
	"rcos/taskos/syscall"
)

type stepClock struct {
	us atomic.Uint64
}

// NowMicros advances 250us per read so that busy loops make progress.
func (c *stepClock) NowMicros() uint64 { return c.us.Add(250) }

func boot(t *testing.T, console *bytes.Buffer, tasks ...func(*kernel.Context)) *kernel.Kernel {
	t.Helper()
	clock := &stepClock{}
	k := kernel.New(kernel.Config{Clock: clock, MemBytes: 16 << 10})
	table := syscall.NewTable(k, clock, console, nil)
	k.SetTrapHandler(func(mem *mm.AddressSpace, id uint64, args [3]uintptr) int64 {
		return table.Dispatch(mem, id, args)
	})
	for i, fn := range tasks {
		if _, err := k.Spawn(string(rune('a'+i)), kernel.TaskFunc(fn)); err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- k.Run(context.Background()) }()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
	return k
}

func TestWriteChunksLargeOutput(t *testing.T) {
	var console bytes.Buffer
	msg := strings.Repeat("x", 3*ioBufBytes+17)
	var ret int64

	boot(t, &console, func(c *kernel.Context) {
		p, err := New(c)
		if err != nil {
			t.Errorf("New: %v", err)
			return
		}
		ret = p.Write(1, []byte(msg))
	})

	if ret != int64(len(msg)) {
		t.Fatalf("Write = %d, want %d", ret, len(msg))
	}
	if console.String() != msg {
		t.Fatal("console output does not match")
	}
}

func TestWriteBadFd(t *testing.T) {
	var console bytes.Buffer
	var ret int64
	boot(t, &console, func(c *kernel.Context) {
		p, _ := New(c)
		ret = p.Write(2, []byte("err"))
	})
	if ret != -1 || console.Len() != 0 {
		t.Fatalf("Write(2) = %d, console=%q", ret, console.String())
	}
}

func TestTimeAndTaskInfo(t *testing.T) {
	var console bytes.Buffer
	var t1, t2 int64
	var info proto.TaskInfo
	var ret int64

	k := boot(t, &console, func(c *kernel.Context) {
		p, _ := New(c)
		t1 = p.GetTime()
		p.Sleep(3)
		t2 = p.GetTime()
		info, ret = p.TaskInfo()
	}, func(c *kernel.Context) {
		p, _ := New(c)
		for i := 0; i < 3; i++ {
			p.Yield()
		}
	})

	if ret != 0 {
		t.Fatalf("TaskInfo ret = %d", ret)
	}
	if t2-t1 < 3 {
		t.Fatalf("slept %d ms, want >= 3", t2-t1)
	}
	if info.Status != proto.StatusRunning {
		t.Fatalf("status = %s", info.Status)
	}
	if info.SyscallTimes[proto.SysTaskInfo] != 1 || info.SyscallTimes[proto.SysGetTime] < 3 || info.SyscallTimes[proto.SysYield] == 0 {
		t.Fatalf("counters: task_info=%d get_time=%d yield=%d",
			info.SyscallTimes[proto.SysTaskInfo], info.SyscallTimes[proto.SysGetTime], info.SyscallTimes[proto.SysYield])
	}
	if int64(info.Time)+1 < t2-t1 {
		t.Fatalf("info.Time = %d ms, observed %d ms", info.Time, t2-t1)
	}

	// A task that returns without calling exit is exited with code 0 and
	// never records an exit syscall.
	for _, s := range k.Snapshot() {
		if s.Status != proto.StatusExited || s.ExitCode != 0 || s.Syscalls[proto.SysExit] != 0 {
			t.Fatalf("task %s: status=%s code=%d exits=%d", s.Name, s.Status, s.ExitCode, s.Syscalls[proto.SysExit])
		}
	}
}

func TestExitStopsProgram(t *testing.T) {
	var console bytes.Buffer
	var after atomic.Bool
	k := boot(t, &console, func(c *kernel.Context) {
		p, _ := New(c)
		p.Exit(-3)
		after.Store(true)
	})
	if after.Load() {
		t.Fatal("code after Exit ran")
	}
	s := k.Snapshot()[0]
	if s.ExitCode != -3 || s.Syscalls[proto.SysExit] != 1 {
		t.Fatalf("code=%d exits=%d", s.ExitCode, s.Syscalls[proto.SysExit])
	}
}

func TestSyscallsRejectProgramImage(t *testing.T) {
	var console bytes.Buffer
	var timeRet, infoRet int64
	var before, after []byte

	k := boot(t, &console, func(c *kernel.Context) {
		p, _ := New(c)
		mem := c.Memory()
		before, _ = mem.Read(mem.Base(), mm.ImageAlign)
		timeRet = p.Syscall(proto.SysGetTime, mem.Base(), 0, 0)
		infoRet = p.Syscall(proto.SysTaskInfo, mem.Base(), 0, 0)
		after, _ = mem.Read(mem.Base(), mm.ImageAlign)
	})

	if timeRet != -1 || infoRet != -1 {
		t.Fatalf("get_time = %d, task_info = %d, want -1", timeRet, infoRet)
	}
	if !bytes.Equal(before, after) || before[0] != 'a' {
		t.Fatalf("image changed: before=%q after=%q", before, after)
	}
	s := k.Snapshot()[0]
	if s.Syscalls[proto.SysGetTime] != 1 || s.Syscalls[proto.SysTaskInfo] != 1 {
		t.Fatalf("rejected calls not counted: get_time=%d task_info=%d",
			s.Syscalls[proto.SysGetTime], s.Syscalls[proto.SysTaskInfo])
	}
}

func TestNewFailsWithoutMemory(t *testing.T) {
	k := kernel.New(kernel.Config{MemBytes: 64})
	var err error
	if _, spawnErr := k.Spawn("tiny", kernel.TaskFunc(func(c *kernel.Context) {
		_, err = New(c)
	})); spawnErr != nil {
		t.Fatalf("Spawn: %v", spawnErr)
	}
	if runErr := k.Run(context.Background()); runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}
	if err == nil {
		t.Fatal("expected allocation error")
	}
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil context")
	}
}
