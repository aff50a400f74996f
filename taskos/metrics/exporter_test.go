package metrics

import (
	"context"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"rcos/taskos/kernel"
	"rcos/taskos/proto"
)

func TestExporterRecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	e, err := NewExporter("rcos", reg, "boot-1")
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}

	e.RecordSyscall(2, "sleep", proto.SysYield)
	e.RecordSyscall(2, "sleep", proto.SysYield)
	e.RecordSwitch(1, 2)
	e.RecordStatus(2, "sleep", proto.StatusExited, 120)
	e.RecordPanic()

	if got := testutil.ToFloat64(e.syscallTotal.WithLabelValues("2", "sleep", "yield")); got != 2 {
		t.Fatalf("syscall total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(e.switchTotal); got != 1 {
		t.Fatalf("switch total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(e.taskStatus.WithLabelValues("2", "sleep")); got != float64(proto.StatusExited) {
		t.Fatalf("status = %v, want %d", got, proto.StatusExited)
	}
	if got := testutil.ToFloat64(e.taskTimeMs.WithLabelValues("2", "sleep")); got != 120 {
		t.Fatalf("time = %v, want 120", got)
	}
	if got := testutil.ToFloat64(e.panicTotal); got != 1 {
		t.Fatalf("panic total = %v, want 1", got)
	}
}

func TestExporterAlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewExporter("rcos", reg, "boot-1")
	if err != nil {
		t.Fatalf("first NewExporter: %v", err)
	}
	second, err := NewExporter("rcos", reg, "boot-1")
	if err != nil {
		t.Fatalf("second NewExporter: %v", err)
	}

	first.RecordPanic()
	second.RecordPanic()
	if got := testutil.ToFloat64(first.panicTotal); got != 2 {
		t.Fatalf("shared panic counter = %v, want 2", got)
	}
}

func TestUnnamedTasksLabelledByID(t *testing.T) {
	e, err := NewExporter("rcos", prom.NewRegistry(), "boot-1")
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	e.RecordSyscall(3, "", proto.SysWrite)
	e.RecordSyscall(4, "", proto.SysWrite)

	if got := testutil.ToFloat64(e.syscallTotal.WithLabelValues("3", "task3", "write")); got != 1 {
		t.Fatalf("task3 writes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(e.syscallTotal.WithLabelValues("4", "task4", "write")); got != 1 {
		t.Fatalf("task4 writes = %v, want 1", got)
	}
}

func TestNilExporterIsNoop(t *testing.T) {
	var e *Exporter
	e.RecordSyscall(0, "", 0)
	e.RecordSwitch(0, 1)
	e.RecordStatus(0, "", proto.StatusReady, 0)
	e.RecordPanic()
}

type tickClock struct{ us uint64 }

func (c *tickClock) NowMicros() uint64 { c.us += 100; return c.us }

func TestExporterObservesKernel(t *testing.T) {
	reg := prom.NewRegistry()
	e, err := NewExporter("rcos", reg, "boot-2")
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}

	k := kernel.New(kernel.Config{Clock: &tickClock{}, Observer: e})
	for _, name := range []string{"a", "b"} {
		if _, err := k.Spawn(name, kernel.TaskFunc(func(c *kernel.Context) {
			_ = k.RecordSyscall(proto.SysYield)
			k.SuspendCurrentAndRunNext()
		})); err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := k.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, id := range []string{"0", "1"} {
		name := map[string]string{"0": "a", "1": "b"}[id]
		if got := testutil.ToFloat64(e.syscallTotal.WithLabelValues(id, name, "yield")); got != 1 {
			t.Fatalf("task %s yields = %v, want 1", id, got)
		}
		if got := testutil.ToFloat64(e.taskStatus.WithLabelValues(id, name)); got != float64(proto.StatusExited) {
			t.Fatalf("task %s status = %v, want exited", id, got)
		}
	}
	if got := testutil.ToFloat64(e.switchTotal); got != float64(k.Switches()) {
		t.Fatalf("switch total = %v, want %d", got, k.Switches())
	}
	if n := testutil.CollectAndCount(e.syscallTotal); n != 2 {
		t.Fatalf("syscall series = %d, want 2", n)
	}
}
