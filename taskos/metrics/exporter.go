// Package metrics exports kernel accounting events to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"

	"rcos/taskos/kernel"
	"rcos/taskos/proto"
)

// Exporter adapts kernel.Observer to Prometheus collectors.
type Exporter struct {
	syscallTotal *prom.CounterVec
	switchTotal  prom.Counter
	taskStatus   *prom.GaugeVec
	taskTimeMs   *prom.GaugeVec
	panicTotal   prom.Counter
}

var _ kernel.Observer = (*Exporter)(nil)

// NewExporter creates and registers the collectors. bootID is attached as a
// constant label so that several boots can share one registry.
func NewExporter(namespace string, reg prom.Registerer, bootID string) (*Exporter, error) {
	if namespace == "" {
		namespace = "rcos"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	constLabels := prom.Labels{"boot_id": bootID}

	syscallVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace:   namespace,
		Name:        "syscall_total",
		Help:        "Syscalls dispatched, by task and syscall.",
		ConstLabels: constLabels,
	}, []string{"task", "name", "syscall"})
	switchCounter := prom.NewCounter(prom.CounterOpts{
		Namespace:   namespace,
		Name:        "context_switch_total",
		Help:        "Context switches performed by the scheduler.",
		ConstLabels: constLabels,
	})
	statusVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace:   namespace,
		Name:        "task_status",
		Help:        "Current task status (0 uninit, 1 ready, 2 running, 3 exited).",
		ConstLabels: constLabels,
	}, []string{"task", "name"})
	timeVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace:   namespace,
		Name:        "task_time_milliseconds",
		Help:        "Task time since first scheduled, as of its last status change.",
		ConstLabels: constLabels,
	}, []string{"task", "name"})
	panicCounter := prom.NewCounter(prom.CounterOpts{
		Namespace:   namespace,
		Name:        "kernel_panic_total",
		Help:        "Kernel panics.",
		ConstLabels: constLabels,
	})

	var err error
	if syscallVec, err = registerCollector(reg, syscallVec); err != nil {
		return nil, err
	}
	if switchCounter, err = registerCollector(reg, switchCounter); err != nil {
		return nil, err
	}
	if statusVec, err = registerCollector(reg, statusVec); err != nil {
		return nil, err
	}
	if timeVec, err = registerCollector(reg, timeVec); err != nil {
		return nil, err
	}
	if panicCounter, err = registerCollector(reg, panicCounter); err != nil {
		return nil, err
	}

	return &Exporter{
		syscallTotal: syscallVec,
		switchTotal:  switchCounter,
		taskStatus:   statusVec,
		taskTimeMs:   timeVec,
		panicTotal:   panicCounter,
	}, nil
}

// RecordSyscall counts one dispatched syscall.
func (e *Exporter) RecordSyscall(task kernel.TaskID, name string, syscall uint64) {
	if e == nil {
		return
	}
	e.syscallTotal.WithLabelValues(taskLabel(task), taskName(task, name), proto.SyscallName(syscall)).Inc()
}

// RecordSwitch counts one context switch.
func (e *Exporter) RecordSwitch(from, to kernel.TaskID) {
	if e == nil {
		return
	}
	e.switchTotal.Inc()
}

// RecordStatus records a task's status and time.
func (e *Exporter) RecordStatus(task kernel.TaskID, name string, status kernel.TaskStatus, timeMs uint64) {
	if e == nil {
		return
	}
	id, n := taskLabel(task), taskName(task, name)
	e.taskStatus.WithLabelValues(id, n).Set(float64(status))
	e.taskTimeMs.WithLabelValues(id, n).Set(float64(timeMs))
}

// RecordPanic counts a kernel panic.
func (e *Exporter) RecordPanic() {
	if e == nil {
		return
	}
	e.panicTotal.Inc()
}

func taskLabel(id kernel.TaskID) string {
	return strconv.Itoa(int(id))
}

// taskName labels unnamed tasks by ID so that their series stay distinct
// from each other.
func taskName(id kernel.TaskID, name string) string {
	if name == "" {
		return "task" + taskLabel(id)
	}
	return name
}

// registerCollector registers c, or returns the collector already registered
// under the same descriptor when another exporter for this boot got there
// first.
func registerCollector[T prom.Collector](reg prom.Registerer, c T) (T, error) {
	var dup prom.AlreadyRegisteredError
	switch err := reg.Register(c); {
	case err == nil:
		return c, nil
	case errors.As(err, &dup):
		if existing, ok := dup.ExistingCollector.(T); ok {
			return existing, nil
		}
		return c, fmt.Errorf("metrics: %T already registered with a different type", c)
	default:
		return c, fmt.Errorf("metrics: register %T: %w", c, err)
	}
}
