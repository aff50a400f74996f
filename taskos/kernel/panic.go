package kernel

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// PanicInfo contains details about a kernel panic.
type PanicInfo struct {
	TaskID TaskID
	Value  any
	Stack  []byte
}

// PanicError is returned by Kernel.Run when the kernel halted in panic mode.
type PanicError struct {
	Info PanicInfo
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("kernel panic: task=%d panic=%v", e.Info.TaskID, e.Info.Value)
}

// Panic halts the kernel. It records the first panic, invokes the panic
// handler, releases every parked task and terminates the calling goroutine.
// It never returns.
//
// Panic must be called from a task goroutine and never with k.mu held.
func (k *Kernel) Panic(v any) {
	k.panicOnce.Do(func() {
		k.mu.Lock()
		info := PanicInfo{TaskID: k.current, Value: v, Stack: debug.Stack()}
		k.panicInfo = &info
		k.mu.Unlock()

		k.log.Errorf("panic: task=%d panic=%v", info.TaskID, v)
		if k.obs != nil {
			k.obs.RecordPanic()
		}
		if k.panicHandler != nil {
			k.panicHandler(info)
		}
		k.stop()
		close(k.halted)
	})
	runtime.Goexit()
}
