package kernel

// Observer receives accounting events. Methods are called with the task
// table locked and must not call back into the kernel.
type Observer interface {
	RecordSyscall(task TaskID, name string, syscall uint64)
	RecordSwitch(from, to TaskID)
	RecordStatus(task TaskID, name string, status TaskStatus, timeMs uint64)
	RecordPanic()
}
