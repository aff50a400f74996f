package kernel

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"rcos/hal"
	"rcos/internal/klog"
	"rcos/taskos/mm"
	"rcos/taskos/proto"
)

const (
	maxTasks = 32

	// DefaultMemBytes is the user address space size of a spawned task.
	DefaultMemBytes = 64 << 10
)

var (
	ErrTooManyTasks   = errors.New("too many tasks")
	ErrNoTasks        = errors.New("no tasks to run")
	ErrAlreadyRunning = errors.New("kernel already running")
	ErrShortBuffer    = errors.New("buffer too small")
)

type TaskID uint8

// Task is a user program. Run executes on its own goroutine, but only while
// the task holds the CPU.
type Task interface {
	Run(*Context)
}

// TaskFunc adapts a function to Task.
type TaskFunc func(*Context)

func (f TaskFunc) Run(c *Context) { f(c) }

// TrapHandler services a syscall raised by the current task.
type TrapHandler func(mem *mm.AddressSpace, id uint64, args [3]uintptr) int64

// Config configures a kernel instance.
type Config struct {
	Clock    hal.Clock
	Log      *klog.Logger
	Observer Observer
	// BootID tags this kernel instance; a random one is generated when nil.
	BootID       uuid.UUID
	PanicHandler func(PanicInfo)
	// MemBytes is the address space size per task (DefaultMemBytes if 0).
	MemBytes int
}

type taskControlBlock struct {
	name     string
	task     Task
	acct     TaskAccounting
	mem      *mm.AddressSpace
	wake     chan struct{}
	started  bool
	startUs  uint64
	exitCode int32
}

// Kernel is the task registry plus a cooperative round-robin scheduler.
//
// Exactly one task holds the CPU at a time. Tasks give it up only through
// SuspendCurrentAndRunNext or ExitCurrentAndRunNext.
type Kernel struct {
	clock        hal.Clock
	log          *klog.Logger
	obs          Observer
	bootID       uuid.UUID
	memBytes     int
	panicHandler func(PanicInfo)
	trap         TrapHandler

	mu        sync.Mutex
	tasks     [maxTasks]taskControlBlock
	taskCount TaskID
	current   TaskID
	running   bool
	stopped   bool
	exited    int
	switches  uint64
	panicInfo *PanicInfo

	done      chan struct{}
	quit      chan struct{}
	halted    chan struct{}
	quitOnce  sync.Once
	panicOnce sync.Once
}

// New creates a kernel instance.
func New(cfg Config) *Kernel {
	if cfg.MemBytes <= 0 {
		cfg.MemBytes = DefaultMemBytes
	}
	if cfg.BootID == uuid.Nil {
		cfg.BootID = uuid.New()
	}
	return &Kernel{
		clock:        cfg.Clock,
		log:          cfg.Log.With("kernel: "),
		obs:          cfg.Observer,
		bootID:       cfg.BootID,
		memBytes:     cfg.MemBytes,
		panicHandler: cfg.PanicHandler,
		done:         make(chan struct{}),
		quit:         make(chan struct{}),
		halted:       make(chan struct{}),
	}
}

// BootID returns the identifier of this kernel instance.
func (k *Kernel) BootID() uuid.UUID { return k.bootID }

// SetTrapHandler installs the syscall entry point used by Context.Ecall.
func (k *Kernel) SetTrapHandler(h TrapHandler) {
	k.mu.Lock()
	k.trap = h
	k.mu.Unlock()
}

// Spawn registers a task with a fresh address space whose read-only image
// holds the task name. Tasks can only be added before Run.
func (k *Kernel) Spawn(name string, t Task) (TaskID, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.running {
		return 0, fmt.Errorf("spawn %q: %w", name, ErrAlreadyRunning)
	}
	if k.taskCount >= maxTasks {
		return 0, fmt.Errorf("spawn %q: %w", name, ErrTooManyTasks)
	}
	mem := mm.New(mm.DefaultBase, k.memBytes)
	if _, err := mem.LoadImage([]byte(name)); err != nil {
		return 0, fmt.Errorf("spawn %q: %w", name, err)
	}
	id := k.taskCount
	k.taskCount++
	tcb := &k.tasks[id]
	*tcb = taskControlBlock{
		name: name,
		task: t,
		mem:  mem,
		wake: make(chan struct{}, 1),
	}
	tcb.acct.SetStatus(proto.StatusReady)
	k.recordStatusLocked(id)
	k.log.Debugf("spawned task %d %q", id, name)
	return id, nil
}

// Run starts the first task and blocks until every task has exited, ctx is
// cancelled, or the kernel panics.
func (k *Kernel) Run(ctx context.Context) error {
	k.mu.Lock()
	if k.running {
		k.mu.Unlock()
		return ErrAlreadyRunning
	}
	if k.taskCount == 0 {
		k.mu.Unlock()
		return ErrNoTasks
	}
	k.running = true
	for id := TaskID(0); id < k.taskCount; id++ {
		go k.taskMain(id)
	}
	k.log.Infof("boot %s: %d tasks", k.bootID, k.taskCount)
	k.switchToLocked(0, k.now())
	k.mu.Unlock()

	select {
	case <-k.done:
		k.stop()
		k.log.Infof("all tasks exited after %d switches", k.Switches())
		return nil
	case <-k.halted:
		k.mu.Lock()
		info := *k.panicInfo
		k.mu.Unlock()
		return &PanicError{Info: info}
	case <-ctx.Done():
		k.stop()
		return ctx.Err()
	}
}

func (k *Kernel) taskMain(id TaskID) {
	tcb := &k.tasks[id]
	k.park(tcb)

	ctx := &Context{k: k, id: id, mem: tcb.mem}
	defer func() {
		if r := recover(); r != nil {
			k.Panic(r)
		}
	}()
	tcb.task.Run(ctx)
	k.ExitCurrentAndRunNext(0)
}

// park blocks the calling task goroutine until it is scheduled again.
// If the kernel stops in the meantime the goroutine terminates.
func (k *Kernel) park(tcb *taskControlBlock) {
	select {
	case <-tcb.wake:
	case <-k.quit:
		runtime.Goexit()
	}
	if k.isStopped() {
		runtime.Goexit()
	}
}

func (k *Kernel) stop() {
	k.quitOnce.Do(func() {
		k.mu.Lock()
		k.stopped = true
		k.mu.Unlock()
		close(k.quit)
	})
}

func (k *Kernel) isStopped() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.stopped
}

func (k *Kernel) now() uint64 {
	if k.clock == nil {
		return 0
	}
	return k.clock.NowMicros()
}

// SuspendCurrentAndRunNext marks the current task ready, hands the CPU to
// the next ready task and returns once the caller is scheduled again.
func (k *Kernel) SuspendCurrentAndRunNext() {
	k.mu.Lock()
	if k.stopped {
		k.mu.Unlock()
		runtime.Goexit()
	}
	cur := k.current
	tcb := &k.tasks[cur]
	now := k.now()
	k.chargeLocked(tcb, now)
	tcb.acct.SetStatus(proto.StatusReady)

	next, _ := k.nextReadyLocked(cur)
	if next == cur {
		tcb.acct.SetStatus(proto.StatusRunning)
		k.mu.Unlock()
		return
	}
	k.recordStatusLocked(cur)
	k.switchToLocked(next, now)
	k.mu.Unlock()

	k.park(tcb)
}

// ExitCurrentAndRunNext marks the current task exited and hands the CPU to
// the next ready task. It terminates the calling goroutine and never returns.
func (k *Kernel) ExitCurrentAndRunNext(code int32) {
	k.mu.Lock()
	cur := k.current
	tcb := &k.tasks[cur]
	now := k.now()
	k.chargeLocked(tcb, now)
	tcb.acct.SetStatus(proto.StatusExited)
	tcb.exitCode = code
	k.exited++
	k.recordStatusLocked(cur)
	k.log.Infof("task %d %q exited with code %d", cur, tcb.name, code)

	if next, ok := k.nextReadyLocked(cur); ok && !k.stopped {
		k.switchToLocked(next, now)
	} else if k.exited == int(k.taskCount) {
		close(k.done)
	}
	k.mu.Unlock()

	runtime.Goexit()
}

// nextReadyLocked scans round-robin starting after cur; cur itself is
// considered last.
func (k *Kernel) nextReadyLocked(cur TaskID) (TaskID, bool) {
	for i := TaskID(1); i <= k.taskCount; i++ {
		id := (cur + i) % k.taskCount
		if k.tasks[id].acct.Status() == proto.StatusReady {
			return id, true
		}
	}
	return 0, false
}

func (k *Kernel) switchToLocked(next TaskID, now uint64) {
	prev := k.current
	tcb := &k.tasks[next]
	if !tcb.started {
		tcb.started = true
		tcb.startUs = now
	}
	tcb.acct.SetStatus(proto.StatusRunning)
	k.current = next
	k.switches++
	k.recordStatusLocked(next)
	if k.obs != nil {
		k.obs.RecordSwitch(prev, next)
	}
	k.log.Tracef("switch %d -> %d", prev, next)
	tcb.wake <- struct{}{}
}

// chargeLocked refreshes the accounting time: milliseconds since the task
// was first scheduled.
func (k *Kernel) chargeLocked(tcb *taskControlBlock, now uint64) {
	if !tcb.started || now < tcb.startUs {
		return
	}
	tcb.acct.SetTime((now - tcb.startUs) / 1000)
}

func (k *Kernel) recordStatusLocked(id TaskID) {
	if k.obs == nil {
		return
	}
	tcb := &k.tasks[id]
	k.obs.RecordStatus(id, tcb.name, tcb.acct.Status(), tcb.acct.Time())
}

// RecordSyscall counts one invocation of syscall id by the current task.
func (k *Kernel) RecordSyscall(id uint64) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	cur := k.current
	tcb := &k.tasks[cur]
	if err := tcb.acct.IncrementSyscall(id); err != nil {
		return fmt.Errorf("task %d: %w", cur, err)
	}
	if k.obs != nil {
		k.obs.RecordSyscall(cur, tcb.name, id)
	}
	return nil
}

// PopulateTaskInfo writes the current task's accounting snapshot into dst.
//
// The snapshot reports the caller as running, includes every syscall counted
// so far (the task_info call itself included) and the milliseconds elapsed
// since the task was first scheduled.
func (k *Kernel) PopulateTaskInfo(dst mm.UserBuffer) error {
	if !dst.Valid() {
		return fmt.Errorf("task info: %w", mm.ErrFault)
	}
	if dst.Len() < proto.TaskInfoSize {
		return fmt.Errorf("task info: %d bytes: %w", dst.Len(), ErrShortBuffer)
	}

	k.mu.Lock()
	tcb := &k.tasks[k.current]
	k.chargeLocked(tcb, k.now())
	info := tcb.acct.Info()
	k.mu.Unlock()

	if !proto.PutTaskInfo(dst.Bytes(), &info) {
		return fmt.Errorf("task info: %w", ErrShortBuffer)
	}
	return nil
}

// Switches returns the number of context switches so far.
func (k *Kernel) Switches() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.switches
}

// TaskSnapshot is a consistent copy of one task's accounting.
type TaskSnapshot struct {
	ID       TaskID
	Name     string
	Status   TaskStatus
	Syscalls [MaxSyscalls]uint32
	TimeMs   uint64
	ExitCode int32
}

// Snapshot returns the accounting of every registered task. It is safe to
// call from any goroutine.
func (k *Kernel) Snapshot() []TaskSnapshot {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	out := make([]TaskSnapshot, 0, k.taskCount)
	for id := TaskID(0); id < k.taskCount; id++ {
		tcb := &k.tasks[id]
		snap := TaskSnapshot{
			ID:       id,
			Name:     tcb.name,
			Status:   tcb.acct.Status(),
			Syscalls: tcb.acct.SyscallCounts(),
			TimeMs:   tcb.acct.Time(),
			ExitCode: tcb.exitCode,
		}
		if snap.Status == proto.StatusRunning && now >= tcb.startUs {
			if live := (now - tcb.startUs) / 1000; live > snap.TimeMs {
				snap.TimeMs = live
			}
		}
		out = append(out, snap)
	}
	return out
}
