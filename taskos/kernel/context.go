package kernel

import "rcos/taskos/mm"

// Context provides task-local access to kernel operations.
type Context struct {
	k   *Kernel
	id  TaskID
	mem *mm.AddressSpace
}

// TaskID returns the current task ID.
func (c *Context) TaskID() TaskID { return c.id }

// Memory returns the task's user address space.
func (c *Context) Memory() *mm.AddressSpace { return c.mem }

// Ecall traps into the kernel with syscall id and up to three arguments.
// It returns -1 when no trap handler is installed.
func (c *Context) Ecall(id uint64, a0, a1, a2 uintptr) int64 {
	c.k.mu.Lock()
	trap := c.k.trap
	c.k.mu.Unlock()
	if trap == nil {
		return -1
	}
	return trap(c.mem, id, [3]uintptr{a0, a1, a2})
}
