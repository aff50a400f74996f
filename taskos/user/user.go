// Package user is the user-side syscall library: it marshals arguments into
// the task's own address space and traps into the kernel.
package user

import (
	"fmt"

	"rcos/taskos/kernel"
	"rcos/taskos/proto"
)

const ioBufBytes = 1024

// Proc is a user program's handle on its task.
type Proc struct {
	ctx *kernel.Context

	timeBuf uintptr
	infoBuf uintptr
	ioBuf   uintptr
}

// New reserves the scratch buffers the wrappers write through.
func New(ctx *kernel.Context) (*Proc, error) {
	if ctx == nil {
		return nil, fmt.Errorf("user: nil context")
	}
	mem := ctx.Memory()
	timeBuf, err := mem.Alloc(proto.TimeValSize, proto.TimeValAlign)
	if err != nil {
		return nil, fmt.Errorf("user: time buffer: %w", err)
	}
	infoBuf, err := mem.Alloc(proto.TaskInfoSize, proto.TaskInfoAlign)
	if err != nil {
		return nil, fmt.Errorf("user: task info buffer: %w", err)
	}
	ioBuf, err := mem.Alloc(ioBufBytes, 1)
	if err != nil {
		return nil, fmt.Errorf("user: io buffer: %w", err)
	}
	return &Proc{ctx: ctx, timeBuf: timeBuf, infoBuf: infoBuf, ioBuf: ioBuf}, nil
}

// Syscall traps with a raw syscall number.
func (p *Proc) Syscall(id uint64, a0, a1, a2 uintptr) int64 {
	return p.ctx.Ecall(id, a0, a1, a2)
}

// Write writes b to fd in chunks through the io buffer. It returns the
// number of bytes written, or the first negative result.
func (p *Proc) Write(fd int, b []byte) int64 {
	var total int64
	for len(b) > 0 {
		n := min(len(b), ioBufBytes)
		buf, err := p.ctx.Memory().UserBuffer(p.ioBuf, n, 1)
		if err != nil {
			return -1
		}
		copy(buf.Bytes(), b[:n])
		ret := p.ctx.Ecall(proto.SysWrite, uintptr(fd), p.ioBuf, uintptr(n))
		if ret < 0 {
			return ret
		}
		total += ret
		b = b[n:]
	}
	return total
}

// Printf formats to stdout.
func (p *Proc) Printf(format string, args ...any) {
	p.Write(1, []byte(fmt.Sprintf(format, args...)))
}

// Println writes s and a newline to stdout.
func (p *Proc) Println(s string) {
	p.Write(1, []byte(s+"\n"))
}

// Exit terminates the task. It never returns.
func (p *Proc) Exit(code int32) {
	p.ctx.Ecall(proto.SysExit, uintptr(code), 0, 0)
}

// Yield gives up the CPU.
func (p *Proc) Yield() int64 {
	return p.ctx.Ecall(proto.SysYield, 0, 0, 0)
}

// TimeVal returns the current time as reported by get_time.
func (p *Proc) TimeVal() (proto.TimeVal, int64) {
	ret := p.ctx.Ecall(proto.SysGetTime, p.timeBuf, 0, 0)
	if ret < 0 {
		return proto.TimeVal{}, ret
	}
	raw, err := p.ctx.Memory().Read(p.timeBuf, proto.TimeValSize)
	if err != nil {
		return proto.TimeVal{}, -1
	}
	tv, _ := proto.DecodeTimeVal(raw)
	return tv, ret
}

// GetTime returns the current time in milliseconds, or -1.
func (p *Proc) GetTime() int64 {
	tv, ret := p.TimeVal()
	if ret < 0 {
		return ret
	}
	return int64(tv.Millis())
}

// TaskInfo returns the task's accounting snapshot.
func (p *Proc) TaskInfo() (proto.TaskInfo, int64) {
	ret := p.ctx.Ecall(proto.SysTaskInfo, p.infoBuf, 0, 0)
	if ret < 0 {
		return proto.TaskInfo{}, ret
	}
	raw, err := p.ctx.Memory().Read(p.infoBuf, proto.TaskInfoSize)
	if err != nil {
		return proto.TaskInfo{}, -1
	}
	ti, _ := proto.DecodeTaskInfo(raw)
	return ti, ret
}

// Sleep yields until at least ms milliseconds have passed.
func (p *Proc) Sleep(ms int64) {
	start, ret := p.TimeVal()
	if ret < 0 {
		return
	}
	for {
		now, ret := p.TimeVal()
		if ret < 0 || int64(now.Micros()-start.Micros()) >= ms*1000 {
			return
		}
		p.Yield()
	}
}
