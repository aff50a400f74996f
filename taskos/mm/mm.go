// Package mm models a task's user address space and hands out validated
// windows into it.
//
// The kernel never dereferences a user address directly: a syscall asks the
// address space for a UserBuffer covering the range it wants to write, and
// only writes through that buffer.
package mm

import (
	"errors"
	"fmt"
)

// DefaultBase is the first user address. Addresses below it (including 0)
// are never mapped.
const DefaultBase uintptr = 0x1_0000

var (
	ErrFault      = errors.New("mm: address not mapped")
	ErrMisaligned = errors.New("mm: misaligned address")
	ErrReadOnly   = errors.New("mm: address not writable")
	ErrNoMemory   = errors.New("mm: out of memory")
)

// AddressSpace is one task's contiguous user memory [base, base+size).
//
// The first roBytes bytes are read-only (the program image); the rest is
// writable and handed out by Alloc.
type AddressSpace struct {
	base    uintptr
	mem     []byte
	roBytes uintptr
	brk     uintptr
}

// New allocates an address space of size bytes starting at base.
func New(base uintptr, size int) *AddressSpace {
	if size < 0 {
		size = 0
	}
	return &AddressSpace{base: base, mem: make([]byte, size)}
}

// Base returns the first mapped address.
func (as *AddressSpace) Base() uintptr { return as.base }

// Size returns the mapped size in bytes.
func (as *AddressSpace) Size() int { return len(as.mem) }

// SetReadOnly marks the first n bytes read-only. Later allocations start
// after the read-only region.
func (as *AddressSpace) SetReadOnly(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(as.mem) {
		n = len(as.mem)
	}
	as.roBytes = uintptr(n)
	if as.brk < as.roBytes {
		as.brk = as.roBytes
	}
}

// ImageAlign is the granularity of the read-only program image.
const ImageAlign = 8

// LoadImage copies img to the start of the address space and marks it
// read-only, rounded up to ImageAlign. It must be called before Alloc and
// returns the image address.
func (as *AddressSpace) LoadImage(img []byte) (uintptr, error) {
	if as.brk != 0 {
		return 0, fmt.Errorf("load image: address space already in use")
	}
	n := (len(img) + ImageAlign - 1) &^ (ImageAlign - 1)
	if n > len(as.mem) {
		return 0, fmt.Errorf("load image of %d bytes: %w", len(img), ErrNoMemory)
	}
	copy(as.mem, img)
	as.SetReadOnly(n)
	return as.base, nil
}

// Alloc reserves size bytes aligned to align (a power of two) and returns
// the user address. Memory is never freed; tasks are short-lived.
func (as *AddressSpace) Alloc(size, align int) (uintptr, error) {
	if size < 0 {
		return 0, fmt.Errorf("alloc %d bytes: %w", size, ErrNoMemory)
	}
	if align <= 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return 0, fmt.Errorf("alloc: alignment %d is not a power of two", align)
	}
	a := uintptr(align)
	addr := (as.base + as.brk + a - 1) &^ (a - 1)
	off := addr - as.base
	if off > uintptr(len(as.mem)) || uintptr(size) > uintptr(len(as.mem))-off {
		return 0, fmt.Errorf("alloc %d bytes: %w", size, ErrNoMemory)
	}
	as.brk = off + uintptr(size)
	return addr, nil
}

func (as *AddressSpace) translate(addr uintptr, size, align int) (uintptr, error) {
	if size < 0 {
		return 0, fmt.Errorf("%#x+%d: %w", addr, size, ErrFault)
	}
	if align > 1 && addr%uintptr(align) != 0 {
		return 0, fmt.Errorf("%#x (align %d): %w", addr, align, ErrMisaligned)
	}
	if addr < as.base {
		return 0, fmt.Errorf("%#x+%d: %w", addr, size, ErrFault)
	}
	off := addr - as.base
	if off > uintptr(len(as.mem)) || uintptr(size) > uintptr(len(as.mem))-off {
		return 0, fmt.Errorf("%#x+%d: %w", addr, size, ErrFault)
	}
	return off, nil
}

// UserBuffer validates that [addr, addr+size) is mapped, writable and
// aligned, and returns a window for writing into it.
func (as *AddressSpace) UserBuffer(addr uintptr, size, align int) (UserBuffer, error) {
	off, err := as.translate(addr, size, align)
	if err != nil {
		return UserBuffer{}, err
	}
	if off < as.roBytes {
		return UserBuffer{}, fmt.Errorf("%#x+%d: %w", addr, size, ErrReadOnly)
	}
	return UserBuffer{addr: addr, b: as.mem[off : off+uintptr(size) : off+uintptr(size)]}, nil
}

// Read copies n bytes starting at addr out of user memory.
func (as *AddressSpace) Read(addr uintptr, n int) ([]byte, error) {
	off, err := as.translate(addr, n, 1)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, as.mem[off:off+uintptr(n)])
	return out, nil
}

// UserBuffer is a validated, writable window into user memory.
//
// It is opaque by construction: only AddressSpace.UserBuffer creates one.
type UserBuffer struct {
	addr uintptr
	b    []byte
}

// Valid reports whether the buffer was produced by a successful validation.
func (u UserBuffer) Valid() bool { return u.b != nil }

// Addr returns the user address of the window.
func (u UserBuffer) Addr() uintptr { return u.addr }

// Len returns the window size in bytes.
func (u UserBuffer) Len() int { return len(u.b) }

// Bytes returns the writable window. Writes land in user memory.
func (u UserBuffer) Bytes() []byte { return u.b }
