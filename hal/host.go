package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type hostHAL struct {
	logger  *hostLogger
	clock   Clock
	console *hostConsole
}

// New returns a host HAL implementation logging to stderr and printing to stdout.
func New() HAL {
	return NewWithWriters(os.Stdout, os.Stderr)
}

// NewWithWriters returns a host HAL with explicit console and log sinks.
func NewWithWriters(console, log io.Writer) HAL {
	return &hostHAL{
		logger:  &hostLogger{w: log},
		clock:   newHostClock(),
		console: &hostConsole{w: console},
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Clock() Clock     { return h.clock }
func (h *hostHAL) Console() Console { return h.console }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostConsole struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *hostConsole) Write(p []byte) (int, error) {
	if c.w == nil {
		return 0, ErrNotImplemented
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}
