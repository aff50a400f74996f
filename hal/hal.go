package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// Clock exposes a monotonic microsecond counter.
//
// The epoch is platform-defined; only differences are meaningful.
type Clock interface {
	NowMicros() uint64
}

// Console is the byte sink behind the write syscall.
type Console interface {
	Write(p []byte) (int, error)
}

var ErrNotImplemented = errors.New("not implemented")

// HAL provides the only contact point between the kernel and the outside world.
type HAL interface {
	Logger() Logger
	Clock() Clock
	Console() Console
}
