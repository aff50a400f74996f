// Package klog is the leveled kernel log written to a hal.Logger.
package klog

import (
	"fmt"
	"strings"

	"rcos/hal"
)

// Level selects which lines are written.
type Level uint8

const (
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

func (l Level) tag() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return " WARN"
	case LevelInfo:
		return " INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "TRACE"
	}
}

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "trace":
		return LevelTrace, nil
	default:
		return LevelOff, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger formats leveled lines. A nil *Logger discards everything.
type Logger struct {
	out    hal.Logger
	level  Level
	prefix string
}

// New returns a logger writing lines at or below level to out.
func New(out hal.Logger, level Level) *Logger {
	return &Logger{out: out, level: level}
}

// With returns a logger that prepends prefix to every message.
func (l *Logger) With(prefix string) *Logger {
	if l == nil {
		return nil
	}
	cp := *l
	cp.prefix = l.prefix + prefix
	return &cp
}

// Enabled reports whether lines at lv would be written.
func (l *Logger) Enabled(lv Level) bool {
	return l != nil && l.out != nil && lv != LevelOff && lv <= l.level
}

func (l *Logger) logf(lv Level, format string, args ...any) {
	if !l.Enabled(lv) {
		return
	}
	l.out.WriteLineString("[" + lv.tag() + "] " + l.prefix + fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Tracef(format string, args ...any) { l.logf(LevelTrace, format, args...) }
