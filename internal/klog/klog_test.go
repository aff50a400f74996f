package klog

import (
	"reflect"
	"testing"
)

type lines []string

func (l *lines) WriteLineString(s string) { *l = append(*l, s) }
func (l *lines) WriteLineBytes(b []byte)  { *l = append(*l, string(b)) }

func TestLoggerFiltersByLevel(t *testing.T) {
	var out lines
	log := New(&out, LevelInfo)

	log.Errorf("e%d", 1)
	log.Warnf("w")
	log.Infof("i")
	log.Debugf("d")
	log.Tracef("t")

	want := lines{"[ERROR] e1", "[ WARN] w", "[ INFO] i"}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestLoggerWithPrefix(t *testing.T) {
	var out lines
	log := New(&out, LevelTrace).With("kernel: ").With("task 3: ")

	log.Tracef("sys_yield")
	if len(out) != 1 || out[0] != "[TRACE] kernel: task 3: sys_yield" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestNilLoggerDiscards(t *testing.T) {
	var log *Logger
	if log.Enabled(LevelError) {
		t.Fatal("nil logger should not be enabled")
	}
	log.Errorf("dropped")
	if log.With("x") != nil {
		t.Fatal("With on nil logger should stay nil")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"", LevelInfo},
		{"ERROR", LevelError},
		{"warning", LevelWarn},
		{" debug ", LevelDebug},
		{"trace", LevelTrace},
		{"off", LevelOff},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
