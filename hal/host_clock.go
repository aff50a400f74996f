//go:build unix

package hal

import (
	"time"

	"golang.org/x/sys/unix"
)

// hostClock reads CLOCK_MONOTONIC, the same counter the kernel timer would
// expose on real hardware.
type hostClock struct {
	fallback time.Time
}

func newHostClock() *hostClock {
	return &hostClock{fallback: time.Now()}
}

func (c *hostClock) NowMicros() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return uint64(time.Since(c.fallback) / time.Microsecond)
	}
	return uint64(ts.Sec)*1_000_000 + uint64(ts.Nsec)/1_000
}
