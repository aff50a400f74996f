package proto

import "encoding/binary"

const (
	// TimeValSize is the size of a TimeVal in user memory.
	TimeValSize = 16
	// TimeValAlign is the required alignment of a TimeVal buffer.
	TimeValAlign = 8
)

// TimeVal is wall-clock time split into seconds and microseconds.
type TimeVal struct {
	Sec  uint64
	Usec uint64
}

// TimeValFromMicros decomposes a microsecond count. Usec is always < 1e6.
func TimeValFromMicros(us uint64) TimeVal {
	return TimeVal{Sec: us / 1_000_000, Usec: us % 1_000_000}
}

// Micros returns the total microseconds.
func (tv TimeVal) Micros() uint64 { return tv.Sec*1_000_000 + tv.Usec }

// Millis returns the total milliseconds, truncated.
func (tv TimeVal) Millis() uint64 { return tv.Sec*1_000 + tv.Usec/1_000 }

// PutTimeVal encodes tv into dst.
//
// Layout (little-endian):
//   - u64: sec
//   - u64: usec
func PutTimeVal(dst []byte, tv TimeVal) bool {
	if len(dst) < TimeValSize {
		return false
	}
	binary.LittleEndian.PutUint64(dst[0:8], tv.Sec)
	binary.LittleEndian.PutUint64(dst[8:16], tv.Usec)
	return true
}

// DecodeTimeVal decodes a TimeVal written by PutTimeVal.
func DecodeTimeVal(b []byte) (TimeVal, bool) {
	if len(b) < TimeValSize {
		return TimeVal{}, false
	}
	return TimeVal{
		Sec:  binary.LittleEndian.Uint64(b[0:8]),
		Usec: binary.LittleEndian.Uint64(b[8:16]),
	}, true
}
