package oal

import (
	"time"
	"unsafe"
)

func sleepMs(ms int64) { time.Sleep(time.Duration(ms) * time.Millisecond) }

// alignOffset returns the smallest offset o such that &buf[o] is aligned
// to align bytes, assuming len(buf) has enough slack (align-1 extra bytes).
func alignOffset(buf []byte, align int) int {
	if len(buf) == 0 {
		return 0
	}
	addr := uintptr(unsafe.Pointer(&buf[0]))
	rem := addr % uintptr(align)
	if rem == 0 {
		return 0
	}
	return int(uintptr(align) - rem)
}
