package engine

import (
	_ "unsafe" // required for go:linkname
)

//go:linkname runtimeNanotime runtime.nanotime
func runtimeNanotime() int64

// Clock returns monotonic nanoseconds since an unspecified start
// point. Engines take a Clock so tests can drive time explicitly.
type Clock func() int64

// Nanotime is the production Clock. It reads the runtime's monotonic
// counter directly, skipping the wall-clock half of time.Now: the
// handlers run on every traced event and only ever need differences.
func Nanotime() int64 {
	return runtimeNanotime()
}
