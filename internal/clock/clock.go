package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// NowIn returns the current time in the supplied location (UTC when nil).
func NowIn(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return NowFunc().In(loc)
}
