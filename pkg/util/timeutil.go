package util

import "time"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// Clock is satisfied by NowUTC and by fixed clocks in tests.
type Clock func() time.Time

// OrNow returns c, or NowUTC when c is nil.
func (c Clock) OrNow() Clock {
	if c == nil {
		return NowUTC
	}
	return c
}
