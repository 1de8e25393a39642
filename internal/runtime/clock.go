package runtime

import "time"

// Clock abstracts time for delayed effects so tests can drive them deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func())
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) {
	if d <= 0 {
		f()
		return
	}
	time.AfterFunc(d, f)
}
