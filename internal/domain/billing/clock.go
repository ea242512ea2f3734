package billing

import "time"

// Clock abstracts wall-clock time so cycle and expiry logic can be tested
// deterministically. Engines receive a Clock instead of calling time.Now.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the OS clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
