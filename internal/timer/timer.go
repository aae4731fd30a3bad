// Package timer provides a coarse clock for I/O deadlines. Setting a deadline on every read
// is frequent enough for time.Now to show up in profiles, while the deadlines themselves
// tolerate an error of a Resolution.
package timer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Resolution is the period the clock is refreshed with.
const Resolution = 500 * time.Millisecond

var (
	millis = new(atomic.Int64)
	start  sync.Once
)

func run() {
	millis.Store(time.Now().UnixMilli())

	go func() {
		for {
			time.Sleep(Resolution)
			millis.Store(time.Now().UnixMilli())
		}
	}()
}

// Now returns the current time, lagging at most a Resolution behind. The clock is started
// on the first call.
func Now() time.Time {
	start.Do(run)
	ms := millis.Load()

	return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond))
}

// Deadline returns the moment the timeout expires at. A non-positive timeout means no
// deadline, represented by the zero time.
func Deadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}

	return Now().Add(timeout)
}
