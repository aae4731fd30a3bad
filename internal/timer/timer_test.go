package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTime(t *testing.T) {
	const (
		threshold = 200 * time.Millisecond
		// the sleeping goroutine may wake up a bit late, so allow half a resolution more
		resolution = Resolution + Resolution/2
	)

	for range time.Second / threshold {
		if time.Since(Now()) > resolution {
			require.Fail(t, "the timer is too slow")
		}

		time.Sleep(threshold)
	}
}

func TestDeadline(t *testing.T) {
	require.True(t, Deadline(0).IsZero())
	require.True(t, Deadline(-time.Second).IsZero())

	deadline := Deadline(time.Minute)
	require.WithinDuration(t, time.Now().Add(time.Minute), deadline, 2*Resolution)
}

func BenchmarkNow(b *testing.B) {
	b.Run("time.Now()", func(b *testing.B) {
		for range b.N {
			_ = time.Now().Add(5 * time.Second)
		}
	})

	b.Run("coarse", func(b *testing.B) {
		for range b.N {
			_ = Now().Add(5 * time.Second)
		}
	})
}
