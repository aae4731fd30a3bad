package service

import (
	"context"
	"time"
)

type State uint8

const (
	Ready State = iota
	NotReady
	// Errored means the service is permanently unusable.
	Errored
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case NotReady:
		return "not ready"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

type Readiness struct {
	State State
	// Reason is an opaque explanation of why the service isn't ready.
	Reason error
}

var Available = Readiness{State: Ready}

func Unready(reason error) Readiness {
	return Readiness{State: NotReady, Reason: reason}
}

func Broken(reason error) Readiness {
	return Readiness{State: Errored, Reason: reason}
}

func (r Readiness) IsReady() bool {
	return r.State == Ready
}

// Backoff bounds how often readiness is polled.
type Backoff struct {
	Initial, Max time.Duration
}

var DefaultBackoff = Backoff{
	Initial: 500 * time.Microsecond,
	Max:     50 * time.Millisecond,
}

func (b Backoff) next(current time.Duration) time.Duration {
	if current <= 0 {
		return max(b.Initial, time.Microsecond)
	}

	return min(current*2, max(b.Max, b.Initial))
}

// AwaitReady polls the service with exponentially growing pauses until it's ready. It
// fails with an Unavailable error if the service is broken, and with a NotReady one if
// ctx is done first.
func AwaitReady(ctx context.Context, svc Service, backoff Backoff) error {
	var (
		pause time.Duration
		timer *time.Timer
	)

	for {
		readiness := svc.Ready()
		switch readiness.State {
		case Ready:
			if timer != nil {
				timer.Stop()
			}

			return nil
		case Errored:
			if timer != nil {
				timer.Stop()
			}

			return &Error{Kind: KindUnavailable, Err: readiness.Reason}
		}

		pause = backoff.next(pause)
		if timer == nil {
			timer = time.NewTimer(pause)
		} else {
			timer.Reset(pause)
		}

		select {
		case <-ctx.Done():
			timer.Stop()
			reason := readiness.Reason
			if reason == nil {
				reason = ctx.Err()
			}

			return &Error{Kind: KindNotReady, Err: reason}
		case <-timer.C:
		}
	}
}
