package middleware

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/service"
	"golang.org/x/sync/semaphore"
)

var errNoPermits = errors.New("concurrency limit reached")

// ConcurrencyLimit admits at most capacity calls at once. The permits are shared by every
// service the returned layer wraps. A permit is returned as soon as the call either
// completes or gets its context cancelled, whichever happens first.
func ConcurrencyLimit(capacity int64) service.Layer {
	permits := &permits{
		sem:      semaphore.NewWeighted(capacity),
		capacity: capacity,
	}

	return func(next service.Service) service.Service {
		return &limit{next: next, permits: permits}
	}
}

type permits struct {
	sem      *semaphore.Weighted
	inflight atomic.Int64
	capacity int64
}

func (p *permits) acquire() (release func(), ok bool) {
	if !p.sem.TryAcquire(1) {
		return nil, false
	}

	p.inflight.Add(1)
	var once sync.Once

	return func() {
		once.Do(func() {
			p.inflight.Add(-1)
			p.sem.Release(1)
		})
	}, true
}

type limit struct {
	next    service.Service
	permits *permits
}

func (l *limit) Ready() service.Readiness {
	if readiness := l.next.Ready(); !readiness.IsReady() {
		return readiness
	}

	if l.permits.inflight.Load() >= l.permits.capacity {
		return service.Unready(errNoPermits)
	}

	return service.Available
}

func (l *limit) Call(ctx context.Context, req *http.Request) (*http.Response, error) {
	release, ok := l.permits.acquire()
	if !ok {
		return nil, service.ErrOverloaded
	}

	stop := context.AfterFunc(ctx, release)
	defer func() {
		stop()
		release()
	}()

	return l.next.Call(ctx, req)
}
