package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/service"
)

// Timeout fails the call with service.ErrTimeout if the inner service didn't produce a
// result in d. The inner call is cancelled through its context and may still be running
// when Timeout returns, so everything it acquired must be released on cancellation.
func Timeout(d time.Duration) service.Layer {
	return Wrap(func(ctx context.Context, req *http.Request, next service.Service) (*http.Response, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		done := make(chan result, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- result{panicked: true, panicValue: r}
				}
			}()

			resp, err := next.Call(ctx, req)
			done <- result{resp: resp, err: err}
		}()

		select {
		case res := <-done:
			if res.panicked {
				// re-raise in the caller's goroutine, so the Recover layer can catch it
				panic(res.panicValue)
			}

			return res.resp, res.err
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, &service.Error{Kind: service.KindTimeout, Err: ctx.Err()}
			}

			return nil, ctx.Err()
		}
	})
}

type result struct {
	resp       *http.Response
	err        error
	panicked   bool
	panicValue any
}
