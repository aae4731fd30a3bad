// Package middleware contains the standard layers.
package middleware

import (
	"context"

	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/service"
)

// Interceptor is the body of a layer, which doesn't affect readiness.
type Interceptor func(ctx context.Context, req *http.Request, next service.Service) (*http.Response, error)

// Wrap makes a layer out of an interceptor. Readiness of the wrapped service is passed
// through untouched.
func Wrap(interceptor Interceptor) service.Layer {
	return func(next service.Service) service.Service {
		return &passthrough{next: next, intercept: interceptor}
	}
}

type passthrough struct {
	next      service.Service
	intercept Interceptor
}

func (p *passthrough) Ready() service.Readiness {
	return p.next.Ready()
}

func (p *passthrough) Call(ctx context.Context, req *http.Request) (*http.Response, error) {
	return p.intercept(ctx, req, p.next)
}
