package middleware

import (
	"context"
	"fmt"

	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/service"
)

// Recover converts a panic of the inner call into an internal service error. Whatever
// response was being built is discarded.
func Recover() service.Layer {
	return Wrap(func(ctx context.Context, req *http.Request, next service.Service) (resp *http.Response, err error) {
		defer func() {
			if r := recover(); r != nil {
				resp = nil
				err = &service.Error{Kind: service.KindInternal, Err: fmt.Errorf("panic: %v", r)}
			}
		}()

		return next.Call(ctx, req)
	})
}
