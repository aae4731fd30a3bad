package middleware

import (
	"context"

	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/service"
)

// ErrorMapper turns errors of the inner service into responses, so layers placed above
// it see a response instead. See service.Respond for the mapping.
func ErrorMapper() service.Layer {
	return Wrap(func(ctx context.Context, req *http.Request, next service.Service) (*http.Response, error) {
		resp, err := next.Call(ctx, req)
		if err != nil {
			return service.Respond(err), nil
		}

		return resp, nil
	})
}
