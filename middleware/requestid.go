package middleware

import (
	"context"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/service"
)

const DefaultRequestIDHeader = "X-Request-Id"

// RequestID makes sure every request carries an identifier in the header, generating a
// random one if the client didn't send it. The identifier is echoed in the response.
func RequestID(header string) service.Layer {
	if len(header) == 0 {
		header = DefaultRequestIDHeader
	}

	return Wrap(func(ctx context.Context, req *http.Request, next service.Service) (*http.Response, error) {
		id, found := req.Headers.Get(header)
		if !found || len(id) == 0 {
			id = uniuri.New()
			req.Headers.Set(header, id)
		}

		resp, err := next.Call(ctx, req)
		if err != nil || resp == nil {
			return resp, err
		}

		if !resp.Expose().Headers.Has(header) {
			// the identifier may come from the client, so it isn't trusted to be a valid value
			_ = resp.TryHeader(header, id)
		}

		return resp, nil
	})
}
