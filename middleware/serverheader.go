package middleware

import (
	"context"
	"strings"

	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/service"
)

const DefaultServerHeader = "strata"

// ServerHeader sets the Server header on successful responses.
func ServerHeader(customHeaders ...string) service.Layer {
	value := strings.Join(customHeaders, " ")
	if len(value) == 0 {
		value = DefaultServerHeader
	}

	return Wrap(func(ctx context.Context, req *http.Request, next service.Service) (*http.Response, error) {
		resp, err := next.Call(ctx, req)
		if err != nil || resp == nil {
			return resp, err
		}

		return resp.SetHeader("Server", value), nil
	})
}
