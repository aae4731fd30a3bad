package middleware

import (
	"context"
	"strings"

	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/http/method"
	"github.com/indigo-web/strata/http/status"
	"github.com/indigo-web/strata/service"
)

type CORSOptions struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
	// MaxAge is the value of Access-Control-Max-Age for preflight responses. Empty omits it.
	MaxAge string
}

func DefaultCORSOptions() CORSOptions {
	return CORSOptions{
		AllowOrigin:  "*",
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}
}

// CORS adds the Access-Control-Allow-* headers to every successful response. Preflight
// requests, which are OPTIONS requests carrying Access-Control-Request-Method, are
// answered with 204 without reaching the inner service.
func CORS(opts CORSOptions) service.Layer {
	methods := strings.Join(opts.AllowMethods, ", ")
	headers := strings.Join(opts.AllowHeaders, ", ")

	decorate := func(resp *http.Response) *http.Response {
		resp.SetHeader("Access-Control-Allow-Origin", opts.AllowOrigin)
		if len(methods) > 0 {
			resp.SetHeader("Access-Control-Allow-Methods", methods)
		}

		if len(headers) > 0 {
			resp.SetHeader("Access-Control-Allow-Headers", headers)
		}

		return resp
	}

	return Wrap(func(ctx context.Context, req *http.Request, next service.Service) (*http.Response, error) {
		if req.Method == method.OPTIONS && req.Headers.Has("Access-Control-Request-Method") {
			resp := decorate(http.Code(status.NoContent))
			if len(opts.MaxAge) > 0 {
				resp.SetHeader("Access-Control-Max-Age", opts.MaxAge)
			}

			return resp, nil
		}

		resp, err := next.Call(ctx, req)
		if err != nil || resp == nil {
			return resp, err
		}

		return decorate(resp), nil
	})
}
