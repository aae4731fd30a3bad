package middleware

import (
	"context"
	"time"

	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/service"
	"github.com/rs/zerolog"
)

// Logging logs every call once it completes. Failed calls are logged with the status
// they are going to be answered with, unless some layer recovers them.
func Logging(logger zerolog.Logger) service.Layer {
	return Wrap(func(ctx context.Context, req *http.Request, next service.Service) (*http.Response, error) {
		start := time.Now()
		resp, err := next.Call(ctx, req)
		elapsed := time.Since(start)

		event := logger.Info()
		code := service.KindOf(err).Code()

		switch {
		case err != nil:
			event = logger.Warn().Err(err)
		case resp != nil:
			code = resp.Expose().Code
		}

		event.
			Str("method", req.MethodToken).
			Str("path", req.Path).
			Int("status", int(code)).
			Dur("duration", elapsed).
			Msg("request")

		return resp, err
	})
}
