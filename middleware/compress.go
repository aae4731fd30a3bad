package middleware

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/http/status"
	"github.com/indigo-web/strata/service"
	"github.com/klauspost/compress/gzip"
)

// DefaultCompressionThreshold is the body size compression starts paying off at.
const DefaultCompressionThreshold = 1024

// Compress gzips response bodies of at least minSize bytes, if the client accepts gzip.
// Streams and responses carrying their own Content-Encoding are left untouched.
func Compress(minSize int) service.Layer {
	writers := sync.Pool{
		New: func() any {
			return gzip.NewWriter(nil)
		},
	}

	return Wrap(func(ctx context.Context, req *http.Request, next service.Service) (*http.Response, error) {
		resp, err := next.Call(ctx, req)
		if err != nil || resp == nil {
			return resp, err
		}

		fields := resp.Expose()
		resp.Header("Vary", "Accept-Encoding")

		switch {
		case fields.Stream != nil, len(fields.Body) < minSize:
			return resp, nil
		case !status.AllowsBody(fields.Code), fields.Headers.Has("Content-Encoding"):
			return resp, nil
		case !acceptsGzip(req.Headers):
			return resp, nil
		}

		var buff bytes.Buffer
		gz := writers.Get().(*gzip.Writer)
		gz.Reset(&buff)
		_, err = gz.Write(fields.Body)
		if err == nil {
			err = gz.Close()
		}
		writers.Put(gz)

		if err != nil {
			return nil, err
		}

		return resp.
			Bytes(buff.Bytes()).
			SetHeader("Content-Encoding", "gzip"), nil
	})
}

func acceptsGzip(headers http.Headers) bool {
	for value := range headers.Values("Accept-Encoding") {
		for _, token := range strings.Split(value, ",") {
			coding, params, _ := strings.Cut(token, ";")
			coding = strings.TrimSpace(coding)
			if !strings.EqualFold(coding, "gzip") && !strings.EqualFold(coding, "x-gzip") && coding != "*" {
				continue
			}

			return qualityOf(params) > 0
		}
	}

	return false
}

// qualityOf returns the weight the coding parameters specify. Malformed weights count as
// rejection.
func qualityOf(params string) float64 {
	for _, param := range strings.Split(params, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(param), "=")
		if !found || !strings.EqualFold(key, "q") {
			continue
		}

		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0
		}

		return q
	}

	return 1
}
