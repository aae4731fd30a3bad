package http1

import (
	"strconv"
	"strings"
	"testing"

	"github.com/indigo-web/strata/config"
	"github.com/indigo-web/strata/http"
)

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

func generateRequest(path string, headers int) []byte {
	var b strings.Builder
	b.WriteString("GET " + path + " HTTP/1.1\r\n")
	for i := range headers {
		b.WriteString("X-Header-" + strconv.Itoa(i) + ": some reasonably long header value\r\n")
	}
	b.WriteString("\r\n")

	return []byte(b.String())
}

func BenchmarkDecoder(b *testing.B) {
	cfg := config.Default()

	for _, tc := range []struct {
		Name string
		Data []byte
	}{
		{"simple get", []byte("GET / HTTP/1.1\r\nAccept-Encoding: identity\r\n\r\n")},
		{"5 headers", generateRequest("/"+strings.Repeat("a", 500), 5)},
		{"50 headers", generateRequest("/", 50)},
		{"chunked", []byte("POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\nd\r\nHello, world!\r\n0\r\n\r\n")},
	} {
		b.Run(tc.Name, func(b *testing.B) {
			decoder := NewDecoder(cfg)
			b.SetBytes(int64(len(tc.Data)))
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if state, _, err := decoder.Decode(tc.Data); state != Completed {
					b.Fatal(state, err)
				}
			}
		})
	}
}

func BenchmarkEncoder(b *testing.B) {
	defaultHeadersSmall := map[string]string{
		"Server": "strata",
	}
	defaultHeadersBig := map[string]string{
		"Server":           "strata",
		"Accept-Encodings": "identity",
		"Easter":           "Egg",
		"Many":             "choices, variants, ways, solutions",
		"Something":        "is not happening",
		"Talking":          "allowed",
		"Lorem":            "ipsum, doremi",
	}

	request := http.NewRequest(0)

	for _, tc := range []struct {
		Name     string
		Defaults map[string]string
		Response *http.Response
	}{
		{"no body no def headers", nil, http.NewResponse()},
		{"with 4kb body", nil, http.String(strings.Repeat("a", 4096))},
		{"1 default header", defaultHeadersSmall, http.NewResponse()},
		{"7 default headers", defaultHeadersBig, http.NewResponse()},
	} {
		b.Run(tc.Name, func(b *testing.B) {
			cfg := config.Default()
			cfg.Headers.Default = tc.Defaults
			encoder := NewEncoder(cfg)
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_ = encoder.Response(nopWriter{}, request, tc.Response, false)
			}
		})
	}
}
