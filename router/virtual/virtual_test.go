package virtual

import (
	"context"
	"testing"

	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/http/status"
	"github.com/indigo-web/strata/service"
	"github.com/stretchr/testify/require"
)

func named(name string) service.Service {
	return service.Func(func(context.Context, *http.Request) (*http.Response, error) {
		return http.String(name), nil
	})
}

func call(t *testing.T, svc service.Service, hosts ...string) *http.Response {
	request := http.NewRequest(0)
	for _, host := range hosts {
		request.Headers.Add("Host", host)
	}

	resp, err := svc.Call(context.Background(), request)
	require.NoError(t, err)
	return resp
}

func answeredBy(resp *http.Response) string {
	return string(resp.Expose().Body)
}

func TestHosts(t *testing.T) {
	t.Run("no hosts", func(t *testing.T) {
		require.Equal(t, status.MisdirectedRequest, call(t, New(), "localhost").Expose().Code)
		require.Equal(t, status.BadRequest, call(t, New()).Expose().Code)
	})

	t.Run("default", func(t *testing.T) {
		for _, h := range []*Hosts{New().Default(named("default")), New().Host("0.0.0.0", named("default"))} {
			require.Equal(t, "default", answeredBy(call(t, h, "localhost")))
			require.Equal(t, "default", answeredBy(call(t, h, "127.0.0.1")))
			require.Equal(t, "default", answeredBy(call(t, h)))
		}
	})

	t.Run("single host", func(t *testing.T) {
		h := New().Host("pavlo.ooo", named("pavlo"))

		require.Equal(t, "pavlo", answeredBy(call(t, h, "pavlo.ooo")))
		require.Equal(t, "pavlo", answeredBy(call(t, h, "WWW.Pavlo.ooo:443")))
		require.Equal(t, status.MisdirectedRequest, call(t, h, "pavlo.ooo:8080").Expose().Code)
		require.Equal(t, status.MisdirectedRequest, call(t, h, "localhost").Expose().Code)
		require.Equal(t, status.BadRequest, call(t, h, "pavlo.ooo", "localhost").Expose().Code)
	})

	t.Run("many hosts", func(t *testing.T) {
		h := New().
			Host("pavlo.ooo", named("pavlo")).
			Host("localhost:8080", named("local")).
			Default(named("default"))

		require.Equal(t, "pavlo", answeredBy(call(t, h, "pavlo.ooo")))
		require.Equal(t, "local", answeredBy(call(t, h, "localhost:8080")))
		require.Equal(t, "default", answeredBy(call(t, h, "localhost")))
		require.Equal(t, service.Available, h.Ready())
	})
}

func TestNormalize(t *testing.T) {
	for _, tc := range []struct {
		Domain, Want string
	}{
		{"foo.example.com", "foo.example.com"},
		{"foo.example.com:80", "foo.example.com"},
		{"foo.example.com:443", "foo.example.com"},
		{"foo.example.com:8080", "foo.example.com:8080"},
		{"www.Foo.Example.com", "foo.example.com"},
		{"[::1]:80", "[::1]"},
		{"[::1]", "[::1]"},
		{"127.0.0.1:80", "127.0.0.1"},
	} {
		require.Equal(t, tc.Want, Normalize(tc.Domain), tc.Domain)
	}

	require.Equal(t, "0.0.0.0", TrimPort("0.0.0.0:9090"))
	require.Equal(t, "[::1]", TrimPort("[::1]"))
}
