package strata

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	stdhttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/indigo-web/strata/config"
	"github.com/indigo-web/strata/errors"
	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/middleware"
	"github.com/indigo-web/strata/router"
	"github.com/indigo-web/strata/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func greet(_ context.Context, req *http.Request) (*http.Response, error) {
	return http.String("Hello, " + req.Params.Value("name") + "!"), nil
}

func createUser(_ context.Context, req *http.Request) (*http.Response, error) {
	var user struct {
		Name string `json:"name"`
	}

	if err := req.JSON(&user); err != nil {
		return nil, err
	}

	return http.JSON(map[string]string{"created": user.Name}).Code(201), nil
}

func run(t *testing.T, app *App, svc service.Service) (addr string, stop func()) {
	started := make(chan struct{})
	served := make(chan error, 1)
	app.NotifyOnStart(func() {
		close(started)
	})

	go func() {
		served <- app.Serve(svc)
	}()

	select {
	case <-started:
	case err := <-served:
		require.FailNow(t, "app failed to start", err)
	case <-time.After(time.Second):
		require.FailNow(t, "app did not start in time")
	}

	return app.Addrs()[0].String(), func() {
		app.Stop()
		require.NoError(t, <-served)
	}
}

func TestApp(t *testing.T) {
	cfg := config.Default()
	cfg.NET.AcceptLoopInterruptPeriod = 50 * time.Millisecond
	cfg.Service.Concurrency = 8
	logs := new(bytes.Buffer)

	root := service.NewBuilder().
		Layer(
			middleware.Logging(zerolog.New(zerolog.SyncWriter(logs))),
			middleware.Recover(),
			middleware.ServerHeader(),
			middleware.Timeout(time.Second),
		).
		Service(router.Must(
			router.Get("/hello/:name", service.Func(greet)),
			router.Post("/users", service.Func(createUser)),
		))

	stopped := false
	app := New("127.0.0.1:0").
		Tune(cfg).
		NotifyOnStop(func() {
			stopped = true
		})
	addr, stop := run(t, app, root)

	t.Run("keep-alive over a single connection", func(t *testing.T) {
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		defer conn.Close()
		reader := bufio.NewReader(conn)

		for _, name := range []string{"Alice", "Bob"} {
			_, err = fmt.Fprintf(conn, "GET /hello/%s HTTP/1.1\r\nHost: localhost\r\n\r\n", name)
			require.NoError(t, err)

			resp, err := stdhttp.ReadResponse(reader, nil)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.Equal(t, 200, resp.StatusCode)
			require.Equal(t, "Hello, "+name+"!", string(body))
			require.Equal(t, "strata", resp.Header.Get("Server"))
		}
	})

	t.Run("standard client", func(t *testing.T) {
		resp, err := stdhttp.Post(
			"http://"+addr+"/users", "application/json", strings.NewReader(`{"name":"Alice"}`),
		)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, 201, resp.StatusCode)
		require.JSONEq(t, `{"created":"Alice"}`, string(body))

		resp, err = stdhttp.Get("http://" + addr + "/users")
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, 405, resp.StatusCode)
		require.Equal(t, "POST", resp.Header.Get("Allow"))
	})

	t.Run("malformed request", func(t *testing.T) {
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		defer conn.Close()

		_, err = conn.Write([]byte("GET / HTTP/1.1\nHost: localhost\n\n"))
		require.NoError(t, err)
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))

		data, err := io.ReadAll(conn)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(string(data), "HTTP/1.1 400 Bad Request\r\n"))
	})

	stop()
	require.True(t, stopped)
	require.Contains(t, logs.String(), `"path":"/hello/Alice"`)
}

func TestAppConstruction(t *testing.T) {
	err := New("127.0.0.1:0").Serve(nil)
	require.ErrorIs(t, err, errors.ErrInvalidConfig)

	cfg := config.Default()
	cfg.Headers.MaxSize = 0
	err = New("127.0.0.1:0").Tune(cfg).Serve(service.Func(greet))
	var construction *errors.ConstructionError
	require.ErrorAs(t, err, &construction)
	require.Equal(t, "config", construction.Component)

	err = New("not an address").Serve(service.Func(greet))
	var transportErr *errors.TransportError
	require.ErrorAs(t, err, &transportErr)
}
