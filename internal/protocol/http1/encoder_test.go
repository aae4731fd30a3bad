package http1

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"
	"testing"

	"github.com/indigo-web/strata/config"
	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/http/method"
	"github.com/indigo-web/strata/http/proto"
	"github.com/indigo-web/strata/http/status"
	"github.com/stretchr/testify/require"
)

func newRequest(m method.Method, protocol proto.Protocol) *http.Request {
	request := http.NewRequest(0)
	request.Method = m
	request.MethodToken = m.String()
	request.SetTarget("/")
	request.Protocol = protocol
	return request
}

func encode(t *testing.T, e *Encoder, req *http.Request, resp *http.Response, closing bool) string {
	var buff bytes.Buffer
	require.NoError(t, e.Response(&buff, req, resp, closing))
	return buff.String()
}

func readResponse(t *testing.T, data string, m string) *stdhttp.Response {
	stdreq, err := stdhttp.NewRequest(m, "/", nil)
	require.NoError(t, err)
	resp, err := stdhttp.ReadResponse(bufio.NewReader(strings.NewReader(data)), stdreq)
	require.NoError(t, err)
	return resp
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestEncoder(t *testing.T) {
	cfg := config.Default()
	get := newRequest(method.GET, proto.HTTP11)

	t.Run("default builder", func(t *testing.T) {
		data := encode(t, NewEncoder(cfg), get, http.NewResponse(), false)
		require.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n", data)
	})

	t.Run("headers and body", func(t *testing.T) {
		response := http.NewResponse().
			Header("Hello", "nether").
			Header("Something", "special", "here").
			String("Hello, world!")

		resp := readResponse(t, encode(t, NewEncoder(cfg), get, response, false), "GET")
		require.Equal(t, 200, resp.StatusCode)
		require.Equal(t, []string{"nether"}, resp.Header["Hello"])
		require.Equal(t, []string{"special", "here"}, resp.Header["Something"])
		require.Equal(t, []string{"13"}, resp.Header["Content-Length"])
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, "Hello, world!", string(body))
	})

	t.Run("custom code and reason", func(t *testing.T) {
		data := encode(t, NewEncoder(cfg), get, http.Code(599).Reason("Whatever"), false)
		require.True(t, strings.HasPrefix(data, "HTTP/1.1 599 Whatever\r\n"), data)
	})

	t.Run("malformed status line", func(t *testing.T) {
		for _, tc := range []struct {
			Name   string
			Code   status.Code
			Reason status.Status
		}{
			{"reason with CRLF", status.OK, "OK\r\nSet-Cookie: session=evil"},
			{"reason with NUL", status.OK, "O\x00K"},
			{"zero code", 0, ""},
			{"four digit code", 1000, ""},
		} {
			t.Run(tc.Name, func(t *testing.T) {
				response := http.String("hello")
				fields := response.Expose()
				fields.Code, fields.Reason = tc.Code, tc.Reason

				data := encode(t, NewEncoder(cfg), get, response, false)
				require.True(t, strings.HasPrefix(data, "HTTP/1.1 500 Internal Server Error\r\n"), data)
				require.NotContains(t, data, "Set-Cookie")
				require.NotContains(t, data, "hello")
			})
		}
	})

	t.Run("default headers", func(t *testing.T) {
		cfg := config.Default()
		cfg.Headers.Default = map[string]string{"Server": "strata", "X-Frame-Options": "DENY"}
		encoder := NewEncoder(cfg)

		resp := readResponse(t, encode(t, encoder, get, http.NewResponse().Header("Server", "custom"), false), "GET")
		require.Equal(t, []string{"custom"}, resp.Header["Server"])
		require.Equal(t, []string{"DENY"}, resp.Header["X-Frame-Options"])

		resp = readResponse(t, encode(t, encoder, get, http.NewResponse(), false), "GET")
		require.Equal(t, []string{"strata"}, resp.Header["Server"])
	})

	t.Run("framing headers are replaced", func(t *testing.T) {
		response := http.NewResponse().
			Header("Content-Length", "100").
			Header("Transfer-Encoding", "gzip").
			String("abc")

		data := encode(t, NewEncoder(cfg), get, response, false)
		require.NotContains(t, data, "100")
		require.NotContains(t, data, "gzip")
		resp := readResponse(t, data, "GET")
		require.EqualValues(t, 3, resp.ContentLength)
	})

	t.Run("HEAD", func(t *testing.T) {
		head := newRequest(method.HEAD, proto.HTTP11)
		data := encode(t, NewEncoder(cfg), head, http.String("Hello, world!"), false)
		require.True(t, strings.HasSuffix(data, "Content-Length: 13\r\n\r\n"), data)
	})

	t.Run("no body statuses", func(t *testing.T) {
		for _, code := range []status.Code{status.NoContent, status.NotModified, status.Continue} {
			data := encode(t, NewEncoder(cfg), get, http.Code(code).String("must not appear"), false)
			require.NotContains(t, data, "must not appear")
			require.NotContains(t, data, "Content-Length")
			require.True(t, strings.HasSuffix(data, "\r\n\r\n"))
		}
	})

	t.Run("sized stream", func(t *testing.T) {
		stream := &closeTracker{Reader: strings.NewReader("Hello, world!")}
		data := encode(t, NewEncoder(cfg), get, http.NewResponse().Stream(stream, 13), false)
		require.True(t, stream.closed)
		resp := readResponse(t, data, "GET")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, "Hello, world!", string(body))
	})

	t.Run("short sized stream", func(t *testing.T) {
		var buff bytes.Buffer
		err := NewEncoder(cfg).Response(&buff, get, http.NewResponse().Stream(strings.NewReader("abc"), 10), false)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("unsized stream", func(t *testing.T) {
		cfg := config.Default()
		cfg.NET.WriteBufferSize = 16
		payload := strings.Repeat("abcdefgh", 200)
		stream := &closeTracker{Reader: strings.NewReader(payload)}
		data := encode(t, NewEncoder(cfg), get, http.NewResponse().Stream(stream, -1), false)
		require.True(t, stream.closed)
		require.Contains(t, data, "Transfer-Encoding: chunked\r\n")
		require.True(t, strings.HasSuffix(data, "0\r\n\r\n"))

		resp := readResponse(t, data, "GET")
		require.Equal(t, []string{"chunked"}, resp.TransferEncoding)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, payload, string(body))
	})

	t.Run("failing stream", func(t *testing.T) {
		var buff bytes.Buffer
		failure := errors.New("disk on fire")
		stream := io.MultiReader(strings.NewReader("abc"), &failingReader{failure})
		err := NewEncoder(cfg).Response(&buff, get, http.NewResponse().Stream(stream, -1), false)
		require.ErrorIs(t, err, failure)
	})

	t.Run("connection close", func(t *testing.T) {
		response := http.NewResponse().Header("Connection", "keep-alive")
		data := encode(t, NewEncoder(cfg), get, response, true)
		require.Equal(t, 1, strings.Count(data, "Connection:"))
		require.Contains(t, data, "Connection: close\r\n")
	})

	t.Run("HTTP/1.0 keep-alive", func(t *testing.T) {
		legacy := newRequest(method.GET, proto.HTTP10)
		data := encode(t, NewEncoder(cfg), legacy, http.NewResponse(), false)
		require.Contains(t, data, "Connection: keep-alive\r\n")
	})

	t.Run("nil request", func(t *testing.T) {
		data := encode(t, NewEncoder(cfg), nil, http.Code(status.BadRequest).String("bad request"), true)
		resp := readResponse(t, data, "GET")
		require.Equal(t, 400, resp.StatusCode)
		require.True(t, resp.Close)
	})

	t.Run("round trip", func(t *testing.T) {
		response := http.Code(status.Accepted).
			Header("X-Request-Id", "42").
			JSON(map[string]int{"answer": 42})

		data := encode(t, NewEncoder(cfg), get, response, false)
		d := NewResponseDecoder(cfg)
		state, n, err := d.Decode([]byte(data))
		require.NoError(t, err)
		require.Equal(t, Completed, state)
		require.Equal(t, len(data), n)

		fields := d.Response().Expose()
		require.Equal(t, status.Accepted, fields.Code)
		require.Equal(t, "42", fields.Headers.Value("x-request-id"))
		require.Equal(t, `{"answer":42}`, string(fields.Body))
	})
}

func TestEncodeRequest(t *testing.T) {
	request := newRequest(method.POST, proto.HTTP11)
	request.SetTarget("/submit?x=1")
	request.Headers.Add("Host", "localhost").Add("Content-Length", "999")
	request.Body = []byte("payload")

	data := EncodeRequest(nil, request)
	require.Equal(t, "POST /submit?x=1 HTTP/1.1\r\nHost: localhost\r\nContent-Length: 7\r\n\r\npayload", string(data))

	d := NewDecoder(config.Default())
	state, n, err := d.Decode(data)
	require.NoError(t, err)
	require.Equal(t, Completed, state)
	require.Equal(t, len(data), n)
	require.Equal(t, "/submit", d.Request().Path)
	require.Equal(t, "payload", string(d.Request().Body))
}

type failingReader struct {
	err error
}

func (f *failingReader) Read([]byte) (int, error) {
	return 0, f.err
}
