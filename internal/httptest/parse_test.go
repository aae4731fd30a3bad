package httptest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("content length", func(t *testing.T) {
		resp, rest, err := Parse("HTTP/1.1 200 OK\r\nContent-Length: 13\r\nServer: strata\r\n\r\nHello, world!extra")
		require.NoError(t, err)
		require.Equal(t, "HTTP/1.1", resp.Proto)
		require.Equal(t, 200, resp.Code)
		require.Equal(t, "OK", resp.Status)
		require.Equal(t, "strata", resp.Headers.Value("server"))
		require.Equal(t, "Hello, world!", resp.Body)
		require.Equal(t, "extra", rest)
	})

	t.Run("chunked", func(t *testing.T) {
		resp, rest, err := Parse(
			"HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n7\r\nHello, \r\n6\r\nworld!\r\n0\r\n\r\n",
		)
		require.NoError(t, err)
		require.Equal(t, "Hello, world!", resp.Body)
		require.Empty(t, rest)
	})

	t.Run("closing connection", func(t *testing.T) {
		resp, rest, err := Parse("HTTP/1.1 200 OK\r\nConnection: close\r\n\r\nHello, world!")
		require.NoError(t, err)
		require.Equal(t, "Hello, world!", resp.Body)
		require.Empty(t, rest)
	})

	t.Run("pipelined", func(t *testing.T) {
		responses, err := ParseAll(
			"HTTP/1.1 204 No Content\r\n\r\n" +
				"HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nfirst" +
				"HTTP/1.1 404 Not Found\r\nContent-Length: 9\r\n\r\nnot found",
		)
		require.NoError(t, err)
		require.Len(t, responses, 3)
		require.Equal(t, 204, responses[0].Code)
		require.Equal(t, "first", responses[1].Body)
		require.Equal(t, "Not Found", responses[2].Status)
		require.Equal(t, "not found", responses[2].Body)
	})

	t.Run("truncated", func(t *testing.T) {
		_, _, err := Parse("HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nshort")
		require.Error(t, err)
		_, _, err = Parse("HTTP/1.1 200 OK\r\nContent-Length: 10\r\n")
		require.Error(t, err)
	})
}
