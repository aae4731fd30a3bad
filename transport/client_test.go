package transport

import (
	stderrors "errors"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/indigo-web/strata/config"
	"github.com/indigo-web/strata/errors"
	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
	t.Run("read and write", func(t *testing.T) {
		server, peer := net.Pipe()
		defer peer.Close()
		client := NewClient(server, time.Second, make([]byte, 4))

		go func() {
			_, _ = peer.Write([]byte("Hello"))
		}()

		data, err := client.Read()
		require.NoError(t, err)
		require.Equal(t, "Hell", string(data))
		data, err = client.Read()
		require.NoError(t, err)
		require.Equal(t, "o", string(data))

		go func() {
			_, _ = client.Write([]byte("pong"))
		}()

		buff := make([]byte, 4)
		_, err = io.ReadFull(peer, buff)
		require.NoError(t, err)
		require.Equal(t, "pong", string(buff))
	})

	t.Run("peer closes", func(t *testing.T) {
		server, peer := net.Pipe()
		client := NewClient(server, time.Second, make([]byte, 16))
		require.NoError(t, peer.Close())

		_, err := client.Read()
		require.Equal(t, io.EOF, err)
	})

	t.Run("idle timeout", func(t *testing.T) {
		server, peer := net.Pipe()
		defer peer.Close()
		client := NewClient(server, time.Millisecond, make([]byte, 16))

		_, err := client.Read()
		var transportErr *errors.TransportError
		require.ErrorAs(t, err, &transportErr)
		require.Equal(t, "read", transportErr.Op)
		require.True(t, stderrors.Is(err, os.ErrDeadlineExceeded))
	})

	t.Run("write to closed", func(t *testing.T) {
		server, peer := net.Pipe()
		require.NoError(t, peer.Close())
		client := NewClient(server, time.Second, nil)

		_, err := client.Write([]byte("x"))
		var transportErr *errors.TransportError
		require.ErrorAs(t, err, &transportErr)
		require.Equal(t, "write", transportErr.Op)
	})
}

// emptyConn returns empty reads without an error until it runs out of them.
type emptyConn struct {
	net.Conn
	empty int
	data  string
}

func (e *emptyConn) SetReadDeadline(time.Time) error {
	return nil
}

func (e *emptyConn) Read(b []byte) (int, error) {
	if e.empty > 0 {
		e.empty--
		return 0, nil
	}

	return copy(b, e.data), nil
}

func TestClientEmptyReads(t *testing.T) {
	t.Run("skipped", func(t *testing.T) {
		client := NewClient(&emptyConn{empty: 3, data: "hello"}, time.Second, make([]byte, 16))
		data, err := client.Read()
		require.NoError(t, err)
		require.Equal(t, "hello", string(data))
	})

	t.Run("no progress", func(t *testing.T) {
		client := NewClient(&emptyConn{empty: maxEmptyReads + 1}, time.Second, make([]byte, 16))
		data, err := client.Read()
		require.Empty(t, data)
		require.ErrorIs(t, err, io.ErrNoProgress)

		var transportErr *errors.TransportError
		require.ErrorAs(t, err, &transportErr)
		require.Equal(t, "read", transportErr.Op)
	})
}

func TestTCP(t *testing.T) {
	cfg := config.Default().NET
	cfg.AcceptLoopInterruptPeriod = 50 * time.Millisecond

	tcp := NewTCP()
	require.NoError(t, tcp.Bind("127.0.0.1:0"))

	stopped := make(chan error)
	go func() {
		stopped <- tcp.Listen(cfg, func(conn net.Conn) {
			client := NewClient(conn, time.Second, make([]byte, 64))
			for {
				data, err := client.Read()
				if err != nil {
					return
				}

				if _, err = client.Write(data); err != nil {
					return
				}
			}
		})
	}()

	conn, err := net.Dial("tcp", tcp.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("echo"))
	require.NoError(t, err)
	buff := make([]byte, 4)
	_, err = io.ReadFull(conn, buff)
	require.NoError(t, err)
	require.Equal(t, "echo", string(buff))

	tcp.Stop()
	tcp.Wait()
	tcp.Close()

	select {
	case err = <-stopped:
		require.NoError(t, err)
	case <-time.After(time.Second):
		require.Fail(t, "accept loop did not stop")
	}

	// the connection being served is closed by Stop
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = conn.Read(buff)
	require.Error(t, err)
}

func TestBind(t *testing.T) {
	err := NewTCP().Bind("not an address")
	var transportErr *errors.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, "bind", transportErr.Op)
}
