package transport

import (
	"io"
	"net"
	"time"

	"github.com/indigo-web/strata/errors"
	"github.com/indigo-web/strata/internal/timer"
)

// Client is a connection as seen by the protocol layer.
type Client interface {
	// Read returns the next non-empty portion of data. The returned slice is valid until
	// the next call only. A peer closing the connection results in io.EOF, every other
	// failure, including idle timeout, in *errors.TransportError.
	Read() ([]byte, error)
	Write([]byte) (int, error)
	Remote() net.Addr
	Close() error
}

// maxEmptyReads is how many reads in a row may return no data and no error before
// the connection is considered broken.
const maxEmptyReads = 100

type client struct {
	conn    net.Conn
	buff    []byte
	timeout time.Duration
}

// NewClient wraps the connection. Every read must complete within the timeout, otherwise
// it fails. Non-positive timeout disables it.
func NewClient(conn net.Conn, timeout time.Duration, buff []byte) Client {
	return &client{
		conn:    conn,
		buff:    buff,
		timeout: timeout,
	}
}

func (c *client) Read() ([]byte, error) {
	if err := c.conn.SetReadDeadline(timer.Deadline(c.timeout)); err != nil {
		return nil, errors.NewTransportError("read", err)
	}

	for range maxEmptyReads {
		n, err := c.conn.Read(c.buff)
		if n > 0 {
			// the error, if any, is going to repeat on the next read.
			return c.buff[:n], nil
		}

		switch err {
		case nil:
			continue
		case io.EOF:
			return nil, io.EOF
		default:
			return nil, errors.NewTransportError("read", err)
		}
	}

	return nil, errors.NewTransportError("read", io.ErrNoProgress)
}

func (c *client) Write(b []byte) (int, error) {
	n, err := c.conn.Write(b)
	if err != nil {
		return n, errors.NewTransportError("write", err)
	}

	return n, nil
}

func (c *client) Remote() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *client) Close() error {
	return c.conn.Close()
}
