// Package dummy provides in-memory clients for testing connection handling without sockets.
package dummy

import (
	"io"
	"net"

	"github.com/indigo-web/strata/transport"
)

var _ transport.Client = new(Client)

// Client returns the pieces of data it was initialised with one by one, then io.EOF, unless
// set to loop. It also tracks all the written data, making it thereby a universal mock
// suitable for most of the tests.
type Client struct {
	closed     bool
	loop       bool
	journaling bool
	pointer    int
	readErr    error
	written    []byte
	data       [][]byte
	remote     net.Addr
}

func NewMockClient(data ...[]byte) *Client {
	return &Client{
		data:       data,
		journaling: true,
		remote:     &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 54321},
	}
}

func (c *Client) Read() (data []byte, err error) {
	if c.closed {
		return nil, io.EOF
	}

	if c.pointer >= len(c.data) {
		if !c.loop || len(c.data) == 0 {
			if c.readErr != nil {
				return nil, c.readErr
			}

			return nil, io.EOF
		}

		c.pointer = 0
	}

	piece := c.data[c.pointer]
	c.pointer++

	return piece, nil
}

func (c *Client) Write(p []byte) (int, error) {
	if c.closed {
		return 0, io.ErrClosedPipe
	}

	if c.journaling {
		c.written = append(c.written, p...)
	}

	return len(p), nil
}

func (c *Client) Remote() net.Addr {
	return c.remote
}

func (c *Client) Close() error {
	c.closed = true
	return nil
}

// Closed tells whether Close was called.
func (c *Client) Closed() bool {
	return c.closed
}

// LoopReads makes the client start over, once all the data is returned.
func (c *Client) LoopReads() *Client {
	c.loop = true
	return c
}

// FailWith makes reads past the data return the error instead of io.EOF.
func (c *Client) FailWith(err error) *Client {
	c.readErr = err
	return c
}

func (c *Client) Journaling(flag bool) *Client {
	c.journaling = flag
	return c
}

func (c *Client) Written() string {
	if !c.journaling {
		panic("mock client: cannot access written data: journaling is disabled!")
	}

	return string(c.written)
}
