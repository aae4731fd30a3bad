// Package transport moves bytes between sockets and connection handlers. It knows nothing
// about HTTP.
package transport

import (
	"net"

	"github.com/indigo-web/strata/config"
)

type Transport interface {
	// Bind allocates the socket. Errors are reported here, so the application may fail
	// before anything is accepted.
	Bind(addr string) error
	// Listen accepts connections until Stop is called or the listener fails, calling cb
	// for each in its own goroutine. The connection is closed after cb returns.
	Listen(cfg config.NET, cb func(conn net.Conn)) error
	Stop()
	Close()
	// Wait blocks until every cb returned.
	Wait()
}
