package transport

import (
	stderrors "errors"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/indigo-web/strata/config"
	"github.com/indigo-web/strata/errors"
	"github.com/indigo-web/strata/internal/timer"
)

type listener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

type TCP struct {
	l     listener
	wg    *sync.WaitGroup
	stop  *atomic.Bool
	mu    *sync.Mutex
	conns map[net.Conn]struct{}
}

func NewTCP() *TCP {
	tcp := newTCP(nil)
	return &tcp
}

func newTCP(l listener) TCP {
	return TCP{
		l:     l,
		wg:    new(sync.WaitGroup),
		stop:  new(atomic.Bool),
		mu:    new(sync.Mutex),
		conns: make(map[net.Conn]struct{}),
	}
}

func (t *TCP) Bind(addr string) error {
	tcpaddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return errors.NewTransportError("bind", err)
	}

	l, err := net.ListenTCP("tcp", tcpaddr)
	if err != nil {
		return errors.NewTransportError("bind", err)
	}

	t.l = l
	return nil
}

// Addr returns the address the socket is bound to. It's mainly useful when binding to the
// port 0.
func (t *TCP) Addr() net.Addr {
	if t.l == nil {
		return nil
	}

	return t.l.Addr()
}

func (t *TCP) Listen(cfg config.NET, cb func(conn net.Conn)) error {
	for !t.stop.Load() {
		err := t.l.SetDeadline(timer.Now().Add(cfg.AcceptLoopInterruptPeriod))
		if err != nil {
			return errors.NewTransportError("accept", err)
		}

		conn, err := t.l.Accept()
		if err != nil {
			if stderrors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}

			if t.stop.Load() {
				return nil
			}

			return errors.NewTransportError("accept", err)
		}

		if !t.track(conn) {
			_ = conn.Close()
			return nil
		}

		t.wg.Add(1)
		go func(conn net.Conn) {
			defer t.wg.Done()
			cb(conn)
			t.untrack(conn)
			_ = conn.Close()
		}(conn)
	}

	return nil
}

// Stop breaks the accept loop and closes every connection being served. Handlers in
// progress run to completion, however their responses are most likely lost.
func (t *TCP) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stop.Store(true)
	for conn := range t.conns {
		_ = conn.Close()
	}
}

func (t *TCP) track(conn net.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop.Load() {
		return false
	}

	t.conns[conn] = struct{}{}
	return true
}

func (t *TCP) untrack(conn net.Conn) {
	t.mu.Lock()
	delete(t.conns, conn)
	t.mu.Unlock()
}

func (t *TCP) Close() {
	if t.l != nil {
		_ = t.l.Close()
	}
}

func (t *TCP) Wait() {
	t.wg.Wait()
}
