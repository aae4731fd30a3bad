// Package strata is an HTTP/1.1 server, which serves requests by a single service composed
// out of layers, routers and handlers.
package strata

import (
	"context"
	"net"
	"sync"

	"github.com/indigo-web/strata/config"
	"github.com/indigo-web/strata/errors"
	"github.com/indigo-web/strata/internal/server"
	"github.com/indigo-web/strata/middleware"
	"github.com/indigo-web/strata/service"
	"github.com/indigo-web/strata/transport"
	"github.com/rs/zerolog"
)

// App binds the listeners and runs a connection per accepted socket.
type App struct {
	addrs      []string
	cfg        *config.Config
	logger     zerolog.Logger
	hooks      hooks
	supervisor transport.Supervisor
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.Mutex
	bound      []*transport.TCP
}

// New returns a new App instance listening on the address.
func New(addr string) *App {
	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		addrs:      []string{addr},
		cfg:        config.Default(),
		logger:     zerolog.Nop(),
		supervisor: transport.NewSupervisor(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Bind adds one more address to listen on.
func (a *App) Bind(addr string) *App {
	a.addrs = append(a.addrs, addr)
	return a
}

// Tune replaces default config. It's validated by Serve.
func (a *App) Tune(cfg *config.Config) *App {
	a.cfg = cfg
	return a
}

// Logger sets the logger connection events go to. Nothing is logged by default.
func (a *App) Logger(logger zerolog.Logger) *App {
	a.logger = logger
	return a
}

// NotifyOnStart calls the callback at the moment, when all the listeners are bound. However,
// it isn't strongly guaranteed that they'll be able to accept new connections immediately
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback at the moment, when all the listeners are down. It's
// guaranteed that at the moment as the callback is called, the server isn't able to accept
// any new connections and all the clients are already disconnected
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Serve runs the application till Stop is called or a listener fails. The service is
// shared by all connections, so it must be safe for concurrent use. If Service.Concurrency
// is set, the service is wrapped into a concurrency limit of that capacity.
func (a *App) Serve(svc service.Service) error {
	if svc == nil {
		return errors.NewConstructionError("app", errors.ErrInvalidConfig, "no service to serve")
	}

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	if a.cfg.Service.Concurrency > 0 {
		svc = middleware.ConcurrencyLimit(a.cfg.Service.Concurrency)(svc)
	}

	for _, addr := range a.addrs {
		tcp := transport.NewTCP()
		if err := a.supervisor.Add(addr, tcp, a.spawn(svc)); err != nil {
			return err
		}

		a.mu.Lock()
		a.bound = append(a.bound, tcp)
		a.mu.Unlock()

		a.logger.Info().Stringer("addr", tcp.Addr()).Msg("listening")
	}

	callIfNotNil(a.hooks.OnStart)
	err := a.supervisor.Run(a.cfg.NET)
	a.cancel()
	if err != nil {
		a.logger.Error().Err(err).Msg("listener failed")
	}

	callIfNotNil(a.hooks.OnStop)

	return err
}

// Addrs returns the addresses the listeners are actually bound to. Useful when binding
// to the port 0.
func (a *App) Addrs() []net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()

	addrs := make([]net.Addr, len(a.bound))
	for i, tcp := range a.bound {
		addrs[i] = tcp.Addr()
	}

	return addrs
}

// Stop cancels the calls in progress, closes all the connections and listeners and waits
// until Serve is done. It must be called only after Serve was started.
func (a *App) Stop() {
	a.cancel()
	a.supervisor.Stop()
}

func (a *App) spawn(svc service.Service) func(net.Conn) {
	return func(conn net.Conn) {
		client := transport.NewClient(conn, a.cfg.NET.ReadTimeout, make([]byte, a.cfg.NET.ReadBufferSize))
		server.NewConn(a.cfg, client, svc, a.logger).Serve(a.ctx)
	}
}

type hooks struct {
	OnStart, OnStop func()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}
