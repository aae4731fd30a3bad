// Package server drives a single connection: it decodes requests out of the socket, passes
// them to the service and writes responses back, strictly in the order requests arrived.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/indigo-web/strata/config"
	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/http/proto"
	"github.com/indigo-web/strata/http/status"
	"github.com/indigo-web/strata/internal/protocol/http1"
	"github.com/indigo-web/strata/service"
	"github.com/indigo-web/strata/transport"
	"github.com/rs/zerolog"
)

var (
	errNilResponse = stderrors.New("service returned neither a response nor an error")
	continueLine   = []byte("HTTP/1.1 100 Continue\r\n\r\n")
)

// Conn is the state machine of a single connection. It isn't safe for concurrent use, as
// a connection is served by exactly one goroutine.
type Conn struct {
	cfg     *config.Config
	client  transport.Client
	svc     service.Service
	logger  zerolog.Logger
	backoff service.Backoff
	decoder *http1.Decoder
	encoder *http1.Encoder
	state   State
	// buf holds received but not yet consumed data. A message always starts at its
	// beginning, so bytes of pipelined requests stay in it until their turn.
	buf       []byte
	req       *http.Request
	resp      *http.Response
	closing   bool
	continued bool
}

func NewConn(cfg *config.Config, client transport.Client, svc service.Service, logger zerolog.Logger) *Conn {
	return &Conn{
		cfg:     cfg,
		client:  client,
		svc:     svc,
		logger:  logger,
		backoff: service.DefaultBackoff,
		decoder: http1.NewDecoder(cfg),
		encoder: http1.NewEncoder(cfg),
		state:   AwaitingRequest,
		buf:     make([]byte, 0, cfg.NET.ReadBufferSize),
	}
}

// State returns the current state of the connection.
func (c *Conn) State() State {
	return c.state
}

// Serve runs the connection till it's closed. Cancelling ctx cancels the call in progress.
func (c *Conn) Serve(ctx context.Context) {
	defer func() {
		_ = c.client.Close()
	}()

	for c.state != Closing {
		switch c.state {
		case AwaitingRequest:
			c.awaitRequest()
		case ParsingBody:
			c.parseBody()
		case Dispatching:
			c.dispatch(ctx)
		case WritingResponse:
			c.writeResponse()
		}
	}
}

func (c *Conn) transit(next State) {
	if !allowed(c.state, next) {
		panic(fmt.Sprintf("BUG: connection: illegal transition %s -> %s", c.state, next))
	}

	c.state = next
}

func (c *Conn) awaitRequest() {
	for {
		if len(c.buf) > 0 {
			state, err := c.decoder.DecodeHead(c.buf)
			switch state {
			case http1.Completed:
				c.continued = false
				c.transit(ParsingBody)
				return
			case http1.Error:
				c.reject(err)
				return
			}
		}

		if !c.read() {
			return
		}
	}
}

func (c *Conn) parseBody() {
	for {
		state, n, err := c.decoder.DecodeBody(c.buf)
		switch state {
		case http1.Completed:
			c.req = c.decoder.Request()
			c.req.Remote = c.client.Remote()
			// everything the request refers to is already copied out
			c.buf = c.buf[:copy(c.buf, c.buf[n:])]
			c.transit(Dispatching)
			return
		case http1.Error:
			c.reject(err)
			return
		}

		if !c.continued {
			c.continued = true
			if expectsContinue(c.decoder.Request()) {
				if _, err = c.client.Write(continueLine); err != nil {
					c.event(c.logger.Debug()).Err(err).Msg("cannot write interim response")
					c.transit(Closing)
					return
				}
			}
		}

		if !c.read() {
			return
		}
	}
}

func (c *Conn) dispatch(ctx context.Context) {
	c.resp = c.call(ctx)
	c.closing = !c.req.KeepAlive() || http.HasToken(c.resp.Expose().Headers, "Connection", "close")
	c.transit(WritingResponse)
}

func (c *Conn) call(ctx context.Context) *http.Response {
	readyCtx, cancel := context.WithTimeout(ctx, c.cfg.Service.ReadyTimeout)
	err := service.AwaitReady(readyCtx, c.svc, c.backoff)
	cancel()
	if err != nil {
		c.event(c.logger.Warn()).Err(err).Msg("service is not ready")
		return service.Respond(err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Service.RequestTimeout)
	defer cancel()

	resp, err := c.invoke(callCtx)
	if err != nil && stderrors.Is(callCtx.Err(), context.DeadlineExceeded) && service.KindOf(err) == service.KindInternal {
		err = &service.Error{Kind: service.KindTimeout, Err: err}
	}

	switch {
	case err != nil:
		c.event(c.logger.Error()).Err(err).Stringer("kind", service.KindOf(err)).Msg("service call failed")
		return service.Respond(err)
	case resp == nil:
		c.event(c.logger.Error()).Err(errNilResponse).Msg("service call failed")
		return service.Respond(errNilResponse)
	default:
		return resp
	}
}

func (c *Conn) invoke(ctx context.Context) (resp *http.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = &service.Error{Kind: service.KindInternal, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	return c.svc.Call(ctx, c.req)
}

func (c *Conn) writeResponse() {
	err := c.encoder.Response(c.client, c.req, c.resp, c.closing)
	c.req, c.resp = nil, nil

	if err != nil {
		c.event(c.logger.Debug()).Err(err).Msg("cannot write response")
		c.transit(Closing)
		return
	}

	if c.closing {
		c.transit(Closing)
		return
	}

	c.transit(AwaitingRequest)
}

// read appends the next portion of data to the buffer. On failure, the connection is
// either closed right away or answered with 408, if a request was being received.
func (c *Conn) read() bool {
	data, err := c.client.Read()
	if err == nil {
		c.buf = append(c.buf, data...)
		return true
	}

	switch {
	case err == io.EOF:
		c.event(c.logger.Debug()).Msg("connection closed by peer")
		c.transit(Closing)
	case stderrors.Is(err, os.ErrDeadlineExceeded):
		if !c.receiving() {
			c.event(c.logger.Debug()).Msg("idle timeout")
			c.transit(Closing)
			break
		}

		c.event(c.logger.Debug()).Str("reason", "timeout").Msg("request was not received in time")
		c.answer(http.Error(status.ErrRequestTimeout))
	default:
		c.event(c.logger.Warn()).Err(err).Msg("transport failure")
		c.transit(Closing)
	}

	return false
}

// receiving tells whether any part of a request was received already. Empty lines
// preceding a request don't count.
func (c *Conn) receiving() bool {
	if c.state == ParsingBody {
		return true
	}

	for _, char := range c.buf {
		if char != '\r' && char != '\n' {
			return true
		}
	}

	return false
}

// reject answers a request which couldn't be decoded. The connection is closed afterwards
// in any case, as its framing isn't trustworthy anymore.
func (c *Conn) reject(err error) {
	var perr *http1.ParseError
	if !stderrors.As(err, &perr) {
		c.event(c.logger.Error()).Err(err).Msg("unexpected decoder failure")
		c.answer(http.Error(status.ErrBadRequest))
		return
	}

	c.event(c.logger.Debug()).Str("reason", perr.Reason.String()).Err(err).Msg("malformed request")
	c.answer(http.Error(perr, perr.Code()))
}

func (c *Conn) answer(resp *http.Response) {
	c.req = nil
	c.resp = resp
	c.closing = true
	c.transit(WritingResponse)
}

func (c *Conn) event(e *zerolog.Event) *zerolog.Event {
	return e.Stringer("remote", c.client.Remote()).Stringer("state", c.state)
}

func expectsContinue(req *http.Request) bool {
	return req != nil && req.Protocol == proto.HTTP11 && http.HasToken(req.Headers, "Expect", "100-continue")
}
