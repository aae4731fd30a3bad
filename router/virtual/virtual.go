// Package virtual dispatches requests to services by the Host header.
package virtual

import (
	"context"
	"strings"

	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/http/status"
	"github.com/indigo-web/strata/service"
)

type vhost struct {
	domain  string
	service service.Service
}

// Hosts is a service choosing the inner service by the requested domain. Like the router,
// it's always ready and awaits readiness of the chosen service on call.
type Hosts struct {
	hosts    []vhost
	fallback service.Service
}

// New returns a new instance of the virtual Hosts
func New() *Hosts {
	return new(Hosts)
}

// Host adds a new virtual host. If 0.0.0.0 is passed, the service will be set as a
// default one
func (h *Hosts) Host(domain string, svc service.Service) *Hosts {
	domain = Normalize(domain)
	if TrimPort(domain) == "0.0.0.0" {
		return h.Default(svc)
	}

	h.hosts = append(h.hosts, vhost{
		domain:  domain,
		service: svc,
	})
	return h
}

// Default sets the service for requests, which Host doesn't match any domain. Requests
// carrying multiple Host headers are refused anyway.
func (h *Hosts) Default(svc service.Service) *Hosts {
	h.fallback = svc
	return h
}

func (h *Hosts) Ready() service.Readiness {
	return service.Available
}

func (h *Hosts) Call(ctx context.Context, req *http.Request) (*http.Response, error) {
	svc, err := h.lookup(req)
	if err != nil {
		return http.Error(err), nil
	}

	if err = service.AwaitReady(ctx, svc, service.DefaultBackoff); err != nil {
		return nil, err
	}

	return svc.Call(ctx, req)
}

var errMisdirected = status.NewError(status.MisdirectedRequest, "misdirected request")

func (h *Hosts) lookup(req *http.Request) (service.Service, error) {
	switch req.Headers.Count("Host") {
	case 0:
		if h.fallback == nil {
			return nil, status.ErrBadRequest
		}

		return h.fallback, nil
	case 1:
	default:
		return nil, status.ErrBadRequest
	}

	host := Normalize(req.Headers.Value("Host"))
	for _, vh := range h.hosts {
		if vh.domain == host {
			return vh.service, nil
		}
	}

	if h.fallback == nil {
		return nil, errMisdirected
	}

	return h.fallback, nil
}

// Normalize lowercases the domain, dropping the www. prefix and the port, if it's a
// default one.
func Normalize(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimPrefix(domain, "www.")

	if colon := strings.LastIndexByte(domain, ':'); colon != -1 && colon > strings.LastIndexByte(domain, ']') {
		switch domain[colon+1:] {
		case "80", "443":
			// non-default ports must always be presented
			domain = domain[:colon]
		}
	}

	return domain
}

func TrimPort(domain string) string {
	if colon := strings.LastIndexByte(domain, ':'); colon != -1 && colon > strings.LastIndexByte(domain, ']') {
		return domain[:colon]
	}

	return domain
}
