// Package router dispatches requests to services by method and path.
package router

import (
	"context"
	"slices"
	"strings"

	"github.com/indigo-web/strata/errors"
	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/http/method"
	"github.com/indigo-web/strata/http/status"
	"github.com/indigo-web/strata/kv"
	"github.com/indigo-web/strata/router/internal/pattern"
	"github.com/indigo-web/strata/service"
)

type endpoint struct {
	service service.Service
	// params are the capture names of the pattern the endpoint was registered with. Routes
	// of different methods sharing the same shape may name their captures differently.
	params []string
}

type entry struct {
	methods map[string]*endpoint
}

// resolve picks the endpoint serving the request. HEAD requests fall back to GET.
func (e *entry) resolve(req *http.Request) *endpoint {
	token := req.MethodToken
	if len(token) == 0 {
		token = req.Method.String()
	}

	if ep, ok := e.methods[token]; ok {
		return ep
	}

	if token == "HEAD" {
		if ep, ok := e.methods["GET"]; ok {
			return ep
		}
	}

	return e.methods[AnyMethod]
}

// Router is a service, dispatching requests to the services of matching routes. It's
// always ready itself: readiness of the matched service is awaited in Call, bounded by
// the call context.
type Router struct {
	tree     *pattern.Node[*entry]
	fallback *endpoint
	backoff  service.Backoff
}

// New builds a router out of the routes. Routes having the same method and patterns of the
// same shape (e.g. /users/:id and /users/:name) are ambiguous and rejected, as well as
// malformed patterns.
func New(routes ...Route) (*Router, error) {
	r := &Router{
		tree:    pattern.New[*entry](),
		backoff: service.DefaultBackoff,
	}

	for _, route := range routes {
		if err := r.add(route); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Must is like New, but panics on error.
func Must(routes ...Route) *Router {
	r, err := New(routes...)
	if err != nil {
		panic(err)
	}

	return r
}

func (r *Router) add(route Route) error {
	if route.Service == nil {
		return errors.NewConstructionError("router", errors.ErrInvalidPattern, "%s %s: no service", route.Method, route.Path)
	}

	if route.Method != AnyMethod && !method.IsToken(route.Method) {
		return errors.NewConstructionError("router", errors.ErrInvalidPattern, "%q is not a method", route.Method)
	}

	if route.Path == Fallback {
		if r.fallback != nil {
			return errors.NewConstructionError("router", errors.ErrAmbiguousRoute, "fallback registered twice")
		}

		r.fallback = &endpoint{service: route.Service}
		return nil
	}

	segments, err := pattern.Parse(route.Path)
	if err != nil {
		return errors.NewConstructionError("router", errors.ErrInvalidPattern, "%s: %s", route.Path, err)
	}

	payload, _ := r.tree.Insert(segments)
	if *payload == nil {
		*payload = &entry{methods: make(map[string]*endpoint)}
	}

	if _, taken := (*payload).methods[route.Method]; taken {
		return errors.NewConstructionError(
			"router", errors.ErrAmbiguousRoute, "%s %s collides with %s", route.Method, route.Path, pattern.Shape(segments),
		)
	}

	(*payload).methods[route.Method] = &endpoint{
		service: route.Service,
		params:  pattern.Names(segments),
	}

	return nil
}

func (r *Router) Ready() service.Readiness {
	return service.Available
}

func (r *Router) Call(ctx context.Context, req *http.Request) (*http.Response, error) {
	var captures [4]string
	e, values, found := r.tree.Lookup(req.Path, captures[:0], func(e *entry) bool {
		return e.resolve(req) != nil
	})

	if found {
		ep := e.resolve(req)
		if req.Params == nil {
			req.Params = kv.New()
		}

		for i, name := range ep.params {
			req.Params.Add(name, values[i])
		}

		return r.dispatch(ctx, ep.service, req)
	}

	if allowed := r.allowed(req.Path); len(allowed) > 0 {
		return http.Error(status.ErrMethodNotAllowed).
			Header("Allow", strings.Join(allowed, ", ")), nil
	}

	if r.fallback != nil {
		return r.dispatch(ctx, r.fallback.service, req)
	}

	return http.Error(status.ErrNotFound), nil
}

func (r *Router) dispatch(ctx context.Context, svc service.Service, req *http.Request) (*http.Response, error) {
	if err := service.AwaitReady(ctx, svc, r.backoff); err != nil {
		return nil, err
	}

	return svc.Call(ctx, req)
}

// allowed lists methods of every route matching the path in the canonical order: standard
// methods first, then extension ones alphabetically. AnyMethod routes never reach here.
func (r *Router) allowed(path string) []string {
	var tokens []string
	r.tree.Walk(path, func(e *entry) {
		for token := range e.methods {
			if !slices.Contains(tokens, token) {
				tokens = append(tokens, token)
			}
		}
	})

	slices.SortFunc(tokens, func(a, b string) int {
		ra, rb := rank(a), rank(b)
		if ra != rb {
			return ra - rb
		}

		return strings.Compare(a, b)
	})

	return tokens
}

func rank(token string) int {
	if m := method.Parse(token); m != method.Extension && m != method.Unknown {
		return int(m)
	}

	return int(method.Count) + 1
}
