package router

import (
	"strings"

	"github.com/indigo-web/strata/service"
)

// Group prefixes paths of the routes. The fallback route is left as is. Groups can be
// nested:
//
//	router.Group("/api", router.Group("/v1", router.Get("/users", users)...)...)
func Group(prefix string, routes ...Route) []Route {
	prefix = strings.TrimSuffix(prefix, "/")
	grouped := make([]Route, len(routes))

	for i, route := range routes {
		if route.Path != Fallback {
			route.Path = prefix + route.Path
		}

		grouped[i] = route
	}

	return grouped
}

// With wraps the service of every route into the layers. Layers of the enclosing routes
// aren't affected, so it's the way to apply layers to a group only.
func With(routes []Route, layers ...service.Layer) []Route {
	wrapped := make([]Route, len(routes))

	for i, route := range routes {
		if route.Service != nil {
			route.Service = service.Stack(route.Service, layers...)
		}

		wrapped[i] = route
	}

	return wrapped
}
