package router

import (
	"github.com/indigo-web/strata/service"
)

// AnyMethod matches requests of every method, unless a route with the exact method
// matches the same path.
const AnyMethod = "*"

// Fallback is the path of the route consulted when nothing else matches the request.
const Fallback = "*"

// Route binds a service to requests of the method, which paths match the pattern. The
// pattern consists of static segments and :name captures, e.g. /users/:id/posts.
type Route struct {
	// Method is a method token, like GET or PROPFIND, or AnyMethod.
	Method  string
	Path    string
	Service service.Service
}

func Handle(method, path string, svc service.Service) Route {
	return Route{Method: method, Path: path, Service: svc}
}

func Any(path string, svc service.Service) Route {
	return Handle(AnyMethod, path, svc)
}

func Get(path string, svc service.Service) Route {
	return Handle("GET", path, svc)
}

func Head(path string, svc service.Service) Route {
	return Handle("HEAD", path, svc)
}

func Post(path string, svc service.Service) Route {
	return Handle("POST", path, svc)
}

func Put(path string, svc service.Service) Route {
	return Handle("PUT", path, svc)
}

func Patch(path string, svc service.Service) Route {
	return Handle("PATCH", path, svc)
}

func Delete(path string, svc service.Service) Route {
	return Handle("DELETE", path, svc)
}

func Options(path string, svc service.Service) Route {
	return Handle("OPTIONS", path, svc)
}

// NotFound registers the service answering requests no other route matches. Requests
// matching some route by path but not by method are still answered with 405.
func NotFound(svc service.Service) Route {
	return Route{Method: AnyMethod, Path: Fallback, Service: svc}
}
