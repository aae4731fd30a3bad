package service

import (
	"errors"

	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/http/status"
)

type Kind uint8

const (
	KindInternal Kind = iota
	KindTimeout
	KindOverloaded
	KindNotReady
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindOverloaded:
		return "overloaded"
	case KindNotReady:
		return "not ready"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Code returns the status the kind is answered with when no layer recovered the error.
func (k Kind) Code() status.Code {
	switch k {
	case KindTimeout:
		return status.GatewayTimeout
	case KindOverloaded, KindNotReady, KindUnavailable:
		return status.ServiceUnavailable
	default:
		return status.InternalServerError
	}
}

// Error is a failure of a service call, classified by its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "service " + e.Kind.String()
	}

	return "service " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinels by kind, so errors.Is(err, ErrTimeout) holds for any timeout.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrTimeout     = &Error{Kind: KindTimeout}
	ErrOverloaded  = &Error{Kind: KindOverloaded}
	ErrNotReady    = &Error{Kind: KindNotReady}
	ErrUnavailable = &Error{Kind: KindUnavailable}
)

// KindOf extracts the kind of err. Errors that aren't service errors are KindInternal.
func KindOf(err error) Kind {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Kind
	}

	return KindInternal
}

// Respond maps an error onto the response a client gets. HTTP errors keep their code and
// message, service errors get the code of their kind and everything else results in a
// generic 500 without any details.
func Respond(err error) *http.Response {
	var httpErr status.HTTPError
	if errors.As(err, &httpErr) {
		return http.Error(httpErr)
	}

	code := KindOf(err).Code()
	return http.Code(code).String(string(status.Text(code)))
}
