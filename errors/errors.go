package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAmbiguousRoute = errors.New("ambiguous route")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrInvalidPattern = errors.New("invalid path pattern")

	ErrShutdown = errors.New("graceful shutdown")
)

// ConstructionError is returned when a server, a router or a config cannot be assembled.
// It is never observed while serving.
type ConstructionError struct {
	// Component names what failed to be built, e.g. "router" or "config".
	Component string
	Cause     error
	Detail    string
}

func NewConstructionError(component string, cause error, format string, args ...any) *ConstructionError {
	return &ConstructionError{
		Component: component,
		Cause:     cause,
		Detail:    fmt.Sprintf(format, args...),
	}
}

func (c *ConstructionError) Error() string {
	if len(c.Detail) == 0 {
		return c.Component + ": " + c.Cause.Error()
	}

	return c.Component + ": " + c.Cause.Error() + ": " + c.Detail
}

func (c *ConstructionError) Unwrap() error {
	return c.Cause
}

// TransportError wraps a socket failure. It's fatal to the connection it occurred on.
type TransportError struct {
	Op  string
	Err error
}

func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

func (t *TransportError) Error() string {
	return "transport: " + t.Op + ": " + t.Err.Error()
}

func (t *TransportError) Unwrap() error {
	return t.Err
}
