// Package service defines the contract every request processor implements, and the way
// processors are composed out of layers.
package service

import (
	"context"

	"github.com/indigo-web/strata/http"
)

// Service turns a request into a response. Implementations must be safe for concurrent use,
// as a single instance is shared by every connection.
type Service interface {
	// Ready reports whether Call is going to be admitted. It never blocks and is advisory
	// only: a service whose capacity was taken in between fails Call with ErrOverloaded.
	Ready() Readiness
	// Call may block. It must return promptly once ctx is done and release everything it
	// acquired, regardless of the outcome. A nil error comes with a non-nil response.
	Call(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Func adapts a function into an always ready Service.
type Func func(ctx context.Context, req *http.Request) (*http.Response, error)

func (f Func) Ready() Readiness {
	return Available
}

func (f Func) Call(ctx context.Context, req *http.Request) (*http.Response, error) {
	return f(ctx, req)
}

// Layer wraps a service into another one, adding behaviour around it.
type Layer func(Service) Service

// Stack applies the layers on the inner service. The first layer is the outermost one:
// it sees the request first and the response last.
func Stack(inner Service, layers ...Layer) Service {
	for i := len(layers) - 1; i >= 0; i-- {
		inner = layers[i](inner)
	}

	return inner
}

// Builder collects layers in order to Stack them later.
type Builder struct {
	layers []Layer
}

func NewBuilder() *Builder {
	return new(Builder)
}

// Layer appends a layer beneath the ones already added.
func (b *Builder) Layer(layers ...Layer) *Builder {
	b.layers = append(b.layers, layers...)
	return b
}

// Service wraps the inner service by all the collected layers. The builder may be reused.
func (b *Builder) Service(inner Service) Service {
	return Stack(inner, b.layers...)
}

// Len returns the number of collected layers.
func (b *Builder) Len() int {
	return len(b.layers)
}
