package config

import (
	"strings"
	"time"

	"github.com/indigo-web/strata/errors"
)

type (
	Headers struct {
		// MaxSize limits the size of the whole request head, request line included. Exceeding
		// it is fatal to the connection.
		MaxSize int
		// MaxCount is the maximal number of header fields a single request may carry.
		MaxCount int
		// Prealloc is the initial capacity of the request headers storage.
		Prealloc int
		// Default headers are headers to be included into every response implicitly, unless
		// explicitly overridden.
		Default map[string]string `test:"nullable"`
	}

	Body struct {
		// MaxSize describes the maximal size of a body, that can be processed. Requests with
		// larger bodies are answered with 413 and the connection is closed.
		MaxSize int64
	}

	NET struct {
		// ReadBufferSize is a size of buffer in bytes which will be used to read from
		// socket
		ReadBufferSize int
		// ReadTimeout controls the maximal lifetime of IDLE connections. If no data was
		// received in this period of time, it'll be closed.
		ReadTimeout time.Duration
		// AcceptLoopInterruptPeriod controls how often will the Accept() call be interrupted
		// in order to check whether it's time to stop. Defaults to 5 seconds.
		AcceptLoopInterruptPeriod time.Duration
		// WriteBufferSize is the initial capacity of the buffer a response is serialized into.
		WriteBufferSize int
	}

	Service struct {
		// RequestTimeout bounds a single call of the root service. When it elapses, the call
		// context is cancelled and 504 is returned.
		RequestTimeout time.Duration
		// ReadyTimeout bounds how long a request waits for the root service to become ready.
		// When it elapses, 503 is returned.
		ReadyTimeout time.Duration
		// Concurrency is the default capacity of the concurrency limit applied by the App
		// around the root service. Zero disables the limit.
		Concurrency int64 `test:"nullable"`
	}
)

// Config holds settings used across various parts of strata, mainly restrictions, limitations
// and pre-allocations.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	Headers Headers
	Body    Body
	NET     NET
	Service Service
}

// Default returns default config. Those are initially well-balanced, however maximal defaults
// are pretty permitting.
func Default() *Config {
	return &Config{
		Headers: Headers{
			MaxSize:  16 * 1024, // there also might be extremely long cookies.
			MaxCount: 100,
			Prealloc: 10,
			Default:  make(map[string]string),
		},
		Body: Body{
			MaxSize: 16 * 1024 * 1024, // 16 megabytes
		},
		NET: NET{
			ReadBufferSize:            4 * 1024,
			ReadTimeout:               90 * time.Second,
			AcceptLoopInterruptPeriod: 5 * time.Second,
			WriteBufferSize:           4 * 1024,
		},
		Service: Service{
			RequestTimeout: 30 * time.Second,
			ReadyTimeout:   5 * time.Second,
		},
	}
}

// Validate reports the first nonsensical value found.
func (c *Config) Validate() error {
	switch {
	case c.Headers.MaxSize <= 0:
		return invalid("Headers.MaxSize must be positive, got %d", c.Headers.MaxSize)
	case c.Headers.MaxCount <= 0:
		return invalid("Headers.MaxCount must be positive, got %d", c.Headers.MaxCount)
	case c.Headers.Prealloc < 0:
		return invalid("Headers.Prealloc must not be negative, got %d", c.Headers.Prealloc)
	case c.Body.MaxSize < 0:
		return invalid("Body.MaxSize must not be negative, got %d", c.Body.MaxSize)
	case c.NET.ReadBufferSize <= 0:
		return invalid("NET.ReadBufferSize must be positive, got %d", c.NET.ReadBufferSize)
	case c.NET.ReadTimeout <= 0:
		return invalid("NET.ReadTimeout must be positive, got %s", c.NET.ReadTimeout)
	case c.NET.AcceptLoopInterruptPeriod <= 0:
		return invalid("NET.AcceptLoopInterruptPeriod must be positive, got %s", c.NET.AcceptLoopInterruptPeriod)
	case c.NET.WriteBufferSize <= 0:
		return invalid("NET.WriteBufferSize must be positive, got %d", c.NET.WriteBufferSize)
	case c.Service.RequestTimeout <= 0:
		return invalid("Service.RequestTimeout must be positive, got %s", c.Service.RequestTimeout)
	case c.Service.ReadyTimeout <= 0:
		return invalid("Service.ReadyTimeout must be positive, got %s", c.Service.ReadyTimeout)
	case c.Service.Concurrency < 0:
		return invalid("Service.Concurrency must not be negative, got %d", c.Service.Concurrency)
	}

	for key, value := range c.Headers.Default {
		if !isToken(key) {
			return invalid("Headers.Default: %q is not a valid header name", key)
		}

		if !isFieldValue(value) {
			return invalid("Headers.Default: value of %s contains forbidden characters", key)
		}
	}

	return nil
}

func isToken(str string) bool {
	if len(str) == 0 {
		return false
	}

	for i := 0; i < len(str); i++ {
		c := str[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) != -1:
		default:
			return false
		}
	}

	return true
}

// isFieldValue permits visible characters, spaces and tabs.
func isFieldValue(str string) bool {
	for i := 0; i < len(str); i++ {
		if c := str[i]; (c < ' ' && c != '\t') || c == 0x7f {
			return false
		}
	}

	return true
}

func invalid(format string, args ...any) error {
	return errors.NewConstructionError("config", errors.ErrInvalidConfig, format, args...)
}
