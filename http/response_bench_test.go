package http

import (
	"errors"
	"testing"

	"github.com/indigo-web/strata/http/status"
)

func BenchmarkResponse_Error(b *testing.B) {
	resp := NewResponse()
	knownErr := status.ErrBadRequest
	unknownErr := errors.New("some crap happened, unable to recover")

	b.Run("KnownError", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			resp.Error(knownErr)
		}
	})

	b.Run("UnknownError", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			resp.Error(unknownErr)
		}
	})
}
