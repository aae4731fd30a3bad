package status

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringCode(t *testing.T) {
	for _, code := range KnownCodes {
		require.Equal(t, strconv.Itoa(int(code)), StringCode(code))
	}

	require.Equal(t, "599", StringCode(599))
}

func TestText(t *testing.T) {
	for _, code := range KnownCodes {
		require.NotEqual(t, Status("Unknown Status Code"), Text(code), code)
	}

	require.Equal(t, Status("Unknown Status Code"), Text(599))
}

func TestAllowsBody(t *testing.T) {
	for _, code := range []Code{Continue, SwitchingProtocols, NoContent, NotModified} {
		require.False(t, AllowsBody(code), code)
	}

	for _, code := range []Code{OK, Created, NotFound, InternalServerError} {
		require.True(t, AllowsBody(code), code)
	}
}

func BenchmarkStringCode(b *testing.B) {
	code := KnownCodes[rand.IntN(len(KnownCodes))]
	b.ResetTimer()

	for range b.N {
		_ = StringCode(code)
	}
}
