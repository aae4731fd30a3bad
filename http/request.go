package http

import (
	"net"
	"strings"

	"github.com/indigo-web/strata/http/method"
	"github.com/indigo-web/strata/http/mime"
	"github.com/indigo-web/strata/http/proto"
	"github.com/indigo-web/strata/http/status"
	"github.com/indigo-web/strata/kv"
	"github.com/indigo-web/utils/strcomp"
	json "github.com/json-iterator/go"
)

type (
	Headers = *kv.Storage
	Header  = kv.Pair
	Params  = *kv.Storage
)

// Request represents HTTP request
type Request struct {
	// Method is an enum representing the request method. Methods outside the standard set
	// are represented by method.Extension.
	Method method.Method
	// MethodToken is the method exactly as it was received.
	MethodToken string
	// Target is the raw request target.
	Target string
	// Path is the part of the Target before the first question mark. It isn't decoded.
	Path string
	// Query is the part of the Target after the first question mark, if any.
	Query string
	// Protocol is either proto.HTTP10 or proto.HTTP11.
	Protocol proto.Protocol
	// Headers holds non-normalized header pairs, even though lookup is case-insensitive.
	// Values never contain CR or LF.
	Headers Headers
	// Body is the complete message body, after removing any transfer coding.
	Body []byte
	// Params are dynamic path segments, filled by the router.
	Params Params
	// Remote holds the remote address. Please note that this is generally not a good parameter to identify
	// a user, because there might be proxies in the middle.
	Remote net.Addr
}

func NewRequest(headersPrealloc int) *Request {
	return &Request{
		Method:   method.Unknown,
		Protocol: proto.HTTP11,
		Headers:  kv.NewPrealloc(headersPrealloc),
		Params:   kv.New(),
	}
}

// SetTarget sets the target, splitting it into the path and the query.
func (r *Request) SetTarget(target string) {
	r.Target = target
	r.Path, r.Query, _ = strings.Cut(target, "?")
}

// KeepAlive tells whether the connection may be reused after this request. HTTP/1.1
// connections are persistent unless the client asks to close, HTTP/1.0 ones are not
// unless the client asks to keep them alive.
func (r *Request) KeepAlive() bool {
	switch r.Protocol {
	case proto.HTTP11:
		return !HasToken(r.Headers, "connection", "close")
	case proto.HTTP10:
		return HasToken(r.Headers, "connection", "keep-alive")
	default:
		return false
	}
}

// JSON decodes the body into the model, which must be a pointer. Requests declaring
// a Content-Type other than JSON are rejected with status.ErrUnsupportedMediaType.
func (r *Request) JSON(model any) error {
	if r.Headers != nil && !mime.Complies(mime.JSON, r.Headers.Value("Content-Type")) {
		return status.ErrUnsupportedMediaType
	}

	if len(r.Body) == 0 {
		return ErrEmptyBody
	}

	return json.ConfigDefault.Unmarshal(r.Body, model)
}

// Clone returns a copy of the request, safe to be retained and modified independently.
func (r *Request) Clone() *Request {
	clone := *r
	clone.Headers = kv.New()
	if r.Headers != nil {
		clone.Headers = r.Headers.Clone()
	}

	clone.Params = kv.New()
	if r.Params != nil {
		clone.Params = r.Params.Clone()
	}

	return &clone
}

// HasToken tells whether any value of the header, treated as a comma-separated list,
// contains the token. Comparison is case-insensitive.
func HasToken(headers Headers, key, token string) bool {
	for value := range headers.Values(key) {
		for value != "" {
			var elem string
			elem, value, _ = strings.Cut(value, ",")
			if strcomp.EqualFold(strings.Trim(elem, " \t"), token) {
				return true
			}
		}
	}

	return false
}
