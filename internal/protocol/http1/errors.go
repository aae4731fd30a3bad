package http1

import (
	"github.com/indigo-web/strata/http/status"
)

// Reason classifies a decoding failure.
type Reason uint8

const (
	MalformedRequestLine Reason = iota + 1
	HeaderTooLarge
	InvalidHeader
	UnsupportedVersion
	ConflictingFraming
	MalformedChunk
	BodyTooLarge
)

func (r Reason) String() string {
	switch r {
	case MalformedRequestLine:
		return "malformed request line"
	case HeaderTooLarge:
		return "header section too large"
	case InvalidHeader:
		return "invalid header"
	case UnsupportedVersion:
		return "unsupported HTTP version"
	case ConflictingFraming:
		return "conflicting message framing"
	case MalformedChunk:
		return "malformed chunk"
	case BodyTooLarge:
		return "body too large"
	default:
		return "unknown reason"
	}
}

// Code returns the status a client is answered with before the connection is closed.
func (r Reason) Code() status.Code {
	switch r {
	case HeaderTooLarge:
		return status.RequestHeaderFieldsTooLarge
	case UnsupportedVersion:
		return status.HTTPVersionNotSupported
	case BodyTooLarge:
		return status.RequestEntityTooLarge
	default:
		return status.BadRequest
	}
}

// ParseError is fatal to the connection it happened on.
type ParseError struct {
	Reason Reason
	Detail string
}

func newError(reason Reason, detail string) *ParseError {
	return &ParseError{Reason: reason, Detail: detail}
}

func (p *ParseError) Error() string {
	if len(p.Detail) == 0 {
		return p.Reason.String()
	}

	return p.Reason.String() + ": " + p.Detail
}

func (p *ParseError) Code() status.Code {
	return p.Reason.Code()
}

// State is the outcome of a single decoding step.
type State uint8

const (
	// Pending means more data is needed.
	Pending State = iota
	Completed
	Error
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Completed:
		return "completed"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}
