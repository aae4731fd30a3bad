package response

import (
	"io"

	"github.com/indigo-web/strata/http/status"
	"github.com/indigo-web/strata/kv"
)

const preallocHeaders = 7

type Fields struct {
	// Stream is written instead of Body when set. StreamSize of -1 means the size is unknown,
	// so the stream is going to be transferred chunked.
	Stream     io.Reader
	StreamSize int64
	Reason     status.Status
	Headers    *kv.Storage
	Body       []byte
	Code       status.Code
}

func NewFields() *Fields {
	return &Fields{
		Code:    status.OK,
		Headers: kv.NewPrealloc(preallocHeaders),
	}
}

// Status returns the reason phrase, falling back to the standard one for the code.
func (f *Fields) Status() status.Status {
	if len(f.Reason) > 0 {
		return f.Reason
	}

	return status.Text(f.Code)
}

// Size returns the length of the payload, or -1 if it's unknown.
func (f *Fields) Size() int64 {
	if f.Stream != nil {
		return f.StreamSize
	}

	return int64(len(f.Body))
}

func (f *Fields) Clear() {
	f.Code = status.OK
	f.Reason = ""
	f.Headers.Clear()
	f.Body = nil
	f.Stream = nil
	f.StreamSize = 0
}
