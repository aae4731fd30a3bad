package http

import (
	"errors"
	"io"

	"github.com/indigo-web/strata/http/mime"
	"github.com/indigo-web/strata/http/status"
	"github.com/indigo-web/strata/internal/response"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

var (
	contentTypeText = mime.WithUTF8(mime.Plain)
	contentTypeJSON = mime.JSON
)

var (
	ErrEmptyBody     = errors.New("body is empty")
	ErrInvalidHeader = errors.New("header name must be non-empty and the value must not contain CR, LF or NUL")
	ErrInvalidCode   = errors.New("status code must be in range 100-599")
	ErrInvalidReason = errors.New("reason phrase must not contain control characters")
)

type Response struct {
	fields *response.Fields
}

// NewResponse returns a new instance of the Response object with status code set to 200 OK
// and no headers.
func NewResponse() *Response {
	return &Response{
		fields: response.NewFields(),
	}
}

// Code sets a Response code. The reason phrase is derived from it unless set explicitly
// via Reason. It panics if the code is out of 100-599 range, use TryCode to get an
// error instead.
func (r *Response) Code(code status.Code) *Response {
	if err := r.TryCode(code); err != nil {
		panic(err)
	}

	return r
}

// TryCode does the same as Code, except it returns the error instead of panicking.
func (r *Response) TryCode(code status.Code) error {
	if !status.Valid(code) {
		return ErrInvalidCode
	}

	r.fields.Code = code
	return nil
}

// Reason sets a custom status text. Clients usually ignore it. Panics on control
// characters, see TryReason.
func (r *Response) Reason(reason status.Status) *Response {
	if err := r.TryReason(reason); err != nil {
		panic(err)
	}

	return r
}

// TryReason does the same as Reason, except it returns the error instead of panicking.
func (r *Response) TryReason(reason status.Status) error {
	if !status.ValidReason(reason) {
		return ErrInvalidReason
	}

	r.fields.Reason = reason
	return nil
}

// ContentType replaces the Content-Type header value.
func (r *Response) ContentType(value string) *Response {
	return r.SetHeader("Content-Type", value)
}

// Header appends the values to a key. It panics if the key or any of the values can't be
// put on the wire as is, use TryHeader to get an error instead.
func (r *Response) Header(key string, values ...string) *Response {
	if err := r.TryHeader(key, values...); err != nil {
		panic(err)
	}

	return r
}

// TryHeader does the same as Header, except it returns the error instead of panicking.
// On error, the response is left untouched.
func (r *Response) TryHeader(key string, values ...string) error {
	if !validHeader(key, values) {
		return ErrInvalidHeader
	}

	for _, value := range values {
		r.fields.Headers.Add(key, value)
	}

	return nil
}

// SetHeader replaces all values of the key by the single one. Panics on invalid input
// the same way Header does.
func (r *Response) SetHeader(key, value string) *Response {
	if !validHeader(key, []string{value}) {
		panic(ErrInvalidHeader)
	}

	r.fields.Headers.Set(key, value)
	return r
}

// Headers merges passed headers into the Response.
func (r *Response) Headers(headers map[string][]string) *Response {
	for key, values := range headers {
		r.Header(key, values...)
	}

	return r
}

// String sets the response's body to the passed string. Content-Type defaults to plain text.
func (r *Response) String(body string) *Response {
	r.defaultContentType(contentTypeText)
	return r.Bytes(uf.S2B(body))
}

// Bytes sets the response's body to passed slice WITHOUT COPYING. Changing
// the passed slice later will affect the response by itself
func (r *Response) Bytes(body []byte) *Response {
	r.fields.Body = body
	r.fields.Stream = nil
	return r
}

// Write implements io.Writer interface. It always returns n=len(b) and err=nil
func (r *Response) Write(b []byte) (n int, err error) {
	r.fields.Body = append(r.fields.Body, b...)
	return len(b), nil
}

// Stream sets a reader the body will be read from. In this case Response body will be ignored.
// If size < 0, then Transfer-Encoding: chunked will be used. If the reader is an io.Closer,
// it's closed after being transferred.
func (r *Response) Stream(reader io.Reader, size int64) *Response {
	if size < 0 {
		size = -1
	}

	r.fields.Stream = reader
	r.fields.StreamSize = size
	r.fields.Body = nil
	return r
}

// TryJSON receives a model and serializes it into the body.
func (r *Response) TryJSON(model any) (*Response, error) {
	r.fields.Body = r.fields.Body[:0]
	r.fields.Stream = nil
	stream := json.ConfigDefault.BorrowStream(r)
	stream.WriteVal(model)
	err := stream.Flush()
	json.ConfigDefault.ReturnStream(stream)

	return r.ContentType(contentTypeJSON), err
}

// JSON does the same as TryJSON does, except returned error is being implicitly wrapped
// by Error
func (r *Response) JSON(model any) *Response {
	resp, err := r.TryJSON(model)
	if err != nil {
		return r.Error(err)
	}

	return resp
}

// Error returns a response builder with an error set. If passed err is nil, nothing will happen.
// If an instance of status.HTTPError is passed, its code and message are used. Custom
// codes can be passed, however only first will be used. By default, the code is 500 and
// the body is generic, so no details of err leak to the client.
func (r *Response) Error(err error, code ...status.Code) *Response {
	if err == nil {
		return r
	}

	r.fields.Headers.Clear()

	var httpErr status.HTTPError
	if errors.As(err, &httpErr) && status.Valid(httpErr.Code) {
		return r.Code(httpErr.Code).String(httpErr.Message)
	}

	c := status.InternalServerError
	if len(code) > 0 && status.Valid(code[0]) {
		// peek the first, ignore the rest
		c = code[0]
	}

	return r.
		Code(c).
		String(string(status.Text(c)))
}

// Expose returns a struct with values, filled by builder. Used mostly in internal purposes
func (r *Response) Expose() *response.Fields {
	return r.fields
}

// Clear discards everything was done with Response object before
func (r *Response) Clear() *Response {
	r.fields.Clear()
	return r
}

func (r *Response) defaultContentType(value string) {
	if !r.fields.Headers.Has("content-type") {
		r.fields.Headers.Add("Content-Type", value)
	}
}

// Code is a shorthand for NewResponse().Code(...)
func Code(code status.Code) *Response {
	return NewResponse().Code(code)
}

// String is a shorthand for NewResponse().String(...)
func String(str string) *Response {
	return NewResponse().String(str)
}

// Bytes is a shorthand for NewResponse().Bytes(...)
func Bytes(b []byte) *Response {
	return NewResponse().Bytes(b)
}

// JSON is a shorthand for NewResponse().JSON(...)
func JSON(model any) *Response {
	return NewResponse().JSON(model)
}

// Error is a shorthand for NewResponse().Error(...)
func Error(err error, code ...status.Code) *Response {
	return NewResponse().Error(err, code...)
}

func validHeader(key string, values []string) bool {
	if len(key) == 0 || !validValue(key) {
		return false
	}

	for _, value := range values {
		if !validValue(value) {
			return false
		}
	}

	return true
}

func validValue(str string) bool {
	for i := 0; i < len(str); i++ {
		switch str[i] {
		case '\r', '\n', 0:
			return false
		}
	}

	return true
}
