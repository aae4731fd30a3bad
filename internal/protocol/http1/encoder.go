package http1

import (
	"io"
	"strconv"

	"github.com/indigo-web/strata/config"
	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/http/method"
	"github.com/indigo-web/strata/http/proto"
	"github.com/indigo-web/strata/http/status"
	"github.com/indigo-web/strata/internal/response"
	"github.com/indigo-web/utils/strcomp"
)

const crlf = "\r\n"

// Encoder serializes responses. It isn't safe for concurrent use, so every connection
// owns its own instance.
type Encoder struct {
	buff           []byte
	streamBuff     []byte
	defaultHeaders defaultHeaders
}

func NewEncoder(cfg *config.Config) *Encoder {
	return &Encoder{
		buff:           make([]byte, 0, cfg.NET.WriteBufferSize),
		defaultHeaders: preprocessDefaultHeaders(cfg.Headers.Default),
	}
}

// Response writes the response to w. The request may be nil if it couldn't be decoded.
// A response with an out of range code or a malformed reason phrase is replaced by 500.
// When closing is set, the response carries Connection: close. The stream of the
// response, if any, is closed when it implements io.Closer.
func (e *Encoder) Response(w io.Writer, req *http.Request, resp *http.Response, closing bool) (err error) {
	fields := resp.Expose()
	if fields.Stream != nil {
		if c, ok := fields.Stream.(io.Closer); ok {
			defer func() {
				if cerr := c.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()
		}
	}

	if !status.Valid(fields.Code) || !status.ValidReason(fields.Reason) {
		// fields were altered past the builder's checks
		fields = http.Error(status.ErrInternalServerError).Expose()
	}

	isHead := req != nil && req.Method == method.HEAD
	legacyKeepAlive := !closing && req != nil && req.Protocol == proto.HTTP10

	e.buff = e.buff[:0]
	e.appendStatusLine(fields)
	e.appendHeaders(fields, closing, legacyKeepAlive)

	if closing {
		e.appendKnownHeader("Connection: ", "close")
	}

	size := fields.Size()

	switch {
	case fields.Code < 200 || fields.Code == status.NoContent:
		// neither body nor Content-Length are permitted
		size = 0
	case fields.Code == status.NotModified:
		size = 0
	case size == -1:
		e.appendKnownHeader("Transfer-Encoding: ", "chunked")
	default:
		e.appendContentLength(size)
	}

	e.crlf()

	if isHead || size == 0 {
		return e.flush(w)
	}

	if fields.Stream == nil {
		e.buff = append(e.buff, fields.Body...)
		return e.flush(w)
	}

	if err = e.flush(w); err != nil {
		return err
	}

	if size == -1 {
		return e.writeChunked(w, fields.Stream)
	}

	if _, err = io.CopyN(w, fields.Stream, size); err == io.EOF {
		err = io.ErrUnexpectedEOF
	}

	return err
}

// EncodeRequest appends the serialized request to dst. Framing headers of the request
// are replaced by a Content-Length matching the body.
func EncodeRequest(dst []byte, req *http.Request) []byte {
	token := req.MethodToken
	if len(token) == 0 {
		token = req.Method.String()
	}

	protocol := req.Protocol
	if protocol == proto.Unknown {
		protocol = proto.HTTP11
	}

	dst = append(dst, token...)
	dst = append(dst, ' ')
	dst = append(dst, req.Target...)
	dst = append(dst, ' ')
	dst = append(dst, protocol.String()...)
	dst = append(dst, crlf...)

	if req.Headers != nil {
		for key, value := range req.Headers.Pairs() {
			if isFramingHeader(key) {
				continue
			}

			dst = append(dst, key...)
			dst = append(dst, ':', ' ')
			dst = append(dst, value...)
			dst = append(dst, crlf...)
		}
	}

	if len(req.Body) > 0 {
		dst = append(dst, "Content-Length: "...)
		dst = strconv.AppendInt(dst, int64(len(req.Body)), 10)
		dst = append(dst, crlf...)
	}

	dst = append(dst, crlf...)
	return append(dst, req.Body...)
}

func (e *Encoder) writeChunked(w io.Writer, stream io.Reader) error {
	if cap(e.streamBuff) == 0 {
		e.streamBuff = make([]byte, max(cap(e.buff), 512))
	}

	for {
		n, err := stream.Read(e.streamBuff[:cap(e.streamBuff)])
		if n > 0 {
			e.buff = strconv.AppendUint(e.buff[:0], uint64(n), 16)
			e.crlf()
			e.buff = append(e.buff, e.streamBuff[:n]...)
			e.crlf()

			if ferr := e.flush(w); ferr != nil {
				return ferr
			}
		}

		switch err {
		case nil:
		case io.EOF:
			e.buff = append(e.buff[:0], "0\r\n\r\n"...)
			return e.flush(w)
		default:
			return err
		}
	}
}

func (e *Encoder) flush(w io.Writer) (err error) {
	if len(e.buff) > 0 {
		_, err = w.Write(e.buff)
		e.buff = e.buff[:0]
	}

	return err
}

func (e *Encoder) appendStatusLine(fields *response.Fields) {
	e.buff = append(e.buff, "HTTP/1.1 "...)

	if code := status.StringCode(fields.Code); len(code) > 0 {
		e.buff = append(e.buff, code...)
	} else {
		// some non-standard code
		e.buff = strconv.AppendUint(e.buff, uint64(fields.Code), 10)
	}

	e.sp()
	e.buff = append(e.buff, fields.Status()...)
	e.crlf()
}

func (e *Encoder) appendHeaders(fields *response.Fields, closing, legacyKeepAlive bool) {
	sawConnection := false

	for key, value := range fields.Headers.Pairs() {
		e.defaultHeaders.Exclude(key)

		if isFramingHeader(key) {
			continue
		}

		if strcomp.EqualFold(key, "connection") {
			if closing {
				continue
			}

			sawConnection = true
		}

		e.buff = append(e.buff, key...)
		e.colonsp()
		e.buff = append(e.buff, value...)
		e.crlf()
	}

	for _, header := range e.defaultHeaders {
		if !header.Excluded {
			e.buff = append(e.buff, header.Full...)
		}
	}

	e.defaultHeaders.Reset()

	if legacyKeepAlive && !sawConnection {
		e.appendKnownHeader("Connection: ", "keep-alive")
	}
}

// appendKnownHeader writes a header, which key is known to already have a colon and a space included.
func (e *Encoder) appendKnownHeader(key, value string) {
	e.buff = append(e.buff, key...)
	e.buff = append(e.buff, value...)
	e.crlf()
}

func (e *Encoder) appendContentLength(value int64) {
	e.buff = append(e.buff, "Content-Length: "...)
	e.buff = strconv.AppendInt(e.buff, value, 10)
	e.crlf()
}

func (e *Encoder) sp() {
	e.buff = append(e.buff, ' ')
}

func (e *Encoder) colonsp() {
	e.buff = append(e.buff, ':', ' ')
}

func (e *Encoder) crlf() {
	e.buff = append(e.buff, crlf...)
}

func isFramingHeader(key string) bool {
	return strcomp.EqualFold(key, "content-length") || strcomp.EqualFold(key, "transfer-encoding")
}

func preprocessDefaultHeaders(headers map[string]string) defaultHeaders {
	processed := make(defaultHeaders, 0, len(headers))

	for key, value := range headers {
		serialized := key + ": " + value + crlf
		processed = append(processed, defaultHeader{
			Key:  serialized[:len(key)],
			Full: serialized,
		})
	}

	return processed
}

type defaultHeader struct {
	Excluded bool
	Key      string
	Full     string
}

type defaultHeaders []defaultHeader

func (d defaultHeaders) Exclude(key string) {
	for i, header := range d {
		if strcomp.EqualFold(header.Key, key) {
			d[i].Excluded = true
			return
		}
	}
}

func (d defaultHeaders) Reset() {
	for i := range d {
		d[i].Excluded = false
	}
}
