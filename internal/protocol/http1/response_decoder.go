package http1

import (
	"bytes"
	"strconv"

	"github.com/indigo-web/strata/config"
	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/http/proto"
	"github.com/indigo-web/strata/http/status"
)

// ResponseDecoder is the client-side counterpart of Decoder. It follows the same buffer
// contract.
type ResponseDecoder struct {
	state    decoderState
	head     head
	body     body
	response *http.Response
	protocol proto.Protocol
	err      *ParseError
	// noBody is set for responses to HEAD requests.
	noBody bool
}

func NewResponseDecoder(cfg *config.Config) *ResponseDecoder {
	d := &ResponseDecoder{
		head: newHead(cfg.Headers.MaxSize, cfg.Headers.MaxCount, cfg.Headers.Prealloc),
		body: newBody(cfg.Body.MaxSize, cfg.Headers.MaxSize),
	}
	d.Reset()

	return d
}

// ExpectHead tells the decoder whether the response answers a HEAD request, therefore
// carries no body regardless of its headers. It applies to the next message only.
func (d *ResponseDecoder) ExpectHead(isHead bool) {
	d.noBody = isHead
}

func (d *ResponseDecoder) Decode(buf []byte) (State, int, error) {
	switch d.state {
	case eDone:
		d.Reset()
	case eError:
		return Error, 0, d.err
	}

	if d.state == eHead {
		done, err := d.head.scan(buf, d.statusLine)
		if err != nil {
			return d.fail(err)
		}

		if !done {
			return Pending, 0, nil
		}

		fields := d.response.Expose()
		fields.Headers = d.head.headers

		f := framingNone
		if !d.noBody && status.AllowsBody(fields.Code) {
			fallback := framingNone
			if d.closing() {
				fallback = framingUntilClose
			}

			if f, err = d.head.decideFraming(fallback); err != nil {
				return d.fail(err)
			}
		}

		if err = d.body.reset(f, d.head.contentLength, d.head.offset); err != nil {
			return d.fail(err)
		}

		d.state = eBody
	}

	done, err := d.body.decode(buf)
	if err != nil {
		return d.fail(err)
	}

	if !done {
		return Pending, 0, nil
	}

	return d.complete()
}

// Finish must be called when the peer closed the connection. A body delimited by the
// close is completed, anything else in progress is an error.
func (d *ResponseDecoder) Finish(buf []byte) (State, int, error) {
	if d.state != eBody {
		return Error, 0, newError(MalformedRequestLine, "unexpected end of stream")
	}

	done, err := d.body.finish(buf)
	if err != nil {
		return d.fail(err)
	}

	if !done {
		return Error, 0, newError(MalformedChunk, "unexpected end of stream")
	}

	return d.complete()
}

func (d *ResponseDecoder) Response() *http.Response {
	return d.response
}

func (d *ResponseDecoder) Protocol() proto.Protocol {
	return d.protocol
}

func (d *ResponseDecoder) Reset() {
	d.state = eHead
	d.err = nil
	d.head.reset()
	d.response = http.NewResponse()
	d.protocol = proto.Unknown
}

func (d *ResponseDecoder) complete() (State, int, error) {
	d.response.Expose().Body = d.body.data
	d.state = eDone
	d.noBody = false
	return Completed, d.body.offset, nil
}

func (d *ResponseDecoder) fail(err *ParseError) (State, int, error) {
	d.state = eError
	d.err = err
	return Error, 0, err
}

// closing tells whether the connection is going to be closed after the response.
func (d *ResponseDecoder) closing() bool {
	if d.protocol == proto.HTTP10 {
		return !http.HasToken(d.head.headers, "connection", "keep-alive")
	}

	return http.HasToken(d.head.headers, "connection", "close")
}

func (d *ResponseDecoder) statusLine(line []byte) *ParseError {
	sp := bytes.IndexByte(line, ' ')
	if sp <= 0 {
		return newError(MalformedRequestLine, "")
	}

	version, rest := line[:sp], line[sp+1:]
	if !proto.WellFormed(version) {
		return newError(MalformedRequestLine, "bad protocol")
	}

	if d.protocol = proto.FromBytes(version); d.protocol == proto.Unknown {
		return newError(UnsupportedVersion, string(version))
	}

	rawCode, reason, _ := bytes.Cut(rest, []byte(" "))
	if len(rawCode) != 3 || !isDigits(string(rawCode)) {
		return newError(MalformedRequestLine, "bad status code")
	}

	code, _ := strconv.Atoi(string(rawCode))
	if !status.Valid(status.Code(code)) {
		return newError(MalformedRequestLine, "bad status code")
	}

	if !status.ValidReason(status.Status(reason)) {
		return newError(MalformedRequestLine, "bad reason phrase")
	}

	d.response.Code(status.Code(code)).Reason(status.Status(reason))

	return nil
}
