package http1

import (
	"bytes"

	"github.com/indigo-web/strata/config"
	"github.com/indigo-web/strata/http"
	"github.com/indigo-web/strata/http/method"
	"github.com/indigo-web/strata/http/proto"
	"github.com/indigo-web/utils/uf"
)

type decoderState uint8

const (
	eHead decoderState = iota
	eBody
	eDone
	eError
)

// Decoder decodes requests out of a buffer growing by successive reads. The buffer passed
// must always start at the beginning of the message being decoded, and its prefix must
// not change between calls until the message is completed.
type Decoder struct {
	cfg     *config.Config
	state   decoderState
	head    head
	body    body
	request *http.Request
	err     *ParseError
}

func NewDecoder(cfg *config.Config) *Decoder {
	d := &Decoder{
		cfg:  cfg,
		head: newHead(cfg.Headers.MaxSize, cfg.Headers.MaxCount, cfg.Headers.Prealloc),
		body: newBody(cfg.Body.MaxSize, cfg.Headers.MaxSize),
	}
	d.Reset()

	return d
}

// Decode runs both phases at once. On Completed, n is the number of bytes the message took.
func (d *Decoder) Decode(buf []byte) (state State, n int, err error) {
	if state, err = d.DecodeHead(buf); state != Completed {
		return state, 0, err
	}

	return d.DecodeBody(buf)
}

// DecodeHead decodes the request line and the header fields. Completed means the body
// phase can be started.
func (d *Decoder) DecodeHead(buf []byte) (State, error) {
	switch d.state {
	case eDone:
		d.Reset()
	case eBody:
		return Completed, nil
	case eError:
		return Error, d.err
	}

	done, err := d.head.scan(buf, d.requestLine)
	if err != nil {
		return d.fail(err)
	}

	if !done {
		return Pending, nil
	}

	d.request.Headers = d.head.headers
	f, err := d.head.decideFraming(framingNone)
	if err != nil {
		return d.fail(err)
	}

	if err = d.body.reset(f, d.head.contentLength, d.head.offset); err != nil {
		return d.fail(err)
	}

	d.state = eBody
	return Completed, nil
}

// DecodeBody continues with the body. It must be called only after the head is completed.
func (d *Decoder) DecodeBody(buf []byte) (State, int, error) {
	switch d.state {
	case eHead:
		return Pending, 0, nil
	case eDone:
		return Completed, d.body.offset, nil
	case eError:
		return Error, 0, d.err
	}

	done, err := d.body.decode(buf)
	if err != nil {
		state, perr := d.fail(err)
		return state, 0, perr
	}

	if !done {
		return Pending, 0, nil
	}

	d.request.Body = d.body.data
	d.state = eDone
	return Completed, d.body.offset, nil
}

// Request returns the request being decoded. It's complete only after Completed was
// returned, and a new instance is allocated for every message.
func (d *Decoder) Request() *http.Request {
	return d.request
}

// HeadCompleted tells whether the decoder is in the body phase or past it.
func (d *Decoder) HeadCompleted() bool {
	return d.state == eBody || d.state == eDone
}

// Reset discards the message in progress, so the decoder can start from scratch.
func (d *Decoder) Reset() {
	d.state = eHead
	d.err = nil
	d.head.reset()
	d.request = http.NewRequest(0)
}

func (d *Decoder) fail(err *ParseError) (State, error) {
	d.state = eError
	d.err = err
	return Error, err
}

func (d *Decoder) requestLine(line []byte) *ParseError {
	sp := bytes.IndexByte(line, ' ')
	if sp <= 0 {
		return newError(MalformedRequestLine, "")
	}

	token, rest := line[:sp], line[sp+1:]
	if sp = bytes.IndexByte(rest, ' '); sp <= 0 {
		return newError(MalformedRequestLine, "")
	}

	target, version := rest[:sp], rest[sp+1:]

	if !method.IsToken(uf.B2S(token)) {
		return newError(MalformedRequestLine, "bad method")
	}

	for _, char := range target {
		if char <= ' ' || char == 0x7f {
			return newError(MalformedRequestLine, "bad request target")
		}
	}

	if !proto.WellFormed(version) {
		return newError(MalformedRequestLine, "bad protocol")
	}

	protocol := proto.FromBytes(version)
	if protocol == proto.Unknown {
		return newError(UnsupportedVersion, string(version))
	}

	d.request.MethodToken = string(token)
	d.request.Method = method.Parse(d.request.MethodToken)
	d.request.SetTarget(string(target))
	d.request.Protocol = protocol

	return nil
}
