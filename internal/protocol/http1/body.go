package http1

import (
	"io"
)

// body collects the payload of a message according to its framing.
type body struct {
	framing framing
	length  int64
	chunked chunkedParser
	start   int
	offset  int
	data    []byte
	maxSize int64
	// maxRaw bounds the chunked stream on the wire, extensions and trailers included.
	maxRaw int64
}

func newBody(maxSize int64, headersMaxSize int) body {
	return body{
		chunked: newChunkedParser(),
		maxSize: maxSize,
		maxRaw:  2*maxSize + int64(headersMaxSize),
	}
}

func (b *body) reset(f framing, length int64, start int) *ParseError {
	b.framing = f
	b.length = length
	b.chunked.reset()
	b.start = start
	b.offset = start
	b.data = nil

	if f == framingLength && length > b.maxSize {
		return newError(BodyTooLarge, "")
	}

	return nil
}

// decode returns true when the body is complete. b.offset then points right after it.
func (b *body) decode(buf []byte) (done bool, err *ParseError) {
	switch b.framing {
	case framingNone:
		return true, nil
	case framingLength:
		if int64(len(buf)-b.start) < b.length {
			return false, nil
		}

		b.offset = b.start + int(b.length)
		if b.length > 0 {
			b.data = append(make([]byte, 0, b.length), buf[b.start:b.offset]...)
		}

		return true, nil
	case framingChunked:
		data := buf[b.offset:]
		for len(data) > 0 {
			chunk, extra, perr := b.chunked.Parse(data)
			switch perr {
			case nil:
			case io.EOF:
				b.offset = len(buf) - len(extra)
				return true, nil
			default:
				return false, newError(MalformedChunk, "")
			}

			b.data = append(b.data, chunk...)
			if int64(len(b.data)) > b.maxSize {
				return false, newError(BodyTooLarge, "")
			}

			data = extra
		}

		b.offset = len(buf)
		if int64(b.offset-b.start) > b.maxRaw {
			return false, newError(BodyTooLarge, "")
		}

		return false, nil
	case framingUntilClose:
		if int64(len(buf)-b.start) > b.maxSize {
			return false, newError(BodyTooLarge, "")
		}

		return false, nil
	default:
		panic("unreachable code")
	}
}

// finish completes a body delimited by the connection close.
func (b *body) finish(buf []byte) (done bool, err *ParseError) {
	if b.framing != framingUntilClose {
		return false, nil
	}

	if int64(len(buf)-b.start) > b.maxSize {
		return false, newError(BodyTooLarge, "")
	}

	b.offset = len(buf)
	if b.offset > b.start {
		b.data = append([]byte(nil), buf[b.start:]...)
	}

	return true, nil
}
