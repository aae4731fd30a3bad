package http1

import (
	"bytes"
	"errors"
	"io"
)

type chunkedParserState uint8

const (
	eChunkLength chunkedParserState = iota
	eChunkExt
	eChunkLengthLF
	eChunkBody
	eChunkBodyCR
	eChunkBodyLF
	eChunkTrailer
	eChunkTrailerLF
	eChunkTrailerFieldLine
	eChunkTrailerFieldLineLF
)

// maxChunkLengthDigits keeps the chunk length within int64.
const maxChunkLengthDigits = 15

var errBadChunk = errors.New("malformed chunked body")

type chunkedParser struct {
	state        chunkedParserState
	lengthDigits uint8
	chunkLength  uint64
}

func newChunkedParser() chunkedParser {
	return chunkedParser{state: eChunkLength}
}

// Parse returns a chunk when it's ready, nil otherwise. io.EOF signals that the body
// is complete. The parser resets automatically. Every line must be terminated by CRLF,
// chunk extensions and trailer fields are skipped.
func (c *chunkedParser) Parse(data []byte) (chunk, extra []byte, err error) {
	switch c.state {
	case eChunkLength:
		goto chunkLength
	case eChunkExt:
		goto chunkExt
	case eChunkLengthLF:
		goto chunkLengthLF
	case eChunkBody:
		goto chunkBody
	case eChunkBodyCR:
		goto chunkBodyCR
	case eChunkBodyLF:
		goto chunkBodyLF
	case eChunkTrailer:
		goto trailer
	case eChunkTrailerLF:
		goto trailerLF
	case eChunkTrailerFieldLine:
		goto trailerFieldLine
	case eChunkTrailerFieldLineLF:
		goto trailerFieldLineLF
	default:
		panic("unreachable code")
	}

chunkLength:
	for i := 0; i < len(data); i++ {
		switch char := data[i]; char {
		case '\r':
			if c.lengthDigits == 0 {
				return nil, nil, errBadChunk
			}

			data = data[i+1:]
			goto chunkLengthLF
		case ';', ' ', '\t':
			if c.lengthDigits == 0 {
				return nil, nil, errBadChunk
			}

			data = data[i+1:]
			goto chunkExt
		default:
			val, ok := unhex(char)
			if !ok {
				return nil, nil, errBadChunk
			}

			c.chunkLength = (c.chunkLength << 4) | uint64(val)
			if c.lengthDigits++; c.lengthDigits > maxChunkLengthDigits {
				return nil, nil, errBadChunk
			}
		}
	}

	c.state = eChunkLength
	return nil, nil, nil

chunkExt:
	{
		boundary := bytes.IndexByte(data, '\r')
		if boundary == -1 {
			if bytes.IndexByte(data, '\n') != -1 {
				return nil, nil, errBadChunk
			}

			c.state = eChunkExt
			return nil, nil, nil
		}

		if bytes.IndexByte(data[:boundary], '\n') != -1 {
			return nil, nil, errBadChunk
		}

		data = data[boundary+1:]
		goto chunkLengthLF
	}

chunkLengthLF:
	if len(data) == 0 {
		c.state = eChunkLengthLF
		return nil, nil, nil
	}

	if data[0] != '\n' {
		return nil, nil, errBadChunk
	}

	data = data[1:]

	if c.chunkLength == 0 {
		goto trailer
	}

	goto chunkBody

chunkBody:
	{
		if len(data) == 0 {
			c.state = eChunkBody
			return nil, nil, nil
		}

		n := min(c.chunkLength, uint64(len(data)))
		c.chunkLength -= n
		chunk = data[:n]

		if c.chunkLength == 0 {
			c.state = eChunkBodyCR
		} else {
			c.state = eChunkBody
		}

		return chunk, data[n:], nil
	}

chunkBodyCR:
	if len(data) == 0 {
		c.state = eChunkBodyCR
		return nil, nil, nil
	}

	if data[0] != '\r' {
		return nil, nil, errBadChunk
	}

	data = data[1:]
	// fallthrough to chunkBodyLF

chunkBodyLF:
	if len(data) == 0 {
		c.state = eChunkBodyLF
		return nil, nil, nil
	}

	if data[0] != '\n' {
		return nil, nil, errBadChunk
	}

	data = data[1:]
	c.lengthDigits = 0
	goto chunkLength

trailer:
	if len(data) == 0 {
		c.state = eChunkTrailer
		return nil, nil, nil
	}

	switch data[0] {
	case '\r':
		data = data[1:]
		goto trailerLF
	case '\n':
		return nil, nil, errBadChunk
	default:
		// we've got some field lines
		goto trailerFieldLine
	}

trailerLF:
	if len(data) == 0 {
		c.state = eChunkTrailerLF
		return nil, nil, nil
	}

	if data[0] != '\n' {
		return nil, nil, errBadChunk
	}

	c.reset()
	return nil, data[1:], io.EOF

trailerFieldLine:
	{
		boundary := bytes.IndexByte(data, '\r')
		if boundary == -1 {
			if bytes.IndexByte(data, '\n') != -1 {
				return nil, nil, errBadChunk
			}

			c.state = eChunkTrailerFieldLine
			return nil, nil, nil
		}

		if bytes.IndexByte(data[:boundary], '\n') != -1 {
			return nil, nil, errBadChunk
		}

		data = data[boundary+1:]
	}
	// fallthrough to trailerFieldLineLF

trailerFieldLineLF:
	if len(data) == 0 {
		c.state = eChunkTrailerFieldLineLF
		return nil, nil, nil
	}

	if data[0] != '\n' {
		return nil, nil, errBadChunk
	}

	data = data[1:]
	goto trailer
}

func (c *chunkedParser) reset() {
	*c = newChunkedParser()
}

func unhex(char byte) (byte, bool) {
	switch {
	case char >= '0' && char <= '9':
		return char - '0', true
	case char >= 'a' && char <= 'f':
		return char - 'a' + 10, true
	case char >= 'A' && char <= 'F':
		return char - 'A' + 10, true
	default:
		return 0, false
	}
}
