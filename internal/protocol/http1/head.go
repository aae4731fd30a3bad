package http1

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/indigo-web/strata/http/method"
	"github.com/indigo-web/strata/kv"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

type framing uint8

const (
	framingNone framing = iota
	framingLength
	framingChunked
	framingUntilClose
)

// head scans the start line and the header fields of a message. Offsets are relative to
// the beginning of the message, so the caller must pass the same prefix on every call.
type head struct {
	maxSize, maxCount int
	prealloc          int
	offset            int
	started           bool
	headers           *kv.Storage
	fields            int

	contentLength    int64
	hasContentLength bool
	hasTE            bool
	chunkedFinal     bool
}

func newHead(maxSize, maxCount, prealloc int) head {
	return head{
		maxSize:  maxSize,
		maxCount: maxCount,
		prealloc: prealloc,
		headers:  kv.NewPrealloc(prealloc),
	}
}

func (h *head) reset() {
	*h = newHead(h.maxSize, h.maxCount, h.prealloc)
}

// scan consumes complete lines. The first non-empty line is handed to startLine. It
// returns true once the empty line terminating the header section was met, h.offset
// pointing right after it.
func (h *head) scan(buf []byte, startLine func([]byte) *ParseError) (done bool, err *ParseError) {
	for {
		rest := buf[h.offset:]
		lf := bytes.IndexByte(rest, '\n')
		if lf == -1 {
			if len(buf) > h.maxSize {
				return false, newError(HeaderTooLarge, "")
			}

			return false, nil
		}

		if h.offset+lf+1 > h.maxSize {
			return false, newError(HeaderTooLarge, "")
		}

		if lf == 0 || rest[lf-1] != '\r' {
			if !h.started {
				return false, newError(MalformedRequestLine, "line must be terminated by CRLF")
			}

			return false, newError(InvalidHeader, "line must be terminated by CRLF")
		}

		line := rest[:lf-1]
		h.offset += lf + 1

		if !h.started {
			if len(line) == 0 {
				// empty lines preceding the start line are ignored
				continue
			}

			if err = startLine(line); err != nil {
				return false, err
			}

			h.started = true
			continue
		}

		if len(line) == 0 {
			return true, nil
		}

		if err = h.field(line); err != nil {
			return false, err
		}
	}
}

func (h *head) field(line []byte) *ParseError {
	if line[0] == ' ' || line[0] == '\t' {
		return newError(InvalidHeader, "obsolete line folding")
	}

	colon := bytes.IndexByte(line, ':')
	if colon <= 0 {
		return newError(InvalidHeader, "missing field name")
	}

	name := line[:colon]
	if !method.IsToken(uf.B2S(name)) {
		return newError(InvalidHeader, "field name must be a token")
	}

	value := trimOWS(line[colon+1:])
	for _, char := range value {
		switch char {
		case '\r', '\n', 0:
			return newError(InvalidHeader, "forbidden character in field value")
		}
	}

	if h.fields++; h.fields > h.maxCount {
		return newError(HeaderTooLarge, "too many header fields")
	}

	key, val := string(name), string(value)
	h.headers.Add(key, val)

	switch {
	case strcomp.EqualFold(key, "content-length"):
		return h.parseContentLength(val)
	case strcomp.EqualFold(key, "transfer-encoding"):
		h.hasTE = true
		h.chunkedFinal = strcomp.EqualFold(lastToken(val), "chunked")
	}

	return nil
}

func (h *head) parseContentLength(value string) *ParseError {
	if len(value) == 0 {
		return newError(InvalidHeader, "empty Content-Length")
	}

	for len(value) > 0 {
		var elem string
		elem, value, _ = strings.Cut(value, ",")
		elem = strings.Trim(elem, " \t")
		if !isDigits(elem) {
			return newError(InvalidHeader, "invalid Content-Length")
		}

		length, err := strconv.ParseInt(elem, 10, 64)
		if err != nil {
			return newError(InvalidHeader, "invalid Content-Length")
		}

		if h.hasContentLength && length != h.contentLength {
			return newError(ConflictingFraming, "conflicting Content-Length values")
		}

		h.contentLength = length
		h.hasContentLength = true
	}

	return nil
}

// decideFraming decides how the body of the message is delimited. A message without any
// framing headers gets fallback.
func (h *head) decideFraming(fallback framing) (framing, *ParseError) {
	switch {
	case h.hasTE && h.hasContentLength:
		return 0, newError(ConflictingFraming, "both Transfer-Encoding and Content-Length are present")
	case h.hasTE:
		if !h.chunkedFinal {
			return 0, newError(ConflictingFraming, "final transfer coding must be chunked")
		}

		return framingChunked, nil
	case h.hasContentLength:
		return framingLength, nil
	default:
		return fallback, nil
	}
}

func trimOWS(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}

	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}

	return b
}

func lastToken(value string) string {
	if comma := strings.LastIndexByte(value, ','); comma != -1 {
		value = value[comma+1:]
	}

	return strings.Trim(value, " \t")
}

func isDigits(str string) bool {
	if len(str) == 0 {
		return false
	}

	for i := 0; i < len(str); i++ {
		if str[i] < '0' || str[i] > '9' {
			return false
		}
	}

	return true
}
