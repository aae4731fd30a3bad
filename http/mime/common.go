package mime

import (
	"strings"
)

type MIME = string

const (
	OctetStream    MIME = "application/octet-stream"
	Plain          MIME = "text/plain"
	HTML           MIME = "text/html"
	JSON           MIME = "application/json"
	FormUrlencoded MIME = "application/x-www-form-urlencoded"
)

// Complies returns whether the Content-Type value denotes the MIME. Parameters, like
// charset, are ignored. Empty value is considered compatible with any MIME
func Complies(mime MIME, with string) bool {
	with, _, _ = strings.Cut(with, ";")
	with = strings.TrimSpace(with)

	return len(with) == 0 || strings.EqualFold(with, mime)
}

// WithUTF8 appends the UTF-8 charset parameter.
func WithUTF8(mime MIME) string {
	return mime + "; charset=utf-8"
}
