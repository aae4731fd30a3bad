// Package pattern implements a segment tree matching request paths against patterns
// made of static segments and :name captures.
package pattern

import (
	"errors"
	"strings"
)

var (
	ErrNoLeadingSlash = errors.New("pattern must start with a slash")
	ErrEmptyCapture   = errors.New("capture segment must have a name")
	ErrDuplicateName  = errors.New("capture names must be unique within a pattern")
	ErrCaptureInfix   = errors.New("capture must span the whole segment")
)

type Segment struct {
	// Capture is set for :name segments, Value then holds the name.
	Capture bool
	Value   string
}

// Parse splits the pattern into segments. "/a" and "/a/" differ by a trailing empty
// static segment.
func Parse(pattern string) ([]Segment, error) {
	if len(pattern) == 0 || pattern[0] != '/' {
		return nil, ErrNoLeadingSlash
	}

	var segments []Segment
	for _, raw := range strings.Split(pattern[1:], "/") {
		switch {
		case strings.HasPrefix(raw, ":"):
			name := raw[1:]
			if len(name) == 0 {
				return nil, ErrEmptyCapture
			}

			for _, seg := range segments {
				if seg.Capture && seg.Value == name {
					return nil, ErrDuplicateName
				}
			}

			segments = append(segments, Segment{Capture: true, Value: name})
		case strings.IndexByte(raw, ':') != -1:
			return nil, ErrCaptureInfix
		default:
			segments = append(segments, Segment{Value: raw})
		}
	}

	return segments, nil
}

// Shape returns the pattern with capture names erased, so patterns binding the same paths
// have the same shape.
func Shape(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		b.WriteByte('/')
		if seg.Capture {
			b.WriteByte(':')
		} else {
			b.WriteString(seg.Value)
		}
	}

	return b.String()
}

// Names returns the capture names in the order they occur.
func Names(segments []Segment) (names []string) {
	for _, seg := range segments {
		if seg.Capture {
			names = append(names, seg.Value)
		}
	}

	return names
}
