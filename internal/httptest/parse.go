// Package httptest decodes raw server output in tests, independently of the response
// decoder of the codec.
package httptest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/strata/kv"
	"github.com/indigo-web/utils/uf"
)

type Response struct {
	Proto   string
	Code    int
	Status  string
	Headers *kv.Storage
	Body    string
}

// ParseAll splits pipelined responses. Responses without framing headers are considered
// bodiless unless they close the connection, in which case the body lasts till the end.
func ParseAll(raw string) (responses []Response, err error) {
	for len(raw) > 0 {
		var resp Response
		resp, raw, err = Parse(raw)
		if err != nil {
			return responses, err
		}

		responses = append(responses, resp)
	}

	return responses, nil
}

// Parse decodes a single response, returning the rest of the data back.
func Parse(raw string) (resp Response, rest string, err error) {
	var found bool
	resp.Headers = kv.New()

	resp.Proto, raw, found = strings.Cut(raw, " ")
	if !found || len(raw) == 0 {
		return resp, "", fmt.Errorf("bad status line: lacking code and status")
	}

	var (
		code   string
		status string
	)
	status, raw, found = strings.Cut(raw, "\r\n")
	if !found {
		return resp, "", fmt.Errorf("bad response: only status line is presented")
	}

	code, resp.Status, _ = strings.Cut(status, " ")
	resp.Code, err = strconv.Atoi(code)
	if err != nil {
		return resp, "", err
	}

	for {
		var headerLine string
		headerLine, raw, found = strings.Cut(raw, "\r\n")
		if !found {
			return resp, "", fmt.Errorf("bad header line %q: no breaking CRLF", headerLine)
		}

		if len(headerLine) == 0 {
			break
		}

		key, value, found := strings.Cut(headerLine, ": ")
		if !found {
			return resp, "", fmt.Errorf("bad header %q: no value", headerLine)
		}

		resp.Headers.Add(key, value)
	}

	resp.Body, rest, err = processBody(resp, raw)

	return resp, rest, err
}

func processBody(resp Response, data string) (body, rest string, err error) {
	te := resp.Headers.Value("transfer-encoding")
	if len(te) > 0 {
		if te != "chunked" {
			return "", "", fmt.Errorf("httptest: cannot process encodings: %s", te)
		}

		_, hasTrailer := resp.Headers.Get("trailer")

		return processChunkedBody(data, hasTrailer)
	}

	if resp.Headers.Count("content-length") > 1 {
		return "", "", fmt.Errorf("bad response: too many content-lengths")
	}

	if value, found := resp.Headers.Get("content-length"); found {
		length, err := strconv.Atoi(value)
		if err != nil {
			return "", "", err
		}

		if length > len(data) {
			return "", "", fmt.Errorf("bad response: body is shorter than declared (%d < %d)", len(data), length)
		}

		return data[:length], data[length:], nil
	}

	if strings.EqualFold(resp.Headers.Value("connection"), "close") {
		return data, "", nil
	}

	return "", data, nil
}

func processChunkedBody(data string, trailer bool) (body, rest string, err error) {
	var buff []byte
	parser := chunkedbody.NewParser(chunkedbody.DefaultSettings())

	for len(data) > 0 {
		chunk, extra, err := parser.Parse(uf.S2B(data), trailer)
		buff = append(buff, chunk...)
		data = string(extra)

		switch err {
		case nil:
		case io.EOF:
			return string(buff), data, nil
		default:
			return "", "", fmt.Errorf("bad response: bad chunked body: %s", err)
		}
	}

	return "", "", fmt.Errorf("bad response: unterminated chunked body")
}
