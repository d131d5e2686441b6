package main

import (
	"bufio"
	"bytes"
	"errors"
	"strconv"
)

var errBadContentLength = errors.New("invalid Content-Length header")

// requestHeaders holds the few header values the server pays attention to.
// Everything else in the header block is read and thrown away.
type requestHeaders struct {
	// ContentLength is the value of the last Content-Length header, or -1 if
	// there was none.
	ContentLength int64

	// badContentLength is set if the last Content-Length header could not
	// be parsed.
	badContentLength bool

	AcceptEncoding string
}

var (
	contentLengthPrefix  = []byte("Content-Length:")
	acceptEncodingPrefix = []byte("Accept-Encoding:")
)

// hasHeaderPrefix reports whether line starts with the header name prefix
// (including its colon), ignoring case.
func hasHeaderPrefix(line, prefix []byte) bool {
	return len(line) >= len(prefix) && bytes.EqualFold(line[:len(prefix)], prefix)
}

// drainHeaders reads the rest of the request's header block, up to and
// including the blank line that ends it (or until the connection closes).
func drainHeaders(r *bufio.Reader) (h requestHeaders, err error) {
	h.ContentLength = -1

	for {
		line, err := readLine(r)
		if err == errLineTooLong {
			return h, err
		}
		if err != nil || len(line) == 0 {
			break
		}

		switch {
		case hasHeaderPrefix(line, contentLengthPrefix):
			n, err := strconv.ParseInt(string(bytes.TrimSpace(line[len(contentLengthPrefix):])), 10, 64)
			if err != nil || n < 0 {
				h.ContentLength = -1
				h.badContentLength = true
				continue
			}
			h.ContentLength = n
			h.badContentLength = false

		case hasHeaderPrefix(line, acceptEncodingPrefix):
			h.AcceptEncoding = string(bytes.TrimSpace(line[len(acceptEncodingPrefix):]))
		}
	}

	if h.badContentLength {
		return h, errBadContentLength
	}
	return h, nil
}
