package main

import (
	"bufio"
	"errors"
)

// maxLineLength is the size of the line buffer, including room for the
// terminator. Request lines and header lines longer than this are rejected.
const maxLineLength = 1024

var errLineTooLong = errors.New("line too long")

// readLine reads one line from r. A line may end with "\n", "\r\n", or a
// lone "\r"; the terminator is consumed but not returned.
//
// If the stream ends (or fails) in the middle of a line, the partial line is
// returned with a nil error, and the error is reported by the next call.
// That way a truncated request fails later, when it is parsed.
//
// If the line doesn't fit in maxLineLength, readLine returns what it has read
// so far along with errLineTooLong.
func readLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			if len(line) > 0 {
				return line, nil
			}
			return nil, err
		}

		switch c {
		case '\n':
			return line, nil
		case '\r':
			if next, err := r.Peek(1); err == nil && next[0] == '\n' {
				r.ReadByte()
			}
			return line, nil
		}

		if len(line) == maxLineLength-1 {
			return line, errLineTooLong
		}
		line = append(line, c)
	}
}
