package main

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Parsing the request line, and deciding how to handle the request.

// maxURLLength is the longest URL that will be accepted.
const maxURLLength = 254

type method int

const (
	methodOther method = iota
	methodGet
	methodPost
)

func (m method) String() string {
	switch m {
	case methodGet:
		return "GET"
	case methodPost:
		return "POST"
	}
	return "OTHER"
}

// parseMethod recognizes GET and POST, regardless of case.
func parseMethod(s string) method {
	switch {
	case strings.EqualFold(s, "GET"):
		return methodGet
	case strings.EqualFold(s, "POST"):
		return methodPost
	}
	return methodOther
}

// isSpace reports whether c is an ASCII whitespace character.
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// splitRequestLine splits an HTTP request line into the method and the URL.
// The protocol version, if present, is ignored.
func splitRequestLine(line []byte) (method, rawURL string) {
	i := 0
	for i < len(line) && !isSpace(line[i]) {
		i++
	}
	method = string(line[:i])

	for i < len(line) && isSpace(line[i]) {
		i++
	}
	start := i
	for i < len(line) && !isSpace(line[i]) {
		i++
	}
	rawURL = string(line[start:i])

	return method, rawURL
}

// A request is a parsed request line, along with the file it refers to.
type request struct {
	Method method

	// URL is the path part of the URL (without the query string).
	URL string

	QueryString string

	// Path is the file the URL resolves to.
	Path string

	// Dynamic is whether the file should be run as a CGI program rather than
	// sent to the client.
	Dynamic bool
}

var errNotRegularFile = errors.New("not a regular file")

// newRequest builds a request for rawURL, and looks up the file it refers to.
// If the file doesn't exist (or isn't a regular file), it returns an error.
func (c *config) newRequest(m method, rawURL string) (*request, error) {
	req := &request{
		Method:  m,
		URL:     rawURL,
		Dynamic: m == methodPost,
	}

	if m == methodGet {
		if q := strings.IndexByte(rawURL, '?'); q != -1 {
			req.URL, req.QueryString = rawURL[:q], rawURL[q+1:]
			req.Dynamic = true
		}
	}

	req.Path = c.resolvePath(req.URL)

	fi, err := os.Stat(req.Path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		// Directory listings are never produced.
		req.Path = filepath.Join(req.Path, c.IndexFile)
		fi, err = os.Stat(req.Path)
		if err != nil {
			return nil, err
		}
	}
	if !fi.Mode().IsRegular() {
		return nil, errNotRegularFile
	}

	if fi.Mode().Perm()&0111 != 0 {
		// It's an executable file.
		req.Dynamic = true
	}

	return req, nil
}

// resolvePath returns the file that urlPath refers to, under the document
// root. A path ending in a slash refers to the directory's index file.
// ".." elements can't climb above the document root.
func (c *config) resolvePath(urlPath string) string {
	p := path.Clean("/" + urlPath)
	if strings.HasSuffix(urlPath, "/") {
		p = path.Join(p, c.IndexFile)
	}
	return filepath.Join(c.DocumentRoot, filepath.FromSlash(p))
}
