package main

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"
)

// Canned responses for errors, and the header block for static files.

const serverString = "Server: jdbhttpd/0.1.0\r\n"

type statusPage struct {
	statusLine string
	body       string
}

var statusPages = map[int]statusPage{
	400: {
		statusLine: "HTTP/1.0 400 BAD REQUEST\r\n",
		body: "<P>Your browser sent a bad request, " +
			"such as a POST without a Content-Length.\r\n",
	},
	404: {
		statusLine: "HTTP/1.0 404 NOT FOUND\r\n",
		body: "<HTML><TITLE>Not Found</TITLE>\r\n" +
			"<BODY><P>The server could not fulfill\r\n" +
			"your request because the resource specified\r\n" +
			"is unavailable or nonexistent.\r\n" +
			"</BODY></HTML>\r\n",
	},
	500: {
		statusLine: "HTTP/1.0 500 Internal Server Error\r\n",
		body:       "<P>Error prohibited CGI execution.\r\n",
	},
	501: {
		statusLine: "HTTP/1.0 501 Method Not Implemented\r\n",
		body: "<HTML><HEAD><TITLE>Method Not Implemented\r\n" +
			"</TITLE></HEAD>\r\n" +
			"<BODY><P>HTTP request method not supported.\r\n" +
			"</BODY></HTML>\r\n",
	},
}

// writeStatusPage writes the complete canned response for status, which must
// be one of the codes in statusPages.
func writeStatusPage(w io.Writer, status int) error {
	page, ok := statusPages[status]
	if !ok {
		page = statusPages[500]
	}
	bw := bufio.NewWriter(w)
	bw.WriteString(page.statusLine)
	bw.WriteString(serverString)
	bw.WriteString("Content-Type: text/html\r\n")
	bw.WriteString("\r\n")
	bw.WriteString(page.body)
	return bw.Flush()
}

// writeHeaders writes the status line and headers for a successful static
// file response. If encoding is not empty, a Content-Encoding header is
// included.
func writeHeaders(w io.Writer, filename, encoding string) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("HTTP/1.0 200 OK\r\n")
	bw.WriteString(serverString)
	bw.WriteString("Content-Type: " + contentType(filename) + "\r\n")
	if encoding != "" {
		bw.WriteString("Content-Encoding: " + encoding + "\r\n")
	}
	bw.WriteString("\r\n")
	return bw.Flush()
}

// writeCGIStatus writes the status line that precedes a CGI program's
// output. The program's own headers (if any) follow it unchanged.
func writeCGIStatus(w io.Writer) error {
	_, err := io.WriteString(w, "HTTP/1.0 200 OK\r\n")
	return err
}

// contentType returns "text/" followed by everything after the first dot in
// the file's name. It doesn't consult a MIME table.
func contentType(filename string) string {
	name := filepath.Base(filename)
	dot := strings.IndexByte(name, '.')
	if dot == -1 {
		return "text/plain"
	}
	return "text/" + name[dot+1:]
}
