package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"index.html":             "text/html",
		"/srv/www/notes.txt":     "text/txt",
		"archive.tar.gz":         "text/tar.gz",
		"README":                 "text/plain",
		"/srv/www.d/README":      "text/plain",
		".profile":               "text/profile",
		"/srv/www/cgi-bin/query": "text/plain",
	}
	for name, want := range tests {
		if got := contentType(name); got != want {
			t.Errorf("contentType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestWriteStatusPage(t *testing.T) {
	for status, page := range statusPages {
		buf := new(bytes.Buffer)
		if err := writeStatusPage(buf, status); err != nil {
			t.Fatal(err)
		}
		want := page.statusLine + serverString + "Content-Type: text/html\r\n\r\n" + page.body
		if buf.String() != want {
			t.Errorf("%d: got %q, want %q", status, buf.String(), want)
		}
	}

	buf := new(bytes.Buffer)
	writeStatusPage(buf, 418)
	if !strings.HasPrefix(buf.String(), "HTTP/1.0 500 ") {
		t.Errorf("unknown status: got %q, want a 500 page", buf.String())
	}
}

func TestWriteHeaders(t *testing.T) {
	buf := new(bytes.Buffer)
	writeHeaders(buf, "/srv/www/style.css", "")
	if want := "HTTP/1.0 200 OK\r\nServer: jdbhttpd/0.1.0\r\nContent-Type: text/css\r\n\r\n"; buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	writeHeaders(buf, "/srv/www/index.html", "br")
	if want := "HTTP/1.0 200 OK\r\nServer: jdbhttpd/0.1.0\r\nContent-Type: text/html\r\nContent-Encoding: br\r\n\r\n"; buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
