package main

import (
	"bufio"
	"errors"
	"io"
	"log"
	"net"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"
)

// An exchange is one request and its response, on its own connection.
type exchange struct {
	conn net.Conn
	r    *bufio.Reader
	w    *countingWriter

	start time.Time

	// For the access log:
	method string
	url    string
	kind   string
	status int
}

func newExchange(conn net.Conn) *exchange {
	return &exchange{
		conn:  conn,
		r:     bufio.NewReader(conn),
		w:     &countingWriter{w: conn},
		start: time.Now(),
		kind:  "error",
	}
}

// respond sends one of the canned status pages. Write errors mean the client
// has gone away, and there is nothing more to do about them.
func (ex *exchange) respond(status int) {
	ex.status = status
	writeStatusPage(ex.w, status)
}

// Limits on reading what is left of a rejected request.
const (
	maxDiscard     = 64 << 10
	discardTimeout = time.Second
)

// reject sends a canned error page for a request that was not read to the
// end, and then reads and discards (up to a limit) what the client is still
// sending. Closing a socket with unread data resets the connection, and the
// client may lose the response.
func (ex *exchange) reject(status int) {
	ex.respond(status)
	if cw, ok := ex.conn.(interface{ CloseWrite() error }); ok {
		cw.CloseWrite()
	}
	ex.conn.SetReadDeadline(time.Now().Add(discardTimeout))
	io.CopyN(io.Discard, ex.r, maxDiscard)
}

func (ex *exchange) clientIP() string {
	client := ex.conn.RemoteAddr().String()
	if host, _, err := net.SplitHostPort(client); err == nil {
		client = host
	}
	return client
}

// A countingWriter keeps track of how many bytes have been written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// serveConn handles the request on conn, and closes it.
func (c *config) serveConn(conn net.Conn) {
	ex := newExchange(conn)
	defer func() {
		if err := recover(); err != nil {
			log.Printf("Panic while serving request from %s: %v\n%s", conn.RemoteAddr(), err, debug.Stack())
		}
		conn.Close()
		c.logAccess(ex)
	}()

	c.dispatch(ex)
}

// dispatch reads the request line, and sends the request on to be served as
// a static file or by running a CGI program.
func (c *config) dispatch(ex *exchange) {
	line, err := readLine(ex.r)
	if err == errLineTooLong {
		ex.reject(400)
		return
	}

	methodName, rawURL := splitRequestLine(line)
	ex.method, ex.url = methodName, rawURL

	m := parseMethod(methodName)
	if m == methodOther {
		ex.respond(501)
		return
	}

	if rawURL == "" || len(rawURL) > maxURLLength {
		ex.reject(400)
		return
	}

	req, err := c.newRequest(m, rawURL)
	if err != nil {
		drainHeaders(ex.r)
		ex.respond(404)
		return
	}

	if req.Dynamic {
		ex.kind = "cgi"
		c.executeCGI(ex, req)
	} else {
		ex.kind = "static"
		c.serveStatic(ex, req)
	}
}

// serve accepts connections on ln, and handles each one in a goroutine
// started by g. (If g has a limit set, serve waits for a free slot before
// accepting the next connection.) getConfig is called to get the
// configuration for each connection, which is released when the connection
// is done.
//
// When ln is closed, serve returns nil; the caller should then wait on g for
// the active connections to finish.
func serve(ln net.Listener, g *errgroup.Group, getConfig func() *config) error {
	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			if isTemporaryAcceptError(err) {
				delay = acceptDelay(delay)
				log.Printf("Error accepting connection: %v; retrying in %v", err, delay)
				time.Sleep(delay)
				continue
			}
			return err
		}
		delay = 0

		conf := getConfig()
		g.Go(func() error {
			defer conf.release()
			conf.serveConn(conn)
			return nil
		})
	}
}

// acceptDelay returns how long to wait before trying again after an accept
// error, doubling each time up to one second.
func acceptDelay(previous time.Duration) time.Duration {
	if previous == 0 {
		return 5 * time.Millisecond
	}
	if previous *= 2; previous > time.Second {
		previous = time.Second
	}
	return previous
}
