package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Running CGI programs.

// A cgiJob is the information needed to run a CGI program for one request.
type cgiJob struct {
	Path        string
	Method      method
	QueryString string

	// ContentLength is the length of the request body. It is only used for
	// POST requests.
	ContentLength int64
}

// env returns the environment for the CGI program: the server's own
// environment, plus REQUEST_METHOD and either QUERY_STRING or
// CONTENT_LENGTH. Any of those three that the server inherited are left out.
func (j *cgiJob) env() []string {
	var env []string
	for _, kv := range os.Environ() {
		switch name, _, _ := strings.Cut(kv, "="); name {
		case "REQUEST_METHOD", "QUERY_STRING", "CONTENT_LENGTH":
			continue
		}
		env = append(env, kv)
	}

	env = append(env, "REQUEST_METHOD="+j.Method.String())
	if j.Method == methodGet {
		env = append(env, "QUERY_STRING="+j.QueryString)
	} else {
		env = append(env, "CONTENT_LENGTH="+strconv.FormatInt(j.ContentLength, 10))
	}
	return env
}

// executeCGI reads the rest of the request's header block, and runs the
// program req refers to.
func (c *config) executeCGI(ex *exchange, req *request) {
	h, err := drainHeaders(ex.r)
	if err == errLineTooLong || req.Method == methodPost && (err != nil || h.ContentLength < 0) {
		ex.reject(400)
		return
	}

	job := &cgiJob{
		Path:          req.Path,
		Method:        req.Method,
		QueryString:   req.QueryString,
		ContentLength: h.ContentLength,
	}
	c.runCGI(ex, job)
}

// runCGI starts the program for job, with pipes connected to its standard
// input and output. It sends the POST body (if any) to the program's
// input, and copies its output to the client. Then it waits for the program
// to exit.
func (c *config) runCGI(ex *exchange, job *cgiJob) {
	outR, outW, err := os.Pipe()
	if err != nil {
		log.Printf("Error creating output pipe for %s: %v", job.Path, err)
		ex.respond(500)
		return
	}
	defer outR.Close()

	inR, inW, err := os.Pipe()
	if err != nil {
		outW.Close()
		log.Printf("Error creating input pipe for %s: %v", job.Path, err)
		ex.respond(500)
		return
	}

	ctx := context.Background()
	if c.CGITimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.CGITimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, executablePath(job.Path))
	killProcessGroup(cmd)
	cmd.Env = job.env()
	cmd.Stdin = inR
	cmd.Stdout = outW
	cmd.Stderr = os.Stderr

	err = cmd.Start()

	// The child has its own copies of these now (if it started). The parent
	// must not keep them open, or it would never see EOF on the output pipe.
	inR.Close()
	outW.Close()

	if err != nil {
		inW.Close()
		log.Printf("Error starting CGI program %s: %v", job.Path, err)
		ex.respond(500)
		return
	}

	if c.CGITimeout > 0 {
		// Anything the program left running may still hold the output pipe
		// open; stop reading when the time is up regardless.
		stop := context.AfterFunc(ctx, func() {
			outR.SetReadDeadline(time.Now())
		})
		defer stop()
	}

	ex.status = 200
	writeCGIStatus(ex.w)

	// Forward the body in its own goroutine, so that a program that writes
	// output before it has read all its input doesn't block forever.
	bodyDone := make(chan error, 1)
	go func() {
		defer inW.Close()
		if job.Method != methodPost || job.ContentLength == 0 {
			bodyDone <- nil
			return
		}
		_, err := io.CopyN(inW, ex.r, job.ContentLength)
		bodyDone <- err
	}()

	if _, err := io.Copy(ex.w, outR); err != nil && ctx.Err() == nil {
		log.Printf("Error sending output of %s to %s: %v", job.Path, ex.clientIP(), err)
	}
	outR.Close()

	waitErr := cmd.Wait()

	var bodyErr error
	select {
	case bodyErr = <-bodyDone:
	default:
		// The forwarder is still waiting for the client to send the rest of
		// the body; the program is gone, so stop waiting.
		ex.conn.SetReadDeadline(time.Now())
		bodyErr = <-bodyDone
	}
	if bodyErr != nil {
		log.Printf("Error sending request body to %s: %v", job.Path, bodyErr)
	}

	if waitErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			log.Printf("CGI program %s killed after running for %v", job.Path, c.CGITimeout)
			return
		}
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			log.Printf("Error waiting for CGI program %s: %v", job.Path, waitErr)
		}
	}
}

// executablePath makes sure that p will be run as a file path, rather than
// looked up in $PATH.
func executablePath(p string) string {
	if strings.ContainsRune(p, filepath.Separator) {
		return p
	}
	return "." + string(filepath.Separator) + p
}
