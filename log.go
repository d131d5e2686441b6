package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// recording requests in the access log

// A CSVLog writes records to a CSV file.
type CSVLog struct {
	lock sync.Mutex
	file *os.File
	csv  *csv.Writer
}

// NewCSVLog opens filename for appending and returns a CSVLog that writes to
// it. If filename is empty, or can't be opened, the log goes to standard
// output instead.
func NewCSVLog(filename string) *CSVLog {
	l := new(CSVLog)

	if filename != "" {
		logfile, err := os.OpenFile(filename, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err == nil {
			l.file = logfile
			l.csv = csv.NewWriter(logfile)
			return l
		}
		log.Printf("Could not open log file (%s): %s\n Sending log messages to standard output instead.", filename, err)
	}

	l.csv = csv.NewWriter(os.Stdout)
	return l
}

// Log writes one record. It is safe to call from multiple goroutines, and it
// does nothing after the log has been closed.
func (l *CSVLog) Log(data []string) {
	if l == nil {
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.csv == nil {
		return
	}
	l.csv.Write(data)
	l.csv.Flush()
}

func (l *CSVLog) Close() {
	if l == nil {
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.csv != nil {
		l.csv.Flush()
	}
	if l.file != nil {
		l.file.Close()
	}
	l.file = nil
	l.csv = nil
}

// logAccess generates an access-log entry for ex.
func (c *config) logAccess(ex *exchange) {
	if c.accessLog == nil {
		return
	}

	client := ex.clientIP()
	if c.LogHostnames {
		if name := c.lookupHostname(client); name != "" {
			client = name
		}
	}

	c.accessLog.Log(toStrings(ex.start.Format("2006-01-02 15:04:05"), client, ex.method, ex.url, ex.kind, ex.status, ex.w.n, time.Since(ex.start).Round(time.Millisecond)))
}

// toStrings converts its arguments into a slice of strings.
func toStrings(a ...interface{}) []string {
	result := make([]string, len(a))
	for i, x := range a {
		result[i] = fmt.Sprint(x)
	}
	return result
}
