package main

import (
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

// waitForConnections waits for the connections being handled by g to
// finish, for at most grace. It reports whether they all finished.
func waitForConnections(g *errgroup.Group, grace time.Duration) bool {
	done := make(chan struct{})
	go func() {
		g.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(grace):
		log.Printf("Gave up waiting for active connections after %v", grace)
		return false
	}
}
