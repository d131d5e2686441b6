package main

import (
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestWaitForConnections(t *testing.T) {
	g := new(errgroup.Group)
	g.Go(func() error {
		time.Sleep(20 * time.Millisecond)
		return nil
	})
	if !waitForConnections(g, 5*time.Second) {
		t.Error("gave up waiting for a connection that finished")
	}

	release := make(chan struct{})
	defer close(release)
	g = new(errgroup.Group)
	g.Go(func() error {
		<-release
		return nil
	})
	start := time.Now()
	if waitForConnections(g, 50*time.Millisecond) {
		t.Error("reported that a stuck connection finished")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("waited %v with a grace period of 50ms", elapsed)
	}
}

func TestAcceptDelay(t *testing.T) {
	var d time.Duration
	var delays []time.Duration
	for i := 0; i < 10; i++ {
		d = acceptDelay(d)
		delays = append(delays, d)
	}
	if delays[0] != 5*time.Millisecond || delays[1] != 10*time.Millisecond {
		t.Errorf("first delays are %v, %v; want 5ms, 10ms", delays[0], delays[1])
	}
	if delays[9] != time.Second {
		t.Errorf("delay after 10 failures is %v, want 1s", delays[9])
	}
}
