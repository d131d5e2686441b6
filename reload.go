package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
)

// support for reloading configuration without restarting the server

var configRequests = make(chan chan *config)

// getConfig returns the current configuration. The caller must call its
// release method when it is done with it.
func getConfig() *config {
	ch := make(chan *config)
	configRequests <- ch
	return <-ch
}

// manageConfig manages the server's configuration, reloading it when SIGHUP
// is received. When SIGTERM (or an interrupt) is received, it closes ln, so
// that no more connections are accepted.
//
// Reloading doesn't change the port the server listens on.
func manageConfig(conf *config, args []string, ln net.Listener) {
	hupChan := make(chan os.Signal, 1)
	signal.Notify(hupChan, syscall.SIGHUP)

	termChan := make(chan os.Signal, 1)
	signal.Notify(termChan, syscall.SIGTERM, os.Interrupt)

	for {
		select {
		case req := <-configRequests:
			conf.acquire()
			req <- conf

		case <-hupChan:
			log.Println("Received SIGHUP")
			newConf, err := loadConfiguration(args)
			if err != nil {
				log.Println("Error reloading configuration:", err)
				break
			}
			old := conf
			conf = newConf
			old.retire()
			log.Println("Reloaded configuration")

		case sig := <-termChan:
			log.Println("Received", sig)
			ln.Close()
			if conf.PIDFile != "" {
				os.Remove(conf.PIDFile)
			}
		}
	}
}

// acquire records that a connection is using c.
func (c *config) acquire() {
	c.refLock.Lock()
	c.users++
	c.refLock.Unlock()
}

// release records that a connection is done with c. If c has been replaced
// and this was its last user, c is closed.
func (c *config) release() {
	c.refLock.Lock()
	c.users--
	done := c.retired && c.users == 0
	c.refLock.Unlock()

	if done {
		c.close()
	}
}

// retire marks c as replaced by a newer configuration. It is closed as soon
// as no connections are using it.
func (c *config) retire() {
	c.refLock.Lock()
	c.retired = true
	done := c.users == 0
	c.refLock.Unlock()

	if done {
		c.close()
	}
}
