// jdbhttpd is a small HTTP/1.0 server. It sends static files from its
// document root, and runs executable files (and anything requested with a
// query string or by POST) as CGI programs.
package main

import (
	"fmt"
	"log"
	"net"
	"os"

	"golang.org/x/sync/errgroup"
)

func main() {
	args := os.Args[1:]
	conf, err := loadConfiguration(args)
	if err != nil {
		log.Fatal(err)
	}

	if conf.PIDFile != "" {
		pid := os.Getpid()
		f, err := os.Create(conf.PIDFile)
		if err == nil {
			fmt.Fprintln(f, pid)
			f.Close()
		} else {
			log.Println("could not create pidfile:", err)
		}
	}

	ln, err := listen(conf.Port)
	if err != nil {
		log.Fatalf("error listening for connections on port %d: %s", conf.Port, err)
	}
	port := conf.Port
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	fmt.Printf("httpd running on port %d\n", port)

	go manageConfig(conf, args, ln)

	g := new(errgroup.Group)
	if conf.MaxConnections > 0 {
		g.SetLimit(conf.MaxConnections)
	}

	if err := serve(ln, g, getConfig); err != nil {
		log.Fatalln("Error accepting connections:", err)
	}

	conf = getConfig()
	grace := conf.ShutdownGrace
	conf.release()

	if !waitForConnections(g, grace) {
		os.Exit(1)
	}
}
