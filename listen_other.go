//go:build !unix

package main

import (
	"net"
	"strconv"
)

func listen(port int) (net.Listener, error) {
	return net.Listen("tcp", ":"+strconv.Itoa(port))
}

func isTemporaryAcceptError(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
