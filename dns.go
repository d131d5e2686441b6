package main

import (
	"errors"
	"log"
	"net"
	"strings"

	"github.com/miekg/dns"
)

// lookupHostname returns the hostname for the IP address addr, or "" if it
// can't be found. If a DNS server is configured, the PTR query is sent
// there; otherwise the system resolver is used.
func (c *config) lookupHostname(addr string) string {
	if c.DNSServer == "" {
		names, err := net.LookupAddr(addr)
		if err != nil {
			var dnsError *net.DNSError
			if !errors.As(err, &dnsError) || !dnsError.IsNotFound {
				log.Printf("Error looking up hostname for %s: %v", addr, err)
			}
			return ""
		}
		if len(names) == 0 {
			return ""
		}
		return strings.TrimSuffix(names[0], ".")
	}

	reverse, err := dns.ReverseAddr(addr)
	if err != nil {
		return ""
	}

	server := c.DNSServer
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}

	m := new(dns.Msg)
	m.SetQuestion(reverse, dns.TypePTR)
	resp, err := dns.Exchange(m, server)
	if err != nil {
		log.Printf("Error looking up hostname for %s on %s: %v", addr, server, err)
		return ""
	}

	for _, a := range resp.Answer {
		if ptr, ok := a.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, ".")
		}
	}
	return ""
}
