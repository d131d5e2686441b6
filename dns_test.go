package main

import (
	"net"
	"testing"

	"github.com/miekg/dns"
)

// startDNSServer starts a DNS server on a local UDP port that answers PTR
// queries from names. It returns the server's address.
func startDNSServer(t *testing.T, names map[string]string) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	mux := dns.NewServeMux()
	mux.HandleFunc("arpa.", func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		q := r.Question[0]
		if name, ok := names[q.Name]; ok && q.Qtype == dns.TypePTR {
			m.Answer = append(m.Answer, &dns.PTR{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypePTR, Class: dns.ClassINET, Ttl: 60},
				Ptr: name,
			})
		} else {
			m.Rcode = dns.RcodeNameError
		}
		w.WriteMsg(m)
	})

	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pc,
		Handler:           mux,
		NotifyStartedFunc: func() { close(started) },
	}
	go server.ActivateAndServe()
	<-started
	t.Cleanup(func() { server.Shutdown() })

	return pc.LocalAddr().String()
}

func TestLookupHostname(t *testing.T) {
	addr := startDNSServer(t, map[string]string{
		"7.0.0.10.in-addr.arpa.": "workstation.example.com.",
	})
	c := &config{DNSServer: addr}

	if name := c.lookupHostname("10.0.0.7"); name != "workstation.example.com" {
		t.Errorf("got %q, want workstation.example.com", name)
	}
	if name := c.lookupHostname("10.0.0.8"); name != "" {
		t.Errorf("unknown address: got %q, want empty string", name)
	}
	if name := c.lookupHostname("not an address"); name != "" {
		t.Errorf("invalid address: got %q, want empty string", name)
	}
}
