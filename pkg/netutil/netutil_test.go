package netutil

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"
)

func TestProbeTCP(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()

	_, portStr, _ := net.SplitHostPort(l.Addr().String())
	port, _ := strconv.Atoi(portStr)

	if err := ProbeTCP(context.Background(), "127.0.0.1", port, time.Second); err != nil {
		t.Errorf("probe of live listener failed: %v", err)
	}

	free, err := FreePort()
	if err != nil {
		t.Fatalf("free port: %v", err)
	}
	if err := ProbeTCP(context.Background(), "127.0.0.1", free, 200*time.Millisecond); err == nil {
		t.Error("probe of closed port should fail")
	}
}

func TestCIDRHosts(t *testing.T) {
	tests := []struct {
		cidr  string
		count int
		first string
		last  string
	}{
		{"192.168.1.0/30", 2, "192.168.1.1", "192.168.1.2"},
		{"192.168.1.0/29", 6, "192.168.1.1", "192.168.1.6"},
		{"10.0.0.5/32", 1, "10.0.0.5", "10.0.0.5"},
	}
	for _, tt := range tests {
		hosts, err := CIDRHosts(tt.cidr)
		if err != nil {
			t.Fatalf("%s: %v", tt.cidr, err)
		}
		if len(hosts) != tt.count {
			t.Errorf("%s: got %d hosts, want %d", tt.cidr, len(hosts), tt.count)
			continue
		}
		if hosts[0] != tt.first || hosts[len(hosts)-1] != tt.last {
			t.Errorf("%s: range %s..%s, want %s..%s",
				tt.cidr, hosts[0], hosts[len(hosts)-1], tt.first, tt.last)
		}
	}

	if _, err := CIDRHosts("not-a-cidr"); err == nil {
		t.Error("invalid CIDR should error")
	}
}

func TestCIDRHostsSweepSize(t *testing.T) {
	hosts, err := CIDRHosts("192.168.1.0/24")
	if err != nil {
		t.Fatal(err)
	}
	if len(hosts) != 254 {
		t.Errorf("/24 should yield 254 usable hosts, got %d", len(hosts))
	}
}

func TestSplitHostPort(t *testing.T) {
	host, port, err := SplitHostPort("nas.local:2222", 22)
	if err != nil || host != "nas.local" || port != "2222" {
		t.Errorf("got %s:%s err=%v", host, port, err)
	}

	host, port, err = SplitHostPort("nas.local", 22)
	if err != nil || host != "nas.local" || port != "22" {
		t.Errorf("default port: got %s:%s err=%v", host, port, err)
	}
}

func TestFirstNonLoopbackAddr(t *testing.T) {
	addr := FirstNonLoopbackAddr()
	if addr == "" {
		t.Error("must never return empty")
	}
	if addr != "localhost" {
		if ip := net.ParseIP(addr); ip == nil || ip.IsLoopback() {
			t.Errorf("got %q, want a non-loopback address or localhost", addr)
		}
	}
}
