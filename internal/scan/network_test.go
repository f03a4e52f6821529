package scan

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/autodoc-sh/autodoc/internal/core/logger"
)

func TestNetworkScanFindsListener(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	s := NewNetworkScanner([]string{"127.0.0.1/32"}, []int{port}, logger.Discard())
	result, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if result.HostsFound != 1 {
		t.Fatalf("hosts_found = %d, want 1", result.HostsFound)
	}
	host := result.Hosts[0]
	if host.IP != "127.0.0.1" {
		t.Errorf("ip = %q", host.IP)
	}
	if len(host.OpenPorts) != 1 || host.OpenPorts[0] != port {
		t.Errorf("open_ports = %v, want [%d]", host.OpenPorts, port)
	}
}

func TestNetworkScanNoListener(t *testing.T) {
	port := unusedPort(t)
	s := NewNetworkScanner([]string{"127.0.0.1/32"}, []int{port}, logger.Discard())

	result, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.HostsFound != 0 {
		t.Errorf("hosts_found = %d, want 0", result.HostsFound)
	}
	if len(result.Subnets) != 1 || result.Subnets[0] != "127.0.0.1/32" {
		t.Errorf("subnets = %v", result.Subnets)
	}
}

func TestNetworkScanBadSubnet(t *testing.T) {
	s := NewNetworkScanner([]string{"not-a-cidr"}, []int{80}, logger.Discard())
	result, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.HostsFound != 0 {
		t.Errorf("hosts_found = %d, want 0", result.HostsFound)
	}
}

func TestNetworkScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewNetworkScanner([]string{"10.0.0.0/24"}, []int{unusedPort(t)}, logger.Discard())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := s.Scan(ctx); err == nil {
			t.Error("cancelled scan returned nil error")
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("scan did not stop after cancellation")
	}
}

func unusedPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func TestDefaultPortsApplied(t *testing.T) {
	s := NewNetworkScanner([]string{"10.0.0.0/30"}, nil, logger.Discard())
	if fmt.Sprint(s.ports) != fmt.Sprint(DefaultProbePorts) {
		t.Errorf("ports = %v, want defaults", s.ports)
	}
}
