// Package netutil provides network helpers used by the scanners and status output.
package netutil

import (
	"context"
	"fmt"
	"net"
	"time"
)

// ProbeTCP dials host:port and returns nil if successful within the timeout.
func ProbeTCP(ctx context.Context, host string, port int, timeout time.Duration) error {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("tcp probe to %s failed: %w", addr, err)
	}
	conn.Close()
	return nil
}

// FreePort finds an available TCP port on localhost.
func FreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// FirstNonLoopbackAddr returns the host's first non-loopback IPv4 address,
// falling back to "localhost" when none is found. Used for the URL lines
// printed after setup and by the status command.
func FirstNonLoopbackAddr() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "localhost"
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || ipNet.IP.IsLoopback() {
				continue
			}
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}
	return "localhost"
}

// CIDRHosts expands a CIDR subnet into its usable host addresses.
// Network and broadcast addresses are excluded for prefixes shorter
// than /31; a /32 yields its single address.
func CIDRHosts(cidr string) ([]string, error) {
	ip, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("parse cidr %q: %w", cidr, err)
	}

	var hosts []string
	for addr := ip.Mask(ipNet.Mask); ipNet.Contains(addr); incIP(addr) {
		hosts = append(hosts, addr.String())
	}

	ones, bits := ipNet.Mask.Size()
	if bits-ones >= 2 && len(hosts) > 2 {
		hosts = hosts[1 : len(hosts)-1] // strip network and broadcast
	}
	return hosts, nil
}

// incIP increments an IP address in place.
func incIP(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] != 0 {
			break
		}
	}
}

// SplitHostPort wraps net.SplitHostPort with a default port fallback.
func SplitHostPort(addr string, defaultPort int) (host string, port string, err error) {
	host, port, err = net.SplitHostPort(addr)
	if err != nil {
		// No port in addr — treat entire string as host
		return addr, fmt.Sprintf("%d", defaultPort), nil
	}
	return host, port, nil
}
