package scan

import (
	"context"
	"net"
	"sort"
	"sync"
	"time"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/pkg/netutil"
)

// DefaultProbePorts are the TCP ports tried during a subnet sweep. A host
// answering on any of them is considered live.
var DefaultProbePorts = []int{22, 80, 443, 445, 3000, 5000, 5432, 8080, 8443, 9000}

// sweepWorkers bounds the number of hosts probed concurrently.
const sweepWorkers = 64

// probeTimeout is the per-port connect timeout during the sweep.
const probeTimeout = 750 * time.Millisecond

// NetworkScanner sweeps configured subnets with TCP connect probes and
// reverse DNS lookups.
type NetworkScanner struct {
	subnets []string
	ports   []int
	log     *logger.Logger
}

// NewNetworkScanner builds a scanner for the given CIDR subnets. A nil port
// list uses DefaultProbePorts.
func NewNetworkScanner(subnets []string, ports []int, log *logger.Logger) *NetworkScanner {
	if len(ports) == 0 {
		ports = DefaultProbePorts
	}
	return &NetworkScanner{subnets: subnets, ports: ports, log: log}
}

// Scan probes every host address in every subnet and returns the live hosts.
func (s *NetworkScanner) Scan(ctx context.Context) (*v1.NetworkScanResult, error) {
	result := &v1.NetworkScanResult{
		ScanTime: time.Now().UTC(),
		Subnets:  append([]string(nil), s.subnets...),
	}

	var candidates []string
	for _, subnet := range s.subnets {
		hosts, err := netutil.CIDRHosts(subnet)
		if err != nil {
			s.log.Warn("network scan: bad subnet", "subnet", subnet, "err", err)
			continue
		}
		candidates = append(candidates, hosts...)
	}
	s.log.Info("network scan starting", "subnets", len(s.subnets), "candidates", len(candidates))

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < sweepWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ip := range jobs {
				if probe, ok := s.probeHost(ctx, ip); ok {
					mu.Lock()
					result.Hosts = append(result.Hosts, probe)
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for _, ip := range candidates {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- ip:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(result.Hosts, func(i, k int) bool {
		return result.Hosts[i].IP < result.Hosts[k].IP
	})
	result.HostsFound = len(result.Hosts)
	s.log.Info("network scan complete", "hosts_found", result.HostsFound)
	return result, ctx.Err()
}

// probeHost tries every configured port on one address. The host counts as
// live when at least one port accepts a connection.
func (s *NetworkScanner) probeHost(ctx context.Context, ip string) (v1.HostProbe, bool) {
	probe := v1.HostProbe{IP: ip}
	for _, port := range s.ports {
		if ctx.Err() != nil {
			break
		}
		if err := netutil.ProbeTCP(ctx, ip, port, probeTimeout); err == nil {
			probe.OpenPorts = append(probe.OpenPorts, port)
		}
	}
	if len(probe.OpenPorts) == 0 {
		return v1.HostProbe{}, false
	}

	lookupCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if names, err := net.DefaultResolver.LookupAddr(lookupCtx, probe.IP); err == nil && len(names) > 0 {
		probe.Hostname = names[0]
	}
	return probe, true
}
