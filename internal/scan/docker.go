// Package scan implements the infrastructure scanners behind the Scanner API:
// Docker daemons, subnet sweeps, and SSH-reachable hosts (ESXi, Synology).
package scan

import (
	"context"
	"strconv"
	"time"

	"github.com/docker/docker/api/types"
	networktypes "github.com/docker/docker/api/types/network"
	volumetypes "github.com/docker/docker/api/types/volume"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/internal/orchestrator"
)

// LocalEndpoint labels the default daemon reached via DOCKER_HOST or the
// local socket.
const LocalEndpoint = "local"

// dockerHost is the slice of the Docker client the scanner needs. Satisfied
// by *orchestrator.Client.
type dockerHost interface {
	Info(ctx context.Context) (v1.DockerHostInfo, error)
	ListAllContainers(ctx context.Context) ([]types.Container, error)
	ListNetworks(ctx context.Context) ([]networktypes.Inspect, error)
	ListVolumes(ctx context.Context) ([]*volumetypes.Volume, error)
	Close() error
}

// DockerScanner documents every configured Docker daemon: the local one
// plus any extra endpoints from scan.docker_hosts.
type DockerScanner struct {
	extraHosts []string
	log        *logger.Logger

	// connect is swappable in tests.
	connect func(endpoint string) (dockerHost, error)
}

// NewDockerScanner builds a scanner over the local daemon and extraHosts.
func NewDockerScanner(extraHosts []string, log *logger.Logger) *DockerScanner {
	return &DockerScanner{
		extraHosts: extraHosts,
		log:        log,
		connect: func(endpoint string) (dockerHost, error) {
			host := endpoint
			if endpoint == LocalEndpoint {
				host = ""
			}
			return orchestrator.NewClient(host, log)
		},
	}
}

// Scan walks all endpoints. A failing endpoint is recorded with its error
// instead of aborting the whole scan.
func (s *DockerScanner) Scan(ctx context.Context) (*v1.DockerScanResult, error) {
	endpoints := append([]string{LocalEndpoint}, s.extraHosts...)
	result := &v1.DockerScanResult{
		ScanTime: time.Now().UTC(),
	}

	for _, endpoint := range endpoints {
		host := s.scanHost(ctx, endpoint)
		if host.Error == "" {
			s.log.Info("docker scan: host done",
				"endpoint", endpoint, "containers", len(host.Containers))
		} else {
			s.log.Error("docker scan: host failed", "endpoint", endpoint, "err", host.Error)
		}
		result.TotalContainers += len(host.Containers)
		result.Hosts = append(result.Hosts, host)
	}
	result.HostsScanned = len(result.Hosts)
	return result, nil
}

func (s *DockerScanner) scanHost(ctx context.Context, endpoint string) v1.DockerHostScan {
	scan := v1.DockerHostScan{Endpoint: endpoint}

	client, err := s.connect(endpoint)
	if err != nil {
		scan.Error = err.Error()
		return scan
	}
	defer client.Close()

	info, err := client.Info(ctx)
	if err != nil {
		scan.Error = err.Error()
		return scan
	}
	scan.Host = info

	containers, err := client.ListAllContainers(ctx)
	if err != nil {
		scan.Error = err.Error()
		return scan
	}
	for _, ctr := range containers {
		scan.Containers = append(scan.Containers, containerInfo(ctr))
	}

	// Networks and volumes are best effort; the container list is the
	// scan's core payload.
	if networks, err := client.ListNetworks(ctx); err == nil {
		for _, nw := range networks {
			scan.Networks = append(scan.Networks, networkInfo(nw))
		}
	}
	if volumes, err := client.ListVolumes(ctx); err == nil {
		for _, vol := range volumes {
			scan.Volumes = append(scan.Volumes, v1.VolumeInfo{
				Name:       vol.Name,
				Driver:     vol.Driver,
				Mountpoint: vol.Mountpoint,
			})
		}
	}
	return scan
}

func containerInfo(ctr types.Container) v1.ContainerInfo {
	name := ""
	if len(ctr.Names) > 0 {
		name = ctr.Names[0]
		if len(name) > 0 && name[0] == '/' {
			name = name[1:]
		}
	}

	ports := make(map[string][]string)
	for _, p := range ctr.Ports {
		if p.PublicPort == 0 {
			continue
		}
		key := portKey(p)
		ports[key] = append(ports[key], strconv.Itoa(int(p.PublicPort)))
	}

	return v1.ContainerInfo{
		Name:    name,
		Image:   ctr.Image,
		Status:  ctr.State,
		Ports:   ports,
		Created: time.Unix(ctr.Created, 0).UTC().Format(time.RFC3339),
		Labels:  ctr.Labels,
	}
}

func networkInfo(nw networktypes.Inspect) v1.NetworkInfo {
	info := v1.NetworkInfo{
		Name:   nw.Name,
		Driver: nw.Driver,
		Scope:  nw.Scope,
	}
	for _, ep := range nw.Containers {
		info.Containers = append(info.Containers, ep.Name)
	}
	return info
}

func portKey(p types.Port) string {
	return strconv.Itoa(int(p.PrivatePort)) + "/" + p.Type
}
