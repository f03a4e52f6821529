// Package orchestrator wraps the Docker Engine API for stack operations.
package orchestrator

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	networktypes "github.com/docker/docker/api/types/network"
	volumetypes "github.com/docker/docker/api/types/volume"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
)

// LabelService marks containers managed by AutoDoc.
const LabelService = "autodoc.service"

// Client wraps the Docker API client with AutoDoc-specific helpers.
type Client struct {
	docker *dockerclient.Client
	log    *logger.Logger
}

// NewClient creates a new Docker API client. An empty host uses the
// environment (DOCKER_HOST or the local socket).
func NewClient(host string, log *logger.Logger) (*Client, error) {
	opts := []dockerclient.Opt{
		dockerclient.WithAPIVersionNegotiation(),
	}
	if host != "" {
		opts = append(opts, dockerclient.WithHost(host))
	} else {
		opts = append(opts, dockerclient.FromEnv)
	}

	dc, err := dockerclient.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &Client{docker: dc, log: log}, nil
}

// Ping verifies Docker daemon connectivity.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.docker.Ping(ctx)
	return err
}

// Close releases the Docker API client resources.
func (c *Client) Close() error {
	return c.docker.Close()
}

// Info returns daemon host details for the Docker scanner.
func (c *Client) Info(ctx context.Context) (v1.DockerHostInfo, error) {
	info, err := c.docker.Info(ctx)
	if err != nil {
		return v1.DockerHostInfo{}, fmt.Errorf("docker info: %w", err)
	}
	return v1.DockerHostInfo{
		Hostname:      info.Name,
		OS:            info.OperatingSystem,
		DockerVersion: info.ServerVersion,
		CPUs:          info.NCPU,
		MemoryGB:      float64(info.MemTotal) / (1 << 30),
	}, nil
}

// PullImage pulls the specified image and streams progress to the logger.
func (c *Client) PullImage(ctx context.Context, img string) error {
	c.log.Info("pulling image", "image", img)
	rc, err := c.docker.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("image pull %q: %w", img, err)
	}
	defer rc.Close()
	return c.drainJSONStream(rc)
}

// BuildImage builds an image from a local context directory and tags it.
// The context is streamed as an in-memory tar; a Dockerfile must exist at
// the context root.
func (c *Client) BuildImage(ctx context.Context, contextDir, tag string) error {
	c.log.Info("building image", "context", contextDir, "tag", tag)

	buildCtx, err := tarDirectory(contextDir)
	if err != nil {
		return fmt.Errorf("build context %q: %w", contextDir, err)
	}

	resp, err := c.docker.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{tag},
		Dockerfile: "Dockerfile",
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("image build %q: %w", tag, err)
	}
	defer resp.Body.Close()
	return c.drainJSONStream(resp.Body)
}

// drainJSONStream decodes a Docker progress stream, surfacing embedded errors.
func (c *Client) drainJSONStream(r io.Reader) error {
	dec := json.NewDecoder(r)
	for {
		var msg struct {
			Status string `json:"status"`
			Stream string `json:"stream"`
			Error  string `json:"error"`
		}
		if err := dec.Decode(&msg); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		if msg.Error != "" {
			return fmt.Errorf("docker stream error: %s", msg.Error)
		}
		if msg.Status != "" {
			c.log.Debug("progress", "status", msg.Status)
		}
		if s := strings.TrimSpace(msg.Stream); s != "" {
			c.log.Debug("build", "line", s)
		}
	}
	return nil
}

// RunContainer creates and starts a container according to spec.
func (c *Client) RunContainer(ctx context.Context, spec v1.ServiceSpec, name string) (string, error) {
	exposedPorts := nat.PortSet{}
	portBindings := nat.PortMap{}
	for _, p := range spec.Ports {
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 {
			continue
		}
		hostPort, containerPortStr := parts[0], parts[1]
		containerPort := nat.Port(containerPortStr + "/tcp")
		exposedPorts[containerPort] = struct{}{}
		portBindings[containerPort] = []nat.PortBinding{{HostPort: hostPort}}
	}

	envSlice := make([]string, 0, len(spec.Environment))
	for k, v := range spec.Environment {
		envSlice = append(envSlice, k+"="+v)
	}

	restartPolicyName := containertypes.RestartPolicyMode("unless-stopped")
	if spec.RestartPolicy != "" {
		restartPolicyName = containertypes.RestartPolicyMode(spec.RestartPolicy)
	}

	containerCfg := &containertypes.Config{
		Image:        spec.Image,
		Env:          envSlice,
		Labels:       spec.Labels,
		ExposedPorts: exposedPorts,
	}

	binds := make([]string, 0, len(spec.Volumes))
	for _, vol := range spec.Volumes {
		// Relative host paths are resolved against the CWD so the data/
		// directories created by setup bind correctly.
		parts := strings.SplitN(vol, ":", 2)
		if len(parts) == 2 && !filepath.IsAbs(parts[0]) && !strings.HasPrefix(parts[0], "/") {
			if abs, err := filepath.Abs(parts[0]); err == nil {
				vol = abs + ":" + parts[1]
			}
		}
		binds = append(binds, vol)
	}

	hostCfg := &containertypes.HostConfig{
		PortBindings:  portBindings,
		Binds:         binds,
		RestartPolicy: containertypes.RestartPolicy{Name: restartPolicyName},
	}

	resp, err := c.docker.ContainerCreate(ctx, containerCfg, hostCfg, &networktypes.NetworkingConfig{}, nil, name)
	if err != nil {
		return "", fmt.Errorf("container create %q: %w", name, err)
	}

	if err := c.docker.ContainerStart(ctx, resp.ID, containertypes.StartOptions{}); err != nil {
		_ = c.docker.ContainerRemove(ctx, resp.ID, containertypes.RemoveOptions{Force: true})
		return "", fmt.Errorf("container start %q: %w", resp.ID[:12], err)
	}

	c.log.Info("container started", "name", name, "id", resp.ID[:12])
	return resp.ID, nil
}

// StopContainer gracefully stops a container and optionally removes it.
func (c *Client) StopContainer(ctx context.Context, idOrName string, remove bool) error {
	timeout := 10
	stopOpts := containertypes.StopOptions{Timeout: &timeout}

	if err := c.docker.ContainerStop(ctx, idOrName, stopOpts); err != nil {
		return fmt.Errorf("container stop %q: %w", idOrName, err)
	}
	c.log.Info("container stopped", "id", idOrName)

	if remove {
		if err := c.docker.ContainerRemove(ctx, idOrName, containertypes.RemoveOptions{}); err != nil {
			return fmt.Errorf("container remove %q: %w", idOrName, err)
		}
		c.log.Info("container removed", "id", idOrName)
	}
	return nil
}

// InspectContainer returns full container JSON for the given id/name.
func (c *Client) InspectContainer(ctx context.Context, idOrName string) (types.ContainerJSON, error) {
	return c.docker.ContainerInspect(ctx, idOrName)
}

// ListManaged returns containers carrying the AutoDoc service label.
func (c *Client) ListManaged(ctx context.Context, serviceFilter string) ([]types.Container, error) {
	f := filters.NewArgs()
	f.Add("label", LabelService)
	if serviceFilter != "" {
		f.Add("label", LabelService+"="+serviceFilter)
	}
	return c.docker.ContainerList(ctx, containertypes.ListOptions{
		All:     true,
		Filters: f,
	})
}

// ListAllContainers returns every container on the daemon, running or not.
// Used by the Docker scanner, which documents the whole host.
func (c *Client) ListAllContainers(ctx context.Context) ([]types.Container, error) {
	return c.docker.ContainerList(ctx, containertypes.ListOptions{All: true})
}

// ListNetworks returns all Docker networks with their attached containers.
func (c *Client) ListNetworks(ctx context.Context) ([]networktypes.Inspect, error) {
	summaries, err := c.docker.NetworkList(ctx, networktypes.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]networktypes.Inspect, 0, len(summaries))
	for _, n := range summaries {
		inspected, err := c.docker.NetworkInspect(ctx, n.ID, networktypes.InspectOptions{})
		if err != nil {
			continue
		}
		out = append(out, inspected)
	}
	return out, nil
}

// ListVolumes returns all Docker volumes.
func (c *Client) ListVolumes(ctx context.Context) ([]*volumetypes.Volume, error) {
	resp, err := c.docker.VolumeList(ctx, volumetypes.ListOptions{})
	if err != nil {
		return nil, err
	}
	return resp.Volumes, nil
}

// RemoveVolume deletes a named volume.
func (c *Client) RemoveVolume(ctx context.Context, name string) error {
	return c.docker.VolumeRemove(ctx, name, true)
}

// StreamLogs streams container logs to the provided writer.
func (c *Client) StreamLogs(ctx context.Context, idOrName string, follow bool, since time.Duration, w io.Writer) error {
	sinceStr := ""
	if since > 0 {
		sinceStr = fmt.Sprintf("%ds", int(since.Seconds()))
	}
	rc, err := c.docker.ContainerLogs(ctx, idOrName, containertypes.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
		Timestamps: true,
		Since:      sinceStr,
	})
	if err != nil {
		return fmt.Errorf("logs %q: %w", idOrName, err)
	}
	defer rc.Close()
	_, err = io.Copy(w, rc)
	return err
}

// ContainerStats returns a single stats snapshot for the container.
func (c *Client) ContainerStats(ctx context.Context, idOrName string) (v1.ServiceMetrics, error) {
	resp, err := c.docker.ContainerStatsOneShot(ctx, idOrName)
	if err != nil {
		return v1.ServiceMetrics{}, fmt.Errorf("stats %q: %w", idOrName, err)
	}
	defer resp.Body.Close()

	var raw types.StatsJSON
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return v1.ServiceMetrics{}, err
	}

	cpuDelta := float64(raw.CPUStats.CPUUsage.TotalUsage - raw.PreCPUStats.CPUUsage.TotalUsage)
	sysDelta := float64(raw.CPUStats.SystemUsage - raw.PreCPUStats.SystemUsage)
	numCPU := float64(len(raw.CPUStats.CPUUsage.PercpuUsage))
	cpuPercent := 0.0
	if sysDelta > 0 && cpuDelta > 0 {
		cpuPercent = (cpuDelta / sysDelta) * numCPU * 100.0
	}

	netStats := raw.Networks["eth0"]
	return v1.ServiceMetrics{
		CPUPercent: cpuPercent,
		MemBytes:   int64(raw.MemoryStats.Usage),
		MemLimit:   int64(raw.MemoryStats.Limit),
		NetRxBytes: int64(netStats.RxBytes),
		NetTxBytes: int64(netStats.TxBytes),
		PIDs:       int(raw.PidsStats.Current),
	}, nil
}

// tarDirectory packs dir into an in-memory tar archive for ImageBuild.
func tarDirectory(dir string) (io.Reader, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}
