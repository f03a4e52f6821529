// Package v1 defines the public data types shared across all AutoDoc layers.
package v1

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Status enumerations
// ─────────────────────────────────────────────────────────────────────────────

// ServiceStatus represents the health state of a running stack service.
type ServiceStatus string

const (
	StatusHealthy   ServiceStatus = "healthy"
	StatusDegraded  ServiceStatus = "degraded"
	StatusUnhealthy ServiceStatus = "unhealthy"
	StatusUnknown   ServiceStatus = "unknown"
)

// ScanKind identifies one of the infrastructure scanners.
type ScanKind string

const (
	ScanDocker   ScanKind = "docker"
	ScanNetwork  ScanKind = "network"
	ScanESXi     ScanKind = "esxi"
	ScanSynology ScanKind = "synology"
)

// AllScanKinds lists every scanner in the order scan-all runs them.
var AllScanKinds = []ScanKind{ScanDocker, ScanNetwork, ScanESXi, ScanSynology}

// ─────────────────────────────────────────────────────────────────────────────
// Specification types (derived from autodoc.yaml)
// ─────────────────────────────────────────────────────────────────────────────

// ServiceSpec is the declarative definition of a stack service.
type ServiceSpec struct {
	Name          string            `yaml:"name"           mapstructure:"name"`
	Image         string            `yaml:"image"          mapstructure:"image"`
	Build         string            `yaml:"build"          mapstructure:"build"` // local build context dir; empty = pulled image
	Ports         []string          `yaml:"ports"          mapstructure:"ports"`
	Environment   map[string]string `yaml:"environment"    mapstructure:"environment"`
	Labels        map[string]string `yaml:"labels"         mapstructure:"labels"`
	Volumes       []string          `yaml:"volumes"        mapstructure:"volumes"`
	DataDir       string            `yaml:"data_dir"       mapstructure:"data_dir"` // persistent host dir created by setup
	RestartPolicy string            `yaml:"restart"        mapstructure:"restart"`
	HealthCheck   *HealthCheckSpec  `yaml:"health_check"   mapstructure:"health_check"`
}

// HealthCheckSpec configures how AutoDoc probes service liveness.
type HealthCheckSpec struct {
	Type         string        `yaml:"type"          mapstructure:"type"` // tcp | http
	URL          string        `yaml:"url"           mapstructure:"url"`
	Port         int           `yaml:"port"          mapstructure:"port"`
	Timeout      time.Duration `yaml:"timeout"       mapstructure:"timeout"`
	Interval     time.Duration `yaml:"interval"      mapstructure:"interval"`
	Retries      int           `yaml:"retries"       mapstructure:"retries"`
	ExpectedCode int           `yaml:"expected_code" mapstructure:"expected_code"`
}

// ScanTargetSpec describes an SSH-reachable scan target (ESXi host, NAS).
type ScanTargetSpec struct {
	Name string `yaml:"name" mapstructure:"name"`
	Host string `yaml:"host" mapstructure:"host"`
	User string `yaml:"user" mapstructure:"user"`
	Key  string `yaml:"key"  mapstructure:"key"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Runtime state types (persisted in BoltDB)
// ─────────────────────────────────────────────────────────────────────────────

// ServiceState is the runtime state of a managed stack container.
type ServiceState struct {
	Name        string        `json:"name"`
	ContainerID string        `json:"container_id"`
	Image       string        `json:"image"`
	Status      ServiceStatus `json:"status"`
	Ports       []string      `json:"ports"`
	StartedAt   time.Time     `json:"started_at"`
}

// ScanRecord is an immutable history record of one scanner run.
type ScanRecord struct {
	ID         string    `json:"id"`
	Kind       ScanKind  `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	Duration   string    `json:"duration"`
	Result     string    `json:"result"` // success | failure | skipped
	ItemCount  int       `json:"item_count"`
	WikiPage   string    `json:"wiki_page,omitempty"`
	Error      string    `json:"error,omitempty"`
	Scheduled  bool      `json:"scheduled"`
	AIAnalyzed bool      `json:"ai_analyzed"`
}

// SyncRecord is an immutable history record of one GitHub sync run.
type SyncRecord struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Synced    int       `json:"synced"`
	Errors    int       `json:"errors"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan result types (scanner → analyzer → wiki writer)
// ─────────────────────────────────────────────────────────────────────────────

// DockerScanResult is the aggregate of all scanned Docker hosts.
type DockerScanResult struct {
	ScanTime        time.Time        `json:"scan_time"`
	HostsScanned    int              `json:"hosts_scanned"`
	TotalContainers int              `json:"total_containers"`
	Hosts           []DockerHostScan `json:"hosts"`
}

// DockerHostScan is the scan of a single Docker daemon.
type DockerHostScan struct {
	Endpoint   string          `json:"endpoint"`
	Error      string          `json:"error,omitempty"`
	Host       DockerHostInfo  `json:"host"`
	Containers []ContainerInfo `json:"containers"`
	Networks   []NetworkInfo   `json:"networks"`
	Volumes    []VolumeInfo    `json:"volumes"`
}

// DockerHostInfo summarises a Docker daemon host.
type DockerHostInfo struct {
	Hostname      string  `json:"hostname"`
	OS            string  `json:"os"`
	DockerVersion string  `json:"docker_version"`
	CPUs          int     `json:"cpus"`
	MemoryGB      float64 `json:"memory_gb"`
}

// ContainerInfo is one container as seen by the Docker scanner.
type ContainerInfo struct {
	Name    string              `json:"name"`
	Image   string              `json:"image"`
	Status  string              `json:"status"`
	Ports   map[string][]string `json:"ports"`
	Created string              `json:"created"`
	Labels  map[string]string   `json:"labels,omitempty"`
}

// NetworkInfo is one Docker network.
type NetworkInfo struct {
	Name       string   `json:"name"`
	Driver     string   `json:"driver"`
	Scope      string   `json:"scope"`
	Containers []string `json:"containers,omitempty"`
}

// VolumeInfo is one Docker volume.
type VolumeInfo struct {
	Name       string `json:"name"`
	Driver     string `json:"driver"`
	Mountpoint string `json:"mountpoint"`
}

// NetworkScanResult is the aggregate of a subnet sweep.
type NetworkScanResult struct {
	ScanTime   time.Time   `json:"scan_time"`
	Subnets    []string    `json:"subnets"`
	HostsFound int         `json:"hosts_found"`
	Hosts      []HostProbe `json:"hosts"`
}

// HostProbe is one live host found during the network sweep.
type HostProbe struct {
	IP        string `json:"ip"`
	Hostname  string `json:"hostname"`
	OpenPorts []int  `json:"open_ports"`
}

// ESXiScanResult is the parsed state of one ESXi host.
type ESXiScanResult struct {
	ScanTime   time.Time       `json:"scan_time"`
	Host       string          `json:"host"`
	Hostname   string          `json:"hostname"`
	Version    string          `json:"version"`
	VMs        []ESXiVM        `json:"vms"`
	Datastores []ESXiDatastore `json:"datastores"`
	VSwitches  string          `json:"vswitches_raw"`
	NICs       string          `json:"nics_raw"`
}

// ESXiVM is one virtual machine from `vim-cmd vmsvc/getallvms`.
type ESXiVM struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Raw  string `json:"raw"`
}

// ESXiDatastore is one filesystem from `esxcli storage filesystem list`.
type ESXiDatastore struct {
	MountPoint string `json:"mount_point"`
	Name       string `json:"name"`
	Raw        string `json:"raw"`
}

// SynologyScanResult is the collected state of one Synology NAS.
type SynologyScanResult struct {
	ScanTime       time.Time `json:"scan_time"`
	Host           string    `json:"host"`
	Hostname       string    `json:"hostname"`
	DSMVersion     string    `json:"dsm_version"`
	DiskUsage      string    `json:"disk_usage"`
	Shares         string    `json:"shares"`
	Packages       string    `json:"packages"`
	PackagesStatus string    `json:"packages_status"`
	Network        string    `json:"network"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Metrics types
// ─────────────────────────────────────────────────────────────────────────────

// ServiceMetrics is a point-in-time resource snapshot for one container.
type ServiceMetrics struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemBytes   int64   `json:"mem_bytes"`
	MemLimit   int64   `json:"mem_limit"`
	NetRxBytes int64   `json:"net_rx_bytes"`
	NetTxBytes int64   `json:"net_tx_bytes"`
	PIDs       int     `json:"pids"`
}

// Metrics aggregates per-service metrics for the whole stack.
type Metrics struct {
	CollectedAt time.Time                 `json:"collected_at"`
	Services    map[string]ServiceMetrics `json:"services"`
}
