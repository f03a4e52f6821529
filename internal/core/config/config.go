// Package config provides the AutoDoc configuration loader.
// Config is loaded by merging autodoc.yaml → ~/.autodoc/config.yaml →
// AUTODOC_* env vars, with the four legacy port variables (XWIKI_PORT,
// BRIDGE_PORT, AUTODOC_PORT, ANYTHINGLLM_PORT) bound explicitly so the
// Makefile-era environment keeps working unchanged.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
)

// sensitiveKeyRegex matches config keys that should be redacted in log output.
var sensitiveKeyRegex = regexp.MustCompile(`(?i)(password|token|secret|key|passphrase)`)

// Default ports for the stack services. The literal fallbacks come straight
// from the original deployment: XWiki 8085, Bridge 8090, Scanner 8091,
// AnythingLLM 3001.
const (
	DefaultWikiPort        = 8085
	DefaultBridgePort      = 8090
	DefaultScannerPort     = 8091
	DefaultAnythingLLMPort = 3001
)

// Defaults contains factory-default values applied before any config file is loaded.
var Defaults = map[string]any{
	"log.level":           "info",
	"log.format":          "text",
	"data_root":           "data",
	"env_file":            ".env",
	"ports.wiki":          DefaultWikiPort,
	"ports.bridge":        DefaultBridgePort,
	"ports.scanner":       DefaultScannerPort,
	"ports.anythingllm":   DefaultAnythingLLMPort,
	"wiki.url":            "http://localhost:8085",
	"wiki.user":           "admin",
	"ollama.url":          "http://localhost:11434",
	"ollama.model":        "qwen2.5:14b",
	"ollama.embed_model":  "nomic-embed-text",
	"anythingllm.url":     "http://localhost:3001",
	"scan.subnets":        []string{"192.168.1.0/24"},
	"scan.interval_hours": 24,
}

// legacyEnvBindings maps config keys to their Makefile-era environment names.
// The AUTODOC_* prefixed forms also work via AutomaticEnv.
var legacyEnvBindings = map[string][]string{
	"ports.wiki":          {"AUTODOC_PORTS_WIKI", "XWIKI_PORT"},
	"ports.bridge":        {"AUTODOC_PORTS_BRIDGE", "BRIDGE_PORT"},
	"ports.scanner":       {"AUTODOC_PORTS_SCANNER", "AUTODOC_PORT"},
	"ports.anythingllm":   {"AUTODOC_PORTS_ANYTHINGLLM", "ANYTHINGLLM_PORT"},
	"wiki.password":       {"AUTODOC_WIKI_PASSWORD", "XWIKI_ADMIN_PASSWORD"},
	"github.user":         {"AUTODOC_GITHUB_USER", "GITHUB_USER"},
	"github.token":        {"AUTODOC_GITHUB_TOKEN", "GITHUB_TOKEN"},
	"anythingllm.apikey":  {"AUTODOC_ANYTHINGLLM_APIKEY", "ANYTHINGLLM_API_KEY"},
	"scan.subnets":        {"AUTODOC_SCAN_SUBNETS", "SCAN_SUBNETS"},
	"scan.interval_hours": {"AUTODOC_SCAN_INTERVAL_HOURS", "SCAN_INTERVAL_HOURS"},
	"scan.docker_hosts":   {"AUTODOC_SCAN_DOCKER_HOSTS", "DOCKER_HOSTS"},
	"scan.esxi.host":      {"AUTODOC_SCAN_ESXI_HOST", "ESXI_HOST"},
	"scan.esxi.user":      {"AUTODOC_SCAN_ESXI_USER", "ESXI_USER"},
	"scan.esxi.key":       {"AUTODOC_SCAN_ESXI_KEY", "ESXI_SSH_KEY_PATH"},
	"scan.synology.host":  {"AUTODOC_SCAN_SYNOLOGY_HOST", "SYNOLOGY_HOST"},
	"scan.synology.user":  {"AUTODOC_SCAN_SYNOLOGY_USER", "SYNOLOGY_USER"},
	"scan.synology.key":   {"AUTODOC_SCAN_SYNOLOGY_KEY", "SYNOLOGY_SSH_KEY_PATH"},
}

// ─────────────────────────────────────────────────────────────────────────────
// Config types
// ─────────────────────────────────────────────────────────────────────────────

// Config is the fully-decoded project configuration.
type Config struct {
	Version     string             `mapstructure:"version"`
	Log         LogConfig          `mapstructure:"log"`
	Ports       PortsConfig        `mapstructure:"ports"`
	Wiki        WikiConfig         `mapstructure:"wiki"`
	Ollama      OllamaConfig       `mapstructure:"ollama"`
	GitHub      GitHubConfig       `mapstructure:"github"`
	AnythingLLM AnythingLLMConfig  `mapstructure:"anythingllm"`
	Scan        ScanConfig         `mapstructure:"scan"`
	Services    []v1.ServiceSpec   `mapstructure:"services"`
	DataRoot    string             `mapstructure:"data_root"`
	EnvFile     string             `mapstructure:"env_file"`
}

// LogConfig controls logging behaviour.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // json | text
}

// PortsConfig holds the host-side ports of the stack services.
type PortsConfig struct {
	Wiki        int `mapstructure:"wiki"`
	Bridge      int `mapstructure:"bridge"`
	Scanner     int `mapstructure:"scanner"`
	AnythingLLM int `mapstructure:"anythingllm"`
}

// WikiConfig holds XWiki REST credentials.
type WikiConfig struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// OllamaConfig holds the Ollama endpoint and model selection.
type OllamaConfig struct {
	URL        string `mapstructure:"url"`
	Model      string `mapstructure:"model"`
	EmbedModel string `mapstructure:"embed_model"`
}

// GitHubConfig holds GitHub API access settings.
type GitHubConfig struct {
	User  string `mapstructure:"user"`
	Token string `mapstructure:"token"`
}

// AnythingLLMConfig holds AnythingLLM API access settings.
type AnythingLLMConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"apikey"`
}

// ScanConfig controls the infrastructure scanners.
type ScanConfig struct {
	Subnets       []string          `mapstructure:"subnets"`
	DockerHosts   []string          `mapstructure:"docker_hosts"` // extra daemons beyond the local socket
	IntervalHours int               `mapstructure:"interval_hours"`
	ESXi          v1.ScanTargetSpec `mapstructure:"esxi"`
	Synology      v1.ScanTargetSpec `mapstructure:"synology"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Loader
// ─────────────────────────────────────────────────────────────────────────────

// Load discovers and loads the configuration, walking up directories to find
// autodoc.yaml, then merging it with the global config and environment variables.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()

	for k, val := range Defaults {
		v.SetDefault(k, val)
	}

	// Environment variable binding: AUTODOC_LOG_LEVEL → log.level
	v.SetEnvPrefix("AUTODOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnvBindings {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	// Load global config (~/.autodoc/config.yaml) if it exists
	globalCfg := filepath.Join(Home(), "config.yaml")
	if _, err := os.Stat(globalCfg); err == nil {
		v.SetConfigFile(globalCfg)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read global config: %w", err)
		}
	}

	// Load project config
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		if path, err := discoverProjectConfig(); err == nil {
			v.SetConfigFile(path)
		}
	}

	// A discovered config that fails to parse is an error too. Falling
	// back to defaults would silently ignore the file the user wrote.
	if v.ConfigFileUsed() != "" || explicitPath != "" {
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read project config %q: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.Services) == 0 {
		cfg.Services = DefaultServices(cfg.Ports, cfg.DataRoot)
	}

	expandEnvInConfig(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// DefaultServices returns the built-in three-service documentation stack.
// Used when autodoc.yaml defines no services of its own.
func DefaultServices(ports PortsConfig, dataRoot string) []v1.ServiceSpec {
	if dataRoot == "" {
		dataRoot = "data"
	}
	return []v1.ServiceSpec{
		{
			Name:          "postgres",
			Image:         "postgres:15",
			DataDir:       filepath.Join(dataRoot, "postgres"),
			Volumes:       []string{filepath.Join(dataRoot, "postgres") + ":/var/lib/postgresql/data"},
			Environment:   map[string]string{"POSTGRES_DB": "xwiki", "POSTGRES_USER": "xwiki", "POSTGRES_PASSWORD": "${POSTGRES_PASSWORD}"},
			RestartPolicy: "unless-stopped",
			HealthCheck:   &v1.HealthCheckSpec{Type: "tcp", Port: 5432},
		},
		{
			Name:          "xwiki",
			Image:         "xwiki:stable-postgres-tomcat",
			Ports:         []string{fmt.Sprintf("%d:8080", ports.Wiki)},
			DataDir:       filepath.Join(dataRoot, "xwiki"),
			Volumes:       []string{filepath.Join(dataRoot, "xwiki") + ":/usr/local/xwiki"},
			Environment:   map[string]string{"DB_HOST": "postgres", "DB_USER": "xwiki", "DB_PASSWORD": "${POSTGRES_PASSWORD}", "DB_DATABASE": "xwiki"},
			RestartPolicy: "unless-stopped",
			HealthCheck:   &v1.HealthCheckSpec{Type: "http", URL: fmt.Sprintf("http://localhost:%d/", ports.Wiki)},
		},
		{
			Name:          "anythingllm",
			Image:         "mintplexlabs/anythingllm:latest",
			Ports:         []string{fmt.Sprintf("%d:3001", ports.AnythingLLM)},
			DataDir:       filepath.Join(dataRoot, "anythingllm"),
			Volumes:       []string{filepath.Join(dataRoot, "anythingllm") + ":/app/server/storage"},
			RestartPolicy: "unless-stopped",
			HealthCheck:   &v1.HealthCheckSpec{Type: "http", URL: fmt.Sprintf("http://localhost:%d/api/ping", ports.AnythingLLM)},
		},
	}
}

// DataDirs returns the persistent host directories the stack needs,
// in service order. These are the directories setup creates and clean removes.
func (c *Config) DataDirs() []string {
	var dirs []string
	for _, svc := range c.Services {
		if svc.DataDir != "" {
			dirs = append(dirs, svc.DataDir)
		}
	}
	return dirs
}

// ServiceByName returns the ServiceSpec with the given name, or nil.
func (c *Config) ServiceByName(name string) *v1.ServiceSpec {
	for i := range c.Services {
		if c.Services[i].Name == name {
			return &c.Services[i]
		}
	}
	return nil
}

// BridgeURL returns the local Bridge API base URL.
func (c *Config) BridgeURL() string {
	return fmt.Sprintf("http://localhost:%d", c.Ports.Bridge)
}

// ScannerURL returns the local Scanner API base URL.
func (c *Config) ScannerURL() string {
	return fmt.Sprintf("http://localhost:%d", c.Ports.Scanner)
}

// IsSensitiveKey returns true if key matches a known sensitive pattern.
func IsSensitiveKey(key string) bool {
	return sensitiveKeyRegex.MatchString(key)
}

// LoadEnvFile reads a Makefile-era .env file into a key→value map.
// Returns an error when the file does not exist — setup treats that as a
// fatal precondition failure.
func LoadEnvFile(path string) (map[string]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("dotenv")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read env file %q: %w", path, err)
	}
	out := make(map[string]string)
	for _, key := range v.AllKeys() {
		out[strings.ToUpper(key)] = v.GetString(key)
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ─────────────────────────────────────────────────────────────────────────────

// discoverProjectConfig walks up from the CWD looking for autodoc.yaml.
func discoverProjectConfig() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, "autodoc.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("autodoc.yaml not found")
}

// expandEnvInConfig resolves ${VAR} placeholders in string values.
func expandEnvInConfig(cfg *Config) {
	for i := range cfg.Services {
		for k, v := range cfg.Services[i].Environment {
			cfg.Services[i].Environment[k] = os.ExpandEnv(v)
		}
	}
	cfg.Wiki.Password = os.ExpandEnv(cfg.Wiki.Password)
	cfg.GitHub.Token = os.ExpandEnv(cfg.GitHub.Token)
	cfg.AnythingLLM.APIKey = os.ExpandEnv(cfg.AnythingLLM.APIKey)
}

// validate performs semantic validation on the loaded config.
func validate(cfg *Config) error {
	seen := map[string]bool{}
	for _, svc := range cfg.Services {
		if svc.Name == "" {
			return fmt.Errorf("service with empty name is not allowed")
		}
		if seen[svc.Name] {
			return fmt.Errorf("duplicate service name: %q", svc.Name)
		}
		seen[svc.Name] = true
		if svc.Image == "" && svc.Build == "" {
			return fmt.Errorf("service %q: image or build context is required", svc.Name)
		}
	}
	for _, subnet := range cfg.Scan.Subnets {
		if !strings.Contains(subnet, "/") {
			return fmt.Errorf("scan subnet %q: not in CIDR form", subnet)
		}
	}
	return nil
}

// Home returns the AutoDoc home directory (~/.autodoc).
func Home() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".autodoc"
	}
	return filepath.Join(home, ".autodoc")
}

// DefaultConfigTemplate is the content written by `autodoc init`.
const DefaultConfigTemplate = `# autodoc.yaml — homelab documentation stack manifest
version: "1"

log:
  level: info
  format: text

# Host-side ports. The Makefile-era env vars (XWIKI_PORT, BRIDGE_PORT,
# AUTODOC_PORT, ANYTHINGLLM_PORT) override these at runtime.
ports:
  wiki: 8085
  bridge: 8090
  scanner: 8091
  anythingllm: 3001

wiki:
  url: http://localhost:8085
  user: admin
  password: ${XWIKI_ADMIN_PASSWORD}

ollama:
  url: http://localhost:11434
  model: qwen2.5:14b
  embed_model: nomic-embed-text

github:
  user: ""
  token: ${GITHUB_TOKEN}

anythingllm:
  url: http://localhost:3001
  apikey: ${ANYTHINGLLM_API_KEY}

scan:
  subnets:
    - 192.168.1.0/24
  interval_hours: 24
  # esxi:
  #   host: 192.168.1.20
  #   user: root
  #   key: /keys/esxi_rsa
  # synology:
  #   host: 192.168.1.30
  #   user: root
  #   key: /keys/synology_ed25519

# services: omit to use the built-in postgres/xwiki/anythingllm stack.
`
