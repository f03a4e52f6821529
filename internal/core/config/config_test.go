package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "autodoc.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "version: \"1\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Ports.Wiki != 8085 || cfg.Ports.Bridge != 8090 ||
		cfg.Ports.Scanner != 8091 || cfg.Ports.AnythingLLM != 3001 {
		t.Errorf("default ports wrong: %+v", cfg.Ports)
	}
	if cfg.Scan.IntervalHours != 24 {
		t.Errorf("default scan interval = %d, want 24", cfg.Scan.IntervalHours)
	}
	if len(cfg.Services) != 3 {
		t.Fatalf("expected built-in 3-service stack, got %d", len(cfg.Services))
	}
	dirs := cfg.DataDirs()
	want := []string{
		filepath.Join("data", "postgres"),
		filepath.Join("data", "xwiki"),
		filepath.Join("data", "anythingllm"),
	}
	if len(dirs) != len(want) {
		t.Fatalf("data dirs = %v", dirs)
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Errorf("data dir %d = %q, want %q", i, dirs[i], want[i])
		}
	}
}

func TestLegacyPortEnvOverride(t *testing.T) {
	t.Setenv("AUTODOC_PORT", "9000")
	t.Setenv("BRIDGE_PORT", "9001")

	cfg, err := Load(writeConfig(t, "version: \"1\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ports.Scanner != 9000 {
		t.Errorf("AUTODOC_PORT override: scanner port = %d, want 9000", cfg.Ports.Scanner)
	}
	if cfg.Ports.Bridge != 9001 {
		t.Errorf("BRIDGE_PORT override: bridge port = %d, want 9001", cfg.Ports.Bridge)
	}
	if !strings.Contains(cfg.ScannerURL(), ":9000") {
		t.Errorf("scanner URL %q should carry the override", cfg.ScannerURL())
	}
}

func TestLegacyScannerEnvOverride(t *testing.T) {
	t.Setenv("ESXI_HOST", "192.168.1.20")
	t.Setenv("ESXI_SSH_KEY_PATH", "/keys/esxi_rsa")
	t.Setenv("SYNOLOGY_HOST", "192.168.1.30")
	t.Setenv("SCAN_SUBNETS", "10.0.0.0/24,10.0.1.0/24")
	t.Setenv("SCAN_INTERVAL_HOURS", "6")
	t.Setenv("AUTODOC_SCAN_SYNOLOGY_USER", "backup")

	cfg, err := Load(writeConfig(t, "version: \"1\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scan.ESXi.Host != "192.168.1.20" {
		t.Errorf("ESXI_HOST: host = %q", cfg.Scan.ESXi.Host)
	}
	if cfg.Scan.ESXi.Key != "/keys/esxi_rsa" {
		t.Errorf("ESXI_SSH_KEY_PATH: key = %q", cfg.Scan.ESXi.Key)
	}
	if cfg.Scan.Synology.Host != "192.168.1.30" {
		t.Errorf("SYNOLOGY_HOST: host = %q", cfg.Scan.Synology.Host)
	}
	if cfg.Scan.Synology.User != "backup" {
		t.Errorf("prefixed synology user = %q", cfg.Scan.Synology.User)
	}
	if len(cfg.Scan.Subnets) != 2 || cfg.Scan.Subnets[0] != "10.0.0.0/24" || cfg.Scan.Subnets[1] != "10.0.1.0/24" {
		t.Errorf("SCAN_SUBNETS: subnets = %v", cfg.Scan.Subnets)
	}
	if cfg.Scan.IntervalHours != 6 {
		t.Errorf("SCAN_INTERVAL_HOURS: interval = %d", cfg.Scan.IntervalHours)
	}
}

func TestPortDefaultWhenUnset(t *testing.T) {
	// Properties from the dispatcher contract: unset AUTODOC_PORT → 8091.
	cfg, err := Load(writeConfig(t, "version: \"1\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(cfg.ScannerURL(), ":8091") {
		t.Errorf("scanner URL %q should use literal default 8091", cfg.ScannerURL())
	}
	if !strings.Contains(cfg.BridgeURL(), ":8090") {
		t.Errorf("bridge URL %q should use literal default 8090", cfg.BridgeURL())
	}
}

func TestLoadRejectsMalformedConfig(t *testing.T) {
	_, err := Load(writeConfig(t, "services: [unclosed\n"))
	if err == nil {
		t.Fatal("malformed explicit config must be an error")
	}
}

func TestLoadRejectsMalformedDiscoveredConfig(t *testing.T) {
	// A corrupt autodoc.yaml found by directory walking must fail the
	// load rather than leave the stack running on factory defaults.
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "autodoc.yaml"), []byte("ports: {wiki: [broken\n"), 0644); err != nil {
		t.Fatal(err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	if _, err := Load(""); err == nil {
		t.Fatal("malformed discovered config must be an error")
	}
}

func TestValidateRejectsDuplicates(t *testing.T) {
	_, err := Load(writeConfig(t, `
services:
  - name: web
    image: nginx:alpine
  - name: web
    image: nginx:alpine
`))
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("expected duplicate service error, got %v", err)
	}
}

func TestValidateRejectsBadSubnet(t *testing.T) {
	_, err := Load(writeConfig(t, `
scan:
  subnets:
    - 192.168.1.5
`))
	if err == nil || !strings.Contains(err.Error(), "CIDR") {
		t.Errorf("expected CIDR validation error, got %v", err)
	}
}

func TestEnvExpansionInServiceEnvironment(t *testing.T) {
	t.Setenv("POSTGRES_PASSWORD", "s3cret")
	cfg, err := Load(writeConfig(t, `
services:
  - name: db
    image: postgres:15
    environment:
      POSTGRES_PASSWORD: ${POSTGRES_PASSWORD}
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Services[0].Environment["POSTGRES_PASSWORD"]; got != "s3cret" {
		t.Errorf("env expansion: got %q", got)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("XWIKI_ADMIN_PASSWORD=hunter2\nGITHUB_USER=octocat\n"), 0600); err != nil {
		t.Fatal(err)
	}

	env, err := LoadEnvFile(path)
	if err != nil {
		t.Fatalf("load env file: %v", err)
	}
	if env["XWIKI_ADMIN_PASSWORD"] != "hunter2" || env["GITHUB_USER"] != "octocat" {
		t.Errorf("env map wrong: %v", env)
	}

	if _, err := LoadEnvFile(filepath.Join(dir, "missing.env")); err == nil {
		t.Error("missing env file must be an error")
	}
}

func TestIsSensitiveKey(t *testing.T) {
	for _, key := range []string{"wiki.password", "github.token", "anythingllm.apikey", "ssh_key"} {
		if !IsSensitiveKey(key) {
			t.Errorf("%q should be sensitive", key)
		}
	}
	if IsSensitiveKey("ports.bridge") {
		t.Error("ports.bridge should not be sensitive")
	}
}
