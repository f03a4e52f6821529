package scan

import (
	"context"
	"strings"
	"time"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/pkg/errs"
)

// commandRunner executes a shell command on a remote scan target. Satisfied
// by *remote.Pool.
type commandRunner interface {
	Run(ctx context.Context, target v1.ScanTargetSpec, cmd string) (string, int, error)
}

// ESXiScanner collects VM, datastore and network inventory from an ESXi
// host over SSH.
type ESXiScanner struct {
	target v1.ScanTargetSpec
	runner commandRunner
	log    *logger.Logger
}

// NewESXiScanner builds a scanner for one ESXi target.
func NewESXiScanner(target v1.ScanTargetSpec, runner commandRunner, log *logger.Logger) *ESXiScanner {
	return &ESXiScanner{target: target, runner: runner, log: log}
}

// Scan runs the inventory commands and parses their output.
func (s *ESXiScanner) Scan(ctx context.Context) (*v1.ESXiScanResult, error) {
	if s.target.Host == "" {
		return nil, errs.Newf(errs.ErrScanSkipped, "scan-esxi", "no ESXi host configured").
			WithAdvice("set scan.esxi.host in autodoc.yaml")
	}

	result := &v1.ESXiScanResult{
		ScanTime: time.Now().UTC(),
		Host:     s.target.Host,
	}

	hostname, err := s.run(ctx, "hostname")
	if err != nil {
		return nil, err
	}
	result.Hostname = hostname

	if version, err := s.run(ctx, "vmware -v"); err == nil {
		result.Version = version
	}

	vmRaw, err := s.run(ctx, "vim-cmd vmsvc/getallvms")
	if err != nil {
		return nil, err
	}
	result.VMs = parseVMList(vmRaw)

	dsRaw, err := s.run(ctx, "esxcli storage filesystem list")
	if err != nil {
		return nil, err
	}
	result.Datastores = parseDatastores(dsRaw)

	// Raw network output goes to the wiki page verbatim.
	if out, err := s.run(ctx, "esxcli network vswitch standard list"); err == nil {
		result.VSwitches = out
	}
	if out, err := s.run(ctx, "esxcli network nic list"); err == nil {
		result.NICs = out
	}

	s.log.Info("esxi scan complete",
		"host", result.Hostname, "vms", len(result.VMs), "datastores", len(result.Datastores))
	return result, nil
}

func (s *ESXiScanner) run(ctx context.Context, cmd string) (string, error) {
	out, status, err := s.runner.Run(ctx, s.target, cmd)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrScanSSH, "scan-esxi").WithResource(cmd)
	}
	if status != 0 {
		s.log.Warn("esxi command exited non-zero", "cmd", cmd, "status", status)
	}
	return strings.TrimSpace(out), nil
}

// parseVMList parses `vim-cmd vmsvc/getallvms` output. The first line is a
// column header; each VM line starts with a numeric id and a name.
func parseVMList(raw string) []v1.ESXiVM {
	var vms []v1.ESXiVM
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		if i == 0 {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 4 {
			continue
		}
		vms = append(vms, v1.ESXiVM{
			ID:   parts[0],
			Name: parts[1],
			Raw:  strings.TrimSpace(line),
		})
	}
	return vms
}

// parseDatastores parses `esxcli storage filesystem list` output. Rows
// follow a "Mount Point" header and a dashed separator; the volume label is
// the last column unless it is a path.
func parseDatastores(raw string) []v1.ESXiDatastore {
	var datastores []v1.ESXiDatastore
	headerFound := false
	for _, line := range strings.Split(raw, "\n") {
		if strings.Contains(line, "Mount Point") {
			headerFound = true
			continue
		}
		if strings.HasPrefix(line, "---") {
			continue
		}
		if !headerFound || strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 4 {
			continue
		}
		name := parts[len(parts)-1]
		if strings.HasPrefix(name, "/") {
			name = ""
		}
		datastores = append(datastores, v1.ESXiDatastore{
			MountPoint: parts[0],
			Name:       name,
			Raw:        strings.TrimSpace(line),
		})
	}
	return datastores
}
