package scan

import (
	"context"
	"strings"
	"time"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/pkg/errs"
)

// SynologyScanner collects DSM version, disk usage, shares and installed
// packages from a Synology NAS over SSH.
type SynologyScanner struct {
	target v1.ScanTargetSpec
	runner commandRunner
	log    *logger.Logger
}

// NewSynologyScanner builds a scanner for one Synology target.
func NewSynologyScanner(target v1.ScanTargetSpec, runner commandRunner, log *logger.Logger) *SynologyScanner {
	return &SynologyScanner{target: target, runner: runner, log: log}
}

// Scan runs the collection commands. Most of the output is kept raw; the
// wiki writer renders it in preformatted blocks.
func (s *SynologyScanner) Scan(ctx context.Context) (*v1.SynologyScanResult, error) {
	if s.target.Host == "" {
		return nil, errs.Newf(errs.ErrScanSkipped, "scan-synology", "no Synology host configured").
			WithAdvice("set scan.synology.host in autodoc.yaml")
	}

	result := &v1.SynologyScanResult{
		ScanTime: time.Now().UTC(),
		Host:     s.target.Host,
	}

	hostname, err := s.run(ctx, "hostname")
	if err != nil {
		return nil, err
	}
	result.Hostname = hostname

	result.DSMVersion, _ = s.run(ctx, "cat /etc.defaults/VERSION 2>/dev/null | head -5")
	result.DiskUsage, _ = s.run(ctx, "df -h")
	result.Shares, _ = s.run(ctx, "synoshare --enum ALL 2>/dev/null || ls /volume1 /volume2 2>/dev/null")
	result.Packages, _ = s.run(ctx, "synopkg list 2>/dev/null")
	result.PackagesStatus, _ = s.run(ctx, "synopkg status_all 2>/dev/null || true")
	result.Network, _ = s.run(ctx, "ip addr show 2>/dev/null || ifconfig")

	s.log.Info("synology scan complete", "host", result.Hostname)
	return result, nil
}

func (s *SynologyScanner) run(ctx context.Context, cmd string) (string, error) {
	out, _, err := s.runner.Run(ctx, s.target, cmd)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrScanSSH, "scan-synology").WithResource(cmd)
	}
	return strings.TrimSpace(out), nil
}
