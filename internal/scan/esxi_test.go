package scan

import (
	"context"
	"testing"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/pkg/errs"
)

const sampleVMList = `Vmid   Name            File                            Guest OS       Version   Annotation
1      dns-server      [datastore1] dns/dns.vmx      debian11_64Guest   vmx-19
4      homeassistant   [datastore1] ha/ha.vmx        ubuntu64Guest      vmx-19
12     truenas         [nvme-ds] truenas/tn.vmx      freebsd12_64Guest  vmx-20
`

const sampleFilesystems = `Mount Point                                        Volume Name  UUID                                 Mounted  Type            Size          Free
-------------------------------------------------  -----------  -----------------------------------  -------  ------  ------------  ------------
/vmfs/volumes/5f1a2b3c-deadbeef                    datastore1   5f1a2b3c-deadbeef                       true  VMFS-6  991937495040  436848361472
/vmfs/volumes/60aa11bb-cafef00d                    nvme-ds      60aa11bb-cafef00d                       true  VMFS-6  511571001344  122406567936
/vmfs/volumes/abc123                               BOOTBANK1    abc123                                  true  vfat      4293591040    4022337536
`

func TestParseVMList(t *testing.T) {
	vms := parseVMList(sampleVMList)
	if len(vms) != 3 {
		t.Fatalf("parseVMList returned %d VMs, want 3", len(vms))
	}
	if vms[0].ID != "1" || vms[0].Name != "dns-server" {
		t.Errorf("first VM = %+v, want id 1 name dns-server", vms[0])
	}
	if vms[2].ID != "12" || vms[2].Name != "truenas" {
		t.Errorf("last VM = %+v, want id 12 name truenas", vms[2])
	}
	if vms[1].Raw == "" {
		t.Error("raw line not preserved")
	}
}

func TestParseVMListEmpty(t *testing.T) {
	if vms := parseVMList("Vmid Name File Guest OS Version Annotation\n"); len(vms) != 0 {
		t.Errorf("header-only output produced %d VMs", len(vms))
	}
	if vms := parseVMList(""); len(vms) != 0 {
		t.Errorf("empty output produced %d VMs", len(vms))
	}
}

func TestParseDatastores(t *testing.T) {
	ds := parseDatastores(sampleFilesystems)
	if len(ds) != 3 {
		t.Fatalf("parseDatastores returned %d entries, want 3", len(ds))
	}
	if ds[0].MountPoint != "/vmfs/volumes/5f1a2b3c-deadbeef" {
		t.Errorf("mount point = %q", ds[0].MountPoint)
	}
	if ds[0].Name == "" {
		t.Error("volume name not captured from last column")
	}
}

func TestParseDatastoresNoHeader(t *testing.T) {
	raw := "/vmfs/volumes/xyz  vol  uuid  true\n"
	if ds := parseDatastores(raw); len(ds) != 0 {
		t.Errorf("rows before the header should be ignored, got %d", len(ds))
	}
}

type scriptedRunner struct {
	outputs map[string]string
}

func (s *scriptedRunner) Run(_ context.Context, _ v1.ScanTargetSpec, cmd string) (string, int, error) {
	return s.outputs[cmd], 0, nil
}

func TestESXiScan(t *testing.T) {
	runner := &scriptedRunner{outputs: map[string]string{
		"hostname":                       "esxi01.lan",
		"vmware -v":                      "VMware ESXi 8.0.2 build-22380479",
		"vim-cmd vmsvc/getallvms":        sampleVMList,
		"esxcli storage filesystem list": sampleFilesystems,
	}}
	s := NewESXiScanner(v1.ScanTargetSpec{Name: "esxi", Host: "192.168.1.10"}, runner, logger.Discard())

	result, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Hostname != "esxi01.lan" {
		t.Errorf("hostname = %q", result.Hostname)
	}
	if len(result.VMs) != 3 || len(result.Datastores) != 3 {
		t.Errorf("got %d VMs, %d datastores", len(result.VMs), len(result.Datastores))
	}
}

func TestESXiScanUnconfigured(t *testing.T) {
	s := NewESXiScanner(v1.ScanTargetSpec{}, &scriptedRunner{}, logger.Discard())
	_, err := s.Scan(context.Background())
	if !errs.IsCode(err, errs.ErrScanSkipped) {
		t.Fatalf("want %s, got %v", errs.ErrScanSkipped, err)
	}
}
