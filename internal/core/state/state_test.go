package state

import (
	"path/filepath"
	"testing"
	"time"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestServiceStateRoundtrip(t *testing.T) {
	db := openTestDB(t)

	if s, err := db.GetServiceState("xwiki"); err != nil || s != nil {
		t.Fatalf("missing record should be nil,nil; got %v, %v", s, err)
	}

	in := v1.ServiceState{
		Name:        "xwiki",
		ContainerID: "abc123def456",
		Image:       "xwiki:stable-postgres-tomcat",
		Status:      v1.StatusHealthy,
		Ports:       []string{"8085:8080"},
		StartedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := db.PutServiceState(in); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := db.GetServiceState("xwiki")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ContainerID != in.ContainerID || got.Status != v1.StatusHealthy {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	if err := db.DeleteServiceState("xwiki"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s, _ := db.GetServiceState("xwiki"); s != nil {
		t.Error("record should be gone after delete")
	}
}

func TestScanRecordsFilteredAndOrdered(t *testing.T) {
	db := openTestDB(t)

	base := time.Now().UTC()
	recs := []v1.ScanRecord{
		{ID: "1", Kind: v1.ScanDocker, StartedAt: base.Add(-2 * time.Hour), Result: "success", ItemCount: 12},
		{ID: "2", Kind: v1.ScanNetwork, StartedAt: base.Add(-1 * time.Hour), Result: "success", ItemCount: 9},
		{ID: "3", Kind: v1.ScanDocker, StartedAt: base, Result: "failure", Error: "daemon unreachable"},
	}
	for _, r := range recs {
		if err := db.PutScanRecord(r); err != nil {
			t.Fatalf("put %s: %v", r.ID, err)
		}
	}

	docker, err := db.ListScanRecords(v1.ScanDocker)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docker) != 2 {
		t.Fatalf("want 2 docker records, got %d", len(docker))
	}
	if docker[0].ID != "3" {
		t.Errorf("newest first: got %s", docker[0].ID)
	}

	all, err := db.ListScanRecords("")
	if err != nil || len(all) != 3 {
		t.Errorf("all records: %d, err %v", len(all), err)
	}
}

func TestSyncRecords(t *testing.T) {
	db := openTestDB(t)

	if err := db.PutSyncRecord(v1.SyncRecord{ID: "s1", StartedAt: time.Now(), Synced: 42, Errors: 1}); err != nil {
		t.Fatalf("put: %v", err)
	}
	recs, err := db.ListSyncRecords()
	if err != nil || len(recs) != 1 || recs[0].Synced != 42 {
		t.Errorf("sync records: %+v err %v", recs, err)
	}
}
