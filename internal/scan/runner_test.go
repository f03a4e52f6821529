package scan

import (
	"context"
	"encoding/hex"
	"errors"
	"net"
	"path/filepath"
	"testing"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/internal/core/state"
)

type stubAnalyzer struct {
	summary string
	err     error
	calls   int
}

func (a *stubAnalyzer) AnalyzeScan(context.Context, string, any) (string, error) {
	a.calls++
	return a.summary, a.err
}

type stubWriter struct {
	page     string
	err      error
	analysis string
}

func (w *stubWriter) WriteScanPage(_ context.Context, _ v1.ScanKind, _ string, _ any, analysis string) (string, error) {
	w.analysis = analysis
	return w.page, w.err
}

func openTestState(t *testing.T) *state.DB {
	t.Helper()
	db, err := state.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// runnerWithNetwork builds a Runner whose network scanner probes a live
// local listener, so the scan succeeds without any infrastructure.
func runnerWithNetwork(t *testing.T, analyzer Analyzer, writer PageWriter, db *state.DB) *Runner {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	port := l.Addr().(*net.TCPAddr).Port

	network := NewNetworkScanner([]string{"127.0.0.1/32"}, []int{port}, logger.Discard())
	esxi := NewESXiScanner(v1.ScanTargetSpec{}, &scriptedRunner{}, logger.Discard())
	return NewRunner(nil, network, esxi, nil, analyzer, writer, db, logger.Discard())
}

func TestRunnerSuccessPath(t *testing.T) {
	db := openTestState(t)
	analyzer := &stubAnalyzer{summary: "one host found"}
	writer := &stubWriter{page: "Infrastructure.NetworkDiscovery"}
	r := runnerWithNetwork(t, analyzer, writer, db)

	sum := r.Run(context.Background(), v1.ScanNetwork, false)
	if sum.Result != "success" {
		t.Fatalf("result = %q (%s)", sum.Result, sum.Error)
	}
	if sum.ItemCount != 1 {
		t.Errorf("item_count = %d, want 1", sum.ItemCount)
	}
	if sum.WikiPage != "Infrastructure.NetworkDiscovery" {
		t.Errorf("wiki_page = %q", sum.WikiPage)
	}
	if analyzer.calls != 1 {
		t.Errorf("analyzer called %d times", analyzer.calls)
	}
	if writer.analysis != "one host found" {
		t.Errorf("writer got analysis %q", writer.analysis)
	}

	recs, err := db.ListScanRecords(v1.ScanNetwork)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("history has %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Result != "success" || !rec.AIAnalyzed || rec.Scheduled {
		t.Errorf("record = %+v", rec)
	}
	if rec.ID == "" || rec.Duration == "" {
		t.Errorf("record missing id or duration: %+v", rec)
	}
}

func TestRunnerAnalyzerFailureDoesNotFailScan(t *testing.T) {
	db := openTestState(t)
	analyzer := &stubAnalyzer{err: errors.New("model not loaded")}
	writer := &stubWriter{page: "Infrastructure.NetworkDiscovery"}
	r := runnerWithNetwork(t, analyzer, writer, db)

	sum := r.Run(context.Background(), v1.ScanNetwork, false)
	if sum.Result != "success" {
		t.Fatalf("result = %q, analysis failure must not fail the scan", sum.Result)
	}
	if writer.analysis == "" {
		t.Error("writer should still get a placeholder analysis")
	}

	recs, _ := db.ListScanRecords(v1.ScanNetwork)
	if len(recs) != 1 || recs[0].AIAnalyzed {
		t.Errorf("record should show ai_analyzed=false: %+v", recs)
	}
}

func TestRunnerWriterFailure(t *testing.T) {
	db := openTestState(t)
	writer := &stubWriter{err: errors.New("wiki unreachable")}
	r := runnerWithNetwork(t, &stubAnalyzer{}, writer, db)

	sum := r.Run(context.Background(), v1.ScanNetwork, false)
	if sum.Result != "failure" {
		t.Fatalf("result = %q, want failure", sum.Result)
	}
	if sum.Error == "" {
		t.Error("summary should carry the writer error")
	}
}

func TestRunnerSkippedTarget(t *testing.T) {
	db := openTestState(t)
	r := runnerWithNetwork(t, nil, nil, db)

	sum := r.Run(context.Background(), v1.ScanESXi, true)
	if sum.Result != "skipped" {
		t.Fatalf("result = %q, want skipped for unconfigured target", sum.Result)
	}

	recs, _ := db.ListScanRecords(v1.ScanESXi)
	if len(recs) != 1 || !recs[0].Scheduled {
		t.Errorf("record = %+v", recs)
	}
}

func TestRunnerUnknownKind(t *testing.T) {
	r := runnerWithNetwork(t, nil, nil, nil)
	sum := r.Run(context.Background(), v1.ScanKind("bogus"), false)
	if sum.Result != "failure" {
		t.Errorf("result = %q", sum.Result)
	}
}

func TestNewIDFormat(t *testing.T) {
	a, b := newID(), newID()
	if len(a) != 16 {
		t.Fatalf("id %q: want 16 hex chars", a)
	}
	if _, err := hex.DecodeString(a); err != nil {
		t.Errorf("id %q is not hex: %v", a, err)
	}
	if a == b {
		t.Errorf("consecutive ids collide: %q", a)
	}
}
