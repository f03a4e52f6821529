package scan

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/internal/core/state"
	"github.com/autodoc-sh/autodoc/pkg/errs"
)

// Analyzer produces an AI summary for a scan payload. Satisfied by
// *llm.Ollama.
type Analyzer interface {
	AnalyzeScan(ctx context.Context, scanType string, data any) (string, error)
}

// PageWriter publishes a scan result to the wiki and returns the page
// reference. Satisfied by *wiki.ScanWriter.
type PageWriter interface {
	WriteScanPage(ctx context.Context, kind v1.ScanKind, title string, data any, analysis string) (string, error)
}

// Runner drives one scan end to end: collect, analyze, publish, record.
type Runner struct {
	docker   *DockerScanner
	network  *NetworkScanner
	esxi     *ESXiScanner
	synology *SynologyScanner

	analyzer Analyzer
	writer   PageWriter
	state    *state.DB
	log      *logger.Logger
}

// NewRunner wires the four scanners to the analyzer, wiki writer and
// history store. Any of analyzer or writer may be nil; the corresponding
// stage is then skipped.
func NewRunner(docker *DockerScanner, network *NetworkScanner, esxi *ESXiScanner,
	synology *SynologyScanner, analyzer Analyzer, writer PageWriter,
	st *state.DB, log *logger.Logger) *Runner {
	return &Runner{
		docker:   docker,
		network:  network,
		esxi:     esxi,
		synology: synology,
		analyzer: analyzer,
		writer:   writer,
		state:    st,
		log:      log,
	}
}

// Summary is the outcome of one scan run, returned to API callers.
type Summary struct {
	Kind      v1.ScanKind `json:"kind"`
	Result    string      `json:"result"`
	ItemCount int         `json:"item_count"`
	WikiPage  string      `json:"wiki_page,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Run executes the scan of the given kind.
func (r *Runner) Run(ctx context.Context, kind v1.ScanKind, scheduled bool) Summary {
	switch kind {
	case v1.ScanDocker:
		return r.finish(ctx, kind, scheduled, func(ctx context.Context) (any, string, int, error) {
			res, err := r.docker.Scan(ctx)
			if err != nil {
				return nil, "", 0, err
			}
			return res, "Docker - Infrastructure", res.TotalContainers, nil
		})
	case v1.ScanNetwork:
		return r.finish(ctx, kind, scheduled, func(ctx context.Context) (any, string, int, error) {
			res, err := r.network.Scan(ctx)
			if err != nil {
				return nil, "", 0, err
			}
			return res, "Network - Discovery", res.HostsFound, nil
		})
	case v1.ScanESXi:
		return r.finish(ctx, kind, scheduled, func(ctx context.Context) (any, string, int, error) {
			res, err := r.esxi.Scan(ctx)
			if err != nil {
				return nil, "", 0, err
			}
			return res, "ESXi - " + res.Hostname, len(res.VMs), nil
		})
	case v1.ScanSynology:
		return r.finish(ctx, kind, scheduled, func(ctx context.Context) (any, string, int, error) {
			res, err := r.synology.Scan(ctx)
			if err != nil {
				return nil, "", 0, err
			}
			return res, "Synology - " + res.Hostname, 1, nil
		})
	default:
		return Summary{Kind: kind, Result: "failure", Error: "unknown scan kind"}
	}
}

// RunAll executes every scan kind in order. A failing scan does not stop
// the others.
func (r *Runner) RunAll(ctx context.Context, scheduled bool) map[v1.ScanKind]Summary {
	out := make(map[v1.ScanKind]Summary, len(v1.AllScanKinds))
	for _, kind := range v1.AllScanKinds {
		out[kind] = r.Run(ctx, kind, scheduled)
		if ctx.Err() != nil {
			break
		}
	}
	return out
}

// finish runs a collect function, then the analyze/publish/record tail
// shared by all kinds.
func (r *Runner) finish(ctx context.Context, kind v1.ScanKind, scheduled bool,
	collect func(ctx context.Context) (any, string, int, error)) Summary {

	started := time.Now()
	rec := v1.ScanRecord{
		ID:        newID(),
		Kind:      kind,
		StartedAt: started.UTC(),
		Scheduled: scheduled,
	}

	data, title, count, err := collect(ctx)
	if err != nil {
		if errs.IsCode(err, errs.ErrScanSkipped) {
			rec.Result = "skipped"
		} else {
			rec.Result = "failure"
		}
		rec.Error = err.Error()
		return r.record(rec, started)
	}
	rec.ItemCount = count

	analysis := ""
	if r.analyzer != nil {
		analysis, err = r.analyzer.AnalyzeScan(ctx, string(kind), data)
		if err != nil {
			// Analysis is additive; a failed model call does not fail the scan.
			r.log.Warn("scan analysis failed", "kind", kind, "err", err)
			analysis = "(AI analysis unavailable: " + err.Error() + ")"
		} else {
			rec.AIAnalyzed = true
		}
	}

	if r.writer != nil {
		page, err := r.writer.WriteScanPage(ctx, kind, title, data, analysis)
		if err != nil {
			rec.Result = "failure"
			rec.Error = err.Error()
			return r.record(rec, started)
		}
		rec.WikiPage = page
	}

	rec.Result = "success"
	return r.record(rec, started)
}

func (r *Runner) record(rec v1.ScanRecord, started time.Time) Summary {
	rec.Duration = time.Since(started).Round(time.Millisecond).String()
	if r.state != nil {
		if err := r.state.PutScanRecord(rec); err != nil {
			r.log.Warn("scan history write failed", "kind", rec.Kind, "err", err)
		}
	}
	r.log.Info("scan finished",
		"kind", rec.Kind, "result", rec.Result, "items", rec.ItemCount, "duration", rec.Duration)
	return Summary{
		Kind:      rec.Kind,
		Result:    rec.Result,
		ItemCount: rec.ItemCount,
		WikiPage:  rec.WikiPage,
		Error:     rec.Error,
	}
}

func newID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// Scan IDs only need uniqueness, not unpredictability.
		binary.BigEndian.PutUint64(b[:], uint64(time.Now().UnixNano()))
	}
	return hex.EncodeToString(b[:])
}
