package server

import (
	"context"
	"encoding/json"
	"net/http"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/internal/core/state"
	"github.com/autodoc-sh/autodoc/internal/scan"
)

// scanRunner is the slice of scan.Runner the API needs.
type scanRunner interface {
	Run(ctx context.Context, kind v1.ScanKind, scheduled bool) scan.Summary
	RunAll(ctx context.Context, scheduled bool) map[v1.ScanKind]scan.Summary
}

// ScannerAPI serves the scan trigger endpoints and scan history.
type ScannerAPI struct {
	runner scanRunner
	state  *state.DB
	log    *logger.Logger
}

// NewScannerAPI builds the API. state may be nil; history then returns 404.
func NewScannerAPI(runner scanRunner, st *state.DB, log *logger.Logger) *ScannerAPI {
	return &ScannerAPI{runner: runner, state: st, log: log}
}

// Handler returns the route table for the Scanner API.
func (a *ScannerAPI) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "autodoc"})
	})
	mux.HandleFunc("POST /api/scan/all", a.handleScanAll)
	mux.HandleFunc("POST /api/scan/docker", a.handleScan(v1.ScanDocker))
	mux.HandleFunc("POST /api/scan/network", a.handleScan(v1.ScanNetwork))
	mux.HandleFunc("POST /api/scan/esxi", a.handleScan(v1.ScanESXi))
	mux.HandleFunc("POST /api/scan/synology", a.handleScan(v1.ScanSynology))
	mux.HandleFunc("GET /api/scan/history", a.handleHistory)
	return mux
}

func (a *ScannerAPI) handleScan(kind v1.ScanKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary := a.runner.Run(r.Context(), kind, false)
		writeJSON(w, http.StatusOK, summary)
	}
}

func (a *ScannerAPI) handleScanAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.runner.RunAll(r.Context(), false))
}

func (a *ScannerAPI) handleHistory(w http.ResponseWriter, r *http.Request) {
	if a.state == nil {
		writeError(w, http.StatusNotFound, "scan history not available")
		return
	}
	kind := v1.ScanKind(r.URL.Query().Get("kind"))
	records, err := a.state.ListScanRecords(kind)
	if err != nil {
		a.log.Error("scan history read failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []v1.ScanRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
