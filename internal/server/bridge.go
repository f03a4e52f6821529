package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/autodoc-sh/autodoc/internal/bridge"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/pkg/errs"
)

// maxUploadBytes caps Word document uploads.
const maxUploadBytes = 32 << 20

// repoSyncer is the slice of bridge.Syncer the API needs.
type repoSyncer interface {
	Sync(ctx context.Context, repos []string) (*bridge.SyncResult, error)
}

// ragIngester is the slice of bridge.Ingester the API needs.
type ragIngester interface {
	IngestSpace(ctx context.Context, space, workspace string) (*bridge.IngestResult, error)
	IngestPage(ctx context.Context, space, page, workspace string) (*bridge.IngestResult, error)
}

// docImporter is the slice of bridge.Importer the API needs.
type docImporter interface {
	Import(ctx context.Context, space, filename, title string, data []byte) (*bridge.ImportResult, error)
}

// textModel is the slice of llm.Ollama the AI endpoints need.
type textModel interface {
	Summarize(ctx context.Context, text string) (string, error)
	GenerateRunbook(ctx context.Context, text string) (string, error)
	Classify(ctx context.Context, text string) (string, error)
	Model() string
}

// BridgeAPI serves GitHub sync, AI helpers, RAG ingestion and Word import.
type BridgeAPI struct {
	syncer   repoSyncer
	ingester ragIngester
	importer docImporter
	model    textModel
	log      *logger.Logger
}

// NewBridgeAPI builds the API.
func NewBridgeAPI(syncer repoSyncer, ingester ragIngester, importer docImporter,
	model textModel, log *logger.Logger) *BridgeAPI {
	return &BridgeAPI{
		syncer:   syncer,
		ingester: ingester,
		importer: importer,
		model:    model,
		log:      log,
	}
}

// Handler returns the route table for the Bridge API.
func (a *BridgeAPI) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "bridge"})
	})
	mux.HandleFunc("POST /api/github/sync", a.handleGitHubSync)
	mux.HandleFunc("POST /api/ai/summarize", a.handleAI(func(ctx context.Context, text string) (string, error) {
		return a.model.Summarize(ctx, text)
	}))
	mux.HandleFunc("POST /api/ai/runbook", a.handleAI(func(ctx context.Context, text string) (string, error) {
		return a.model.GenerateRunbook(ctx, text)
	}))
	mux.HandleFunc("POST /api/ai/classify", a.handleAI(func(ctx context.Context, text string) (string, error) {
		return a.model.Classify(ctx, text)
	}))
	mux.HandleFunc("POST /api/rag/ingest-space", a.handleIngestSpace)
	mux.HandleFunc("POST /api/rag/ingest-page", a.handleIngestPage)
	mux.HandleFunc("POST /api/import/word", a.handleWordImport)
	return mux
}

func (a *BridgeAPI) handleGitHubSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Repos []string `json:"repos"`
	}
	// The body is optional; an empty or absent body means "all repos".
	if body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)); err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
	}

	result, err := a.syncer.Sync(r.Context(), req.Repos)
	if err != nil {
		a.log.Error("github sync failed", "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *BridgeAPI) handleAI(generate func(ctx context.Context, text string) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
			writeError(w, http.StatusBadRequest, "body must be JSON with a non-empty \"text\" field")
			return
		}

		result, err := generate(r.Context(), req.Text)
		if err != nil {
			a.log.Error("ai request failed", "err", err)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"result": result,
			"model":  a.model.Model(),
		})
	}
}

type ragRequest struct {
	Space     string `json:"space"`
	Page      string `json:"page"`
	Workspace string `json:"workspace"`
}

func (a *BridgeAPI) handleIngestSpace(w http.ResponseWriter, r *http.Request) {
	var req ragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	result, err := a.ingester.IngestSpace(r.Context(), req.Space, req.Workspace)
	if err != nil {
		a.log.Error("rag space ingest failed", "space", req.Space, "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *BridgeAPI) handleIngestPage(w http.ResponseWriter, r *http.Request) {
	var req ragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	result, err := a.ingester.IngestPage(r.Context(), req.Space, req.Page, req.Workspace)
	if err != nil {
		if errs.IsCode(err, errs.ErrRAGIngest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *BridgeAPI) handleWordImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form with a \"file\" field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing \"file\" field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.importer.Import(r.Context(),
		r.FormValue("space"), header.Filename, r.FormValue("title"), data)
	if err != nil {
		if errs.IsCode(err, errs.ErrWordImport) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.log.Error("word import failed", "file", header.Filename, "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
