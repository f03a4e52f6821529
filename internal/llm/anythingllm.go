package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/pkg/errs"
)

// Workspace is one AnythingLLM workspace.
type Workspace struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// AnythingLLM talks to the AnythingLLM v1 API for RAG ingestion.
type AnythingLLM struct {
	url    string
	apiKey string
	http   *http.Client
	log    *logger.Logger
}

// NewAnythingLLM builds a client for the instance at url.
func NewAnythingLLM(url, apiKey string, log *logger.Logger) *AnythingLLM {
	return &AnythingLLM{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 60 * time.Second},
		log:    log,
	}
}

// Workspaces lists all workspaces.
func (a *AnythingLLM) Workspaces(ctx context.Context) ([]Workspace, error) {
	var out struct {
		Workspaces []Workspace `json:"workspaces"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/v1/workspaces", nil, &out); err != nil {
		return nil, err
	}
	return out.Workspaces, nil
}

// CreateWorkspace creates a workspace and returns it.
func (a *AnythingLLM) CreateWorkspace(ctx context.Context, name string) (*Workspace, error) {
	var out struct {
		Workspace Workspace `json:"workspace"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/v1/workspace/new",
		map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	a.log.Info("anythingllm workspace created", "name", name, "slug", out.Workspace.Slug)
	return &out.Workspace, nil
}

// EnsureWorkspace returns the slug of the named workspace, creating it if
// needed. Name matching is case-insensitive.
func (a *AnythingLLM) EnsureWorkspace(ctx context.Context, name string) (string, error) {
	workspaces, err := a.Workspaces(ctx)
	if err != nil {
		return "", err
	}
	for _, ws := range workspaces {
		if strings.EqualFold(ws.Name, name) {
			return ws.Slug, nil
		}
	}

	ws, err := a.CreateWorkspace(ctx, name)
	if err != nil {
		return "", err
	}
	if ws.Slug == "" {
		return strings.ToLower(name), nil
	}
	return ws.Slug, nil
}

// IngestText pushes raw text into a workspace: upload the document, then
// add its location to the workspace embeddings.
func (a *AnythingLLM) IngestText(ctx context.Context, workspaceSlug, title, text string) error {
	payload := map[string]any{
		"textContent": text,
		"metadata": map[string]string{
			"title":  title,
			"source": "autodoc-bridge",
		},
	}
	var doc struct {
		Documents []struct {
			Location string `json:"location"`
		} `json:"documents"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/v1/document/raw-text", payload, &doc); err != nil {
		return err
	}

	if len(doc.Documents) == 0 || doc.Documents[0].Location == "" {
		return errs.Newf(errs.ErrRAGIngest, "ingest-text",
			"anythingllm did not return a document location for %q", title)
	}

	embed := map[string]any{"adds": []string{doc.Documents[0].Location}}
	if err := a.do(ctx, http.MethodPost,
		"/api/v1/workspace/"+workspaceSlug+"/update-embeddings", embed, nil); err != nil {
		return err
	}

	a.log.Info("rag document ingested", "workspace", workspaceSlug, "title", title)
	return nil
}

func (a *AnythingLLM) do(ctx context.Context, method, path string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.url+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return errs.Wrap(err, errs.ErrRAGIngest, "anythingllm-"+method).WithResource(path).
			WithAdvice("check anythingllm.url and anythingllm.apikey in autodoc.yaml")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return errs.Newf(errs.ErrRAGIngest, "anythingllm-"+method,
			"anythingllm returned %s for %s", resp.Status, path)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
