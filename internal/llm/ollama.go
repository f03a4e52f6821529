// Package llm holds the clients for the two model services: Ollama for
// generation and embeddings, AnythingLLM for the RAG workspace.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/pkg/errs"
)

// analysisLimit caps the serialized scan payload passed to the model so the
// prompt fits in context.
const analysisLimit = 8000

// Ollama calls the Ollama HTTP API with non-streaming requests.
type Ollama struct {
	url        string
	model      string
	embedModel string
	http       *http.Client
	log        *logger.Logger
}

// NewOllama builds a client for the Ollama instance at url.
func NewOllama(url, model, embedModel string, log *logger.Logger) *Ollama {
	return &Ollama{
		url:        url,
		model:      model,
		embedModel: embedModel,
		http:       &http.Client{Timeout: 120 * time.Second},
		log:        log,
	}
}

// Model returns the generation model name, for API responses.
func (o *Ollama) Model() string { return o.model }

// Generate produces a completion. The system prompt may be empty.
func (o *Ollama) Generate(ctx context.Context, prompt, system string) (string, error) {
	payload := map[string]any{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
	}
	if system != "" {
		payload["system"] = system
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := o.post(ctx, "/api/generate", payload, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// Embeddings returns the embedding vector for text using the embed model.
func (o *Ollama) Embeddings(ctx context.Context, text string) ([]float64, error) {
	payload := map[string]any{
		"model":  o.embedModel,
		"prompt": text,
	}
	var out struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := o.post(ctx, "/api/embeddings", payload, &out); err != nil {
		return nil, err
	}
	return out.Embedding, nil
}

// Summarize condenses text for documentation pages.
func (o *Ollama) Summarize(ctx context.Context, text string) (string, error) {
	return o.Generate(ctx,
		"Summarize the following text concisely:\n\n"+text,
		"You are a technical documentation assistant. Provide clear, concise summaries.")
}

// GenerateRunbook turns free-form notes into an operational runbook.
func (o *Ollama) GenerateRunbook(ctx context.Context, text string) (string, error) {
	return o.Generate(ctx,
		"Create a step-by-step operational runbook from this information:\n\n"+text,
		"You are an infrastructure documentation expert. Generate clear, actionable runbooks "+
			"with numbered steps, prerequisites, and rollback procedures.")
}

// Classify buckets text into infrastructure categories.
func (o *Ollama) Classify(ctx context.Context, text string) (string, error) {
	return o.Generate(ctx,
		"Classify this text into one or more categories (Network, Security, Storage, Compute, "+
			"Application, Monitoring, Other) and explain why:\n\n"+text,
		"You are a technical content classifier. Return a JSON object with 'categories' (list) "+
			"and 'reasoning' (string).")
}

// AnalyzeScan summarizes a scan payload for its wiki page. The payload is
// truncated to analysisLimit bytes of JSON before prompting.
func (o *Ollama) AnalyzeScan(ctx context.Context, scanType string, data any) (string, error) {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", errs.Wrap(err, errs.ErrScanAnalysis, "analyze-scan")
	}
	dataStr := string(raw)
	if len(dataStr) > analysisLimit {
		dataStr = dataStr[:analysisLimit] + "\n... (truncated)"
	}

	prompt := fmt.Sprintf(
		"Analyze these %s scan results from a homelab environment. Provide:\n"+
			"1. A brief summary of what was found\n"+
			"2. Any potential issues or security concerns\n"+
			"3. Recommendations for improvement\n\n"+
			"Scan data:\n%s", scanType, dataStr)

	result, err := o.Generate(ctx, prompt,
		"You are an infrastructure documentation expert analyzing scan results. Be concise and actionable.")
	if err != nil {
		return "", errs.Wrap(err, errs.ErrScanAnalysis, "analyze-scan")
	}
	return result, nil
}

func (o *Ollama) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return errs.Wrap(err, errs.ErrScanAnalysis, "ollama-post").
			WithAdvice("check ollama.url in autodoc.yaml and that the Ollama service is running")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return errs.Newf(errs.ErrScanAnalysis, "ollama-post",
			"ollama returned %s for %s", resp.Status, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
