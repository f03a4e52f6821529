// Package trigger posts to the local Bridge and Scanner APIs on behalf of
// the CLI verbs (github-sync, scan-*).
package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/autodoc-sh/autodoc/pkg/errs"
)

// Client posts trigger requests to one API base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a trigger client for baseURL, e.g.
// "http://localhost:8090".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		// Scans and syncs run inline in the handler; give them room.
		http: &http.Client{Timeout: 10 * time.Minute},
	}
}

// Post sends a POST to path with an optional JSON body and returns the
// response body pretty-printed. An unreachable server or a non-2xx status
// is an error.
func (c *Client) Post(ctx context.Context, path string, body any) (string, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return "", err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrTriggerUnreachable, "trigger").WithResource(c.baseURL+path).
			WithAdvice("is the service running? start it with: autodoc serve")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", err
	}

	if resp.StatusCode/100 != 2 {
		return "", errs.Newf(errs.ErrTriggerStatus, "trigger",
			"%s returned %s: %s", path, resp.Status, firstLine(raw))
	}
	return prettyJSON(raw), nil
}

// prettyJSON re-indents a JSON body for terminal output; non-JSON bodies
// pass through untouched.
func prettyJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func firstLine(raw []byte) string {
	for i, b := range raw {
		if b == '\n' {
			return string(raw[:i])
		}
	}
	return string(raw)
}
