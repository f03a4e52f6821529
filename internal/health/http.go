// Package health: HTTP probe implementation.
package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxRedirects bounds redirect chains. XWiki redirects its root to the
// Main wiki view, so probes must follow at least one hop.
const maxRedirects = 5

// maxDrainBytes caps how much of a probe response body is read before
// the connection is returned to the pool.
const maxDrainBytes = 4 << 10

// CheckHTTP performs an HTTP GET against url and reports whether the
// service behind it is serving requests. With expectedCode set the
// response status must match it exactly. Without one, any 2xx passes,
// and so does an auth challenge: XWiki answers 401 on its REST API
// until an admin session exists, but a challenge still proves the
// servlet container is up.
func CheckHTTP(ctx context.Context, url string, expectedCode int, timeout time.Duration) error {
	if url == "" {
		return fmt.Errorf("http health check: url is required")
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("more than %d redirects", maxRedirects)
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "autodoc-probe/1.0")
	req.Header.Set("Accept", "application/json, text/html")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http get %q: %w", url, err)
	}
	defer resp.Body.Close()

	// Drain so WaitHealthy retries reuse the pooled connection.
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes)) //nolint:errcheck

	if !statusServing(resp.StatusCode, expectedCode) {
		return fmt.Errorf("%s: unexpected status %d", url, resp.StatusCode)
	}
	return nil
}

// statusServing decides whether a response status counts as alive.
func statusServing(code, expected int) bool {
	if expected != 0 {
		return code == expected
	}
	if code >= 200 && code < 300 {
		return true
	}
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
