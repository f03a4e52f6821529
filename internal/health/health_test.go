package health

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
)

func TestCheckHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/teapot" {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := CheckHTTP(context.Background(), srv.URL, 0, time.Second); err != nil {
		t.Errorf("2xx should pass: %v", err)
	}
	if err := CheckHTTP(context.Background(), srv.URL+"/teapot", 0, time.Second); err == nil {
		t.Error("418 should fail the default 2xx check")
	}
	if err := CheckHTTP(context.Background(), srv.URL+"/teapot", http.StatusTeapot, time.Second); err != nil {
		t.Errorf("explicit expected code should pass: %v", err)
	}
	if err := CheckHTTP(context.Background(), "", 0, time.Second); err == nil {
		t.Error("empty URL must error")
	}
}

func TestCheckHTTPAuthChallengeCountsAsServing(t *testing.T) {
	// XWiki answers 401 on REST endpoints until an admin session exists.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	if err := CheckHTTP(context.Background(), srv.URL, 0, time.Second); err != nil {
		t.Errorf("401 should pass the default liveness check: %v", err)
	}
	if err := CheckHTTP(context.Background(), srv.URL, http.StatusOK, time.Second); err == nil {
		t.Error("401 must fail when 200 is required explicitly")
	}
}

func TestCheckHTTPFollowsRedirect(t *testing.T) {
	// XWiki redirects its root to the Main wiki view.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/xwiki/bin/view/Main/", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := CheckHTTP(context.Background(), srv.URL, http.StatusOK, time.Second); err != nil {
		t.Errorf("redirect to wiki view should pass: %v", err)
	}
}

func TestCheckTCP(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	_, portStr, _ := net.SplitHostPort(l.Addr().String())
	port, _ := strconv.Atoi(portStr)

	if err := CheckTCP(context.Background(), "127.0.0.1", port, time.Second); err != nil {
		t.Errorf("live listener: %v", err)
	}
	if err := CheckTCP(context.Background(), "127.0.0.1", 0, time.Second); err == nil {
		t.Error("zero port must error")
	}
}

func TestCheckerDispatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewChecker(logger.Discard())

	httpSpec := v1.ServiceSpec{
		Name:        "xwiki",
		HealthCheck: &v1.HealthCheckSpec{Type: "http", URL: srv.URL},
	}
	if err := c.Check(context.Background(), httpSpec); err != nil {
		t.Errorf("http dispatch: %v", err)
	}
	if got := c.Probe(context.Background(), httpSpec); got != v1.StatusHealthy {
		t.Errorf("probe = %s, want healthy", got)
	}

	noCheck := v1.ServiceSpec{Name: "postgres"}
	if err := c.Check(context.Background(), noCheck); err != nil {
		t.Errorf("nil health check should pass: %v", err)
	}
	if got := c.Probe(context.Background(), noCheck); got != v1.StatusUnknown {
		t.Errorf("probe without check = %s, want unknown", got)
	}

	bad := v1.ServiceSpec{Name: "x", HealthCheck: &v1.HealthCheckSpec{Type: "icmp"}}
	if err := c.Check(context.Background(), bad); err == nil {
		t.Error("unknown probe type must error")
	}
}

func TestWaitHealthyRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewChecker(logger.Discard())
	spec := v1.ServiceSpec{
		Name: "anythingllm",
		HealthCheck: &v1.HealthCheckSpec{
			Type:     "http",
			URL:      srv.URL,
			Interval: 10 * time.Millisecond,
			Retries:  5,
		},
	}
	if err := c.WaitHealthy(context.Background(), spec); err != nil {
		t.Errorf("should become healthy on third attempt: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 probe calls, got %d", calls)
	}
}
