package wiki

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/pkg/errs"
)

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestGetPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != basicAuth("admin", "secret") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/rest/wikis/xwiki/spaces/Projects/pages/WebHome" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"xwiki:Projects.WebHome","title":"Projects","content":"= Projects ="}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "secret", logger.Discard())
	page, err := c.GetPage(context.Background(), "Projects", "WebHome")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if page == nil || page.Title != "Projects" {
		t.Errorf("page = %+v", page)
	}
}

func TestGetPageNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "secret", logger.Discard())
	page, err := c.GetPage(context.Background(), "Projects", "Missing")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if page != nil {
		t.Errorf("missing page should be nil, got %+v", page)
	}
}

func TestPutPage(t *testing.T) {
	var gotBody string
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "secret", logger.Discard())
	url, err := c.PutPage(context.Background(), "Projects", "MyRepo", "My Repo", "= My Repo =")
	if err != nil {
		t.Fatalf("PutPage: %v", err)
	}
	if url != srv.URL+"/bin/view/Projects/MyRepo" {
		t.Errorf("view url = %q", url)
	}
	if gotContentType != "application/xml" {
		t.Errorf("content type = %q", gotContentType)
	}
	for _, want := range []string{
		`xmlns="http://www.xwiki.org"`,
		"<title>My Repo</title>",
		"<syntax>xwiki/2.1</syntax>",
		"<content>= My Repo =</content>",
	} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("body missing %q:\n%s", want, gotBody)
		}
	}
}

func TestPutPageAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "wrong", logger.Discard())
	_, err := c.PutPage(context.Background(), "Projects", "P", "P", "x")
	if !errs.IsCode(err, errs.ErrWikiWrite) {
		t.Fatalf("want %s, got %v", errs.ErrWikiWrite, err)
	}
}

func TestListPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/wikis/xwiki/spaces/Projects/pages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, `{"pageSummaries":[{"name":"WebHome"},{"name":"RepoOne"},{"name":"RepoTwo"}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "secret", logger.Discard())
	names, err := c.ListPages(context.Background(), "Projects")
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if len(names) != 3 || names[1] != "RepoOne" {
		t.Errorf("names = %v", names)
	}
}

func TestListPagesMissingSpace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "secret", logger.Discard())
	names, err := c.ListPages(context.Background(), "Nope")
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("names = %v", names)
	}
}

func TestUploadAttachment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/attachments/doc.docx") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "payload" {
			t.Errorf("body = %q", body)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "secret", logger.Discard())
	url, err := c.UploadAttachment(context.Background(), "Docs", "Imported", "doc.docx",
		[]byte("payload"), "application/octet-stream")
	if err != nil {
		t.Fatalf("UploadAttachment: %v", err)
	}
	if !strings.HasSuffix(url, "/attachments/doc.docx") {
		t.Errorf("url = %q", url)
	}
}

func TestWriteScanPage(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "secret", logger.Discard())
	w := NewScanWriter(c, logger.Discard())

	data := map[string]any{"hosts_found": 4}
	url, err := w.WriteScanPage(context.Background(), v1.ScanNetwork, "Network - Discovery", data, "four hosts up")
	if err != nil {
		t.Fatalf("WriteScanPage: %v", err)
	}
	if url != srv.URL+"/bin/view/Infrastructure/NetworkDiscovery" {
		t.Errorf("url = %q", url)
	}
	if gotPath != "/rest/wikis/xwiki/spaces/Infrastructure/pages/NetworkDiscovery" {
		t.Errorf("path = %q", gotPath)
	}
	for _, want := range []string{"AI Analysis", "four hosts up", "hosts_found"} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("page body missing %q", want)
		}
	}
}

func TestWriteScanPageUnknownKind(t *testing.T) {
	w := NewScanWriter(NewClient("http://x", "", "", logger.Discard()), logger.Discard())
	if _, err := w.WriteScanPage(context.Background(), v1.ScanKind("bogus"), "t", nil, ""); err == nil {
		t.Fatal("unknown kind should error")
	}
}
