package bridge

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/internal/core/state"
	"github.com/autodoc-sh/autodoc/internal/gh"
)

func TestSanitizePageName(t *testing.T) {
	cases := map[string]string{
		"my-repo":        "my-repo",
		"my_repo":        "my_repo",
		"my.repo":        "my_repo",
		"repo with spc":  "repo_with_spc",
		"weird!@#chars$": "weird___chars_",
		"Repo123":        "Repo123",
	}
	for in, want := range cases {
		if got := SanitizePageName(in); got != want {
			t.Errorf("SanitizePageName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildRepoPage(t *testing.T) {
	repo := gh.Repo{
		Name:            "autodoc",
		Description:     "Self-documenting homelab",
		HTMLURL:         "https://github.com/alice/autodoc",
		Language:        "Go",
		StargazersCount: 42,
		ForksCount:      3,
		UpdatedAt:       "2026-08-01T12:00:00Z",
		DefaultBranch:   "main",
	}
	languages := map[string]int{"Go": 7500, "Shell": 2500}
	page := buildRepoPage(repo, "# Readme body", languages)

	for _, want := range []string{
		"# autodoc",
		"**Description:** Self-documenting homelab",
		"[https://github.com/alice/autodoc](https://github.com/alice/autodoc)",
		"**Stars:** 42 | **Forks:** 3 | **Language:** Go",
		"* **Go**: 75.0%",
		"* **Shell**: 25.0%",
		"## README",
		"# Readme body",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q:\n%s", want, page)
		}
	}
	if strings.Index(page, "**Go**") > strings.Index(page, "**Shell**") {
		t.Error("languages should be sorted by share, largest first")
	}
}

func TestBuildRepoPageDefaults(t *testing.T) {
	page := buildRepoPage(gh.Repo{Name: "bare"}, "", nil)
	for _, want := range []string{"No description", "**Language:** N/A", "**Last updated:** unknown", "**Default branch:** main"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(page, "## README") {
		t.Error("page without readme should not have a README section")
	}
}

type fakeGitHub struct {
	repos    []gh.Repo
	readmes  map[string]string
	langs    map[string]map[string]int
	repoErrs map[string]error
}

func (f *fakeGitHub) ListRepos(context.Context, string) ([]gh.Repo, error) {
	return f.repos, nil
}

func (f *fakeGitHub) GetRepo(_ context.Context, _, name string) (*gh.Repo, error) {
	if err := f.repoErrs[name]; err != nil {
		return nil, err
	}
	for _, r := range f.repos {
		if r.Name == name {
			return &r, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeGitHub) GetReadme(_ context.Context, _, name string) (string, error) {
	return f.readmes[name], nil
}

func (f *fakeGitHub) GetLanguages(_ context.Context, _, name string) (map[string]int, error) {
	return f.langs[name], nil
}

type fakeWiki struct {
	pages   map[string]string // space/page -> content
	syntax  map[string]string
	failFor string
}

func newFakeWiki() *fakeWiki {
	return &fakeWiki{pages: map[string]string{}, syntax: map[string]string{}}
}

func (f *fakeWiki) PutPageSyntax(_ context.Context, space, page, _, content, syntax string) (string, error) {
	if page == f.failFor {
		return "", errors.New("wiki write refused")
	}
	key := space + "/" + page
	f.pages[key] = content
	f.syntax[key] = syntax
	return "http://wiki/bin/view/" + key, nil
}

func openSyncState(t *testing.T) *state.DB {
	t.Helper()
	db, err := state.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSyncAllRepos(t *testing.T) {
	github := &fakeGitHub{
		repos:   []gh.Repo{{Name: "one"}, {Name: "two.dots"}},
		readmes: map[string]string{"one": "readme one"},
	}
	wiki := newFakeWiki()
	db := openSyncState(t)
	s := NewSyncer(github, wiki, "alice", db, logger.Discard())

	result, err := s.Sync(context.Background(), nil)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Total != 2 || len(result.Errors) != 0 {
		t.Fatalf("result = %+v", result)
	}
	if _, ok := wiki.pages["GitHub/one"]; !ok {
		t.Error("page GitHub/one not written")
	}
	if _, ok := wiki.pages["GitHub/two_dots"]; !ok {
		t.Errorf("sanitized page name missing, wrote %v", wiki.pages)
	}
	if wiki.syntax["GitHub/one"] != "markdown/1.2" {
		t.Errorf("syntax = %q", wiki.syntax["GitHub/one"])
	}

	recs, err := db.ListSyncRecords()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Synced != 2 {
		t.Errorf("history = %+v", recs)
	}
}

func TestSyncSelectedRepos(t *testing.T) {
	github := &fakeGitHub{
		repos:    []gh.Repo{{Name: "keep"}, {Name: "skip"}},
		repoErrs: map[string]error{"broken": errors.New("boom")},
	}
	wiki := newFakeWiki()
	s := NewSyncer(github, wiki, "alice", nil, logger.Discard())

	result, err := s.Sync(context.Background(), []string{"keep", "broken"})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Total != 1 || len(result.Errors) != 1 {
		t.Fatalf("result = %+v", result)
	}
	if _, ok := wiki.pages["GitHub/skip"]; ok {
		t.Error("unselected repo was synced")
	}
	if !strings.Contains(result.Errors[0], "broken") {
		t.Errorf("errors = %v", result.Errors)
	}
}

func TestSyncCollectsWikiErrors(t *testing.T) {
	github := &fakeGitHub{repos: []gh.Repo{{Name: "good"}, {Name: "bad"}}}
	wiki := newFakeWiki()
	wiki.failFor = "bad"
	s := NewSyncer(github, wiki, "alice", nil, logger.Discard())

	result, err := s.Sync(context.Background(), nil)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Total != 1 || len(result.Errors) != 1 {
		t.Errorf("result = %+v", result)
	}
}
