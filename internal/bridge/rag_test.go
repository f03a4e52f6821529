package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/internal/wiki"
	"github.com/autodoc-sh/autodoc/pkg/errs"
)

type fakeRAG struct {
	slug     string
	ingested map[string]string // title -> text
	failFor  string
}

func newFakeRAG(slug string) *fakeRAG {
	return &fakeRAG{slug: slug, ingested: map[string]string{}}
}

func (f *fakeRAG) EnsureWorkspace(_ context.Context, name string) (string, error) {
	return f.slug, nil
}

func (f *fakeRAG) IngestText(_ context.Context, _, title, text string) error {
	if title == f.failFor {
		return errors.New("ingest refused")
	}
	f.ingested[title] = text
	return nil
}

type fakePages struct {
	pages map[string]*wiki.Page // space/page
}

func (f *fakePages) ListPages(_ context.Context, space string) ([]string, error) {
	var names []string
	for key := range f.pages {
		if len(key) > len(space) && key[:len(space)] == space {
			names = append(names, key[len(space)+1:])
		}
	}
	return names, nil
}

func (f *fakePages) GetPage(_ context.Context, space, page string) (*wiki.Page, error) {
	return f.pages[space+"/"+page], nil
}

func TestIngestSpace(t *testing.T) {
	rag := newFakeRAG("homelab")
	pages := &fakePages{pages: map[string]*wiki.Page{
		"Main/WebHome": {Title: "Home", Content: "welcome"},
		"Main/Empty":   {Title: "Empty", Content: "   "},
		"Main/Notes":   {Title: "Notes", Content: "some notes"},
	}}
	ing := NewIngester(rag, pages, logger.Discard())

	result, err := ing.IngestSpace(context.Background(), "Main", "Homelab")
	if err != nil {
		t.Fatalf("IngestSpace: %v", err)
	}
	if result.Ingested != 2 {
		t.Errorf("ingested = %d, want 2 (blank page skipped)", result.Ingested)
	}
	if result.Workspace != "homelab" {
		t.Errorf("workspace = %q", result.Workspace)
	}
	if rag.ingested["Main/Home"] != "welcome" {
		t.Errorf("ingested titles = %v", rag.ingested)
	}
}

func TestIngestSpaceDefaults(t *testing.T) {
	rag := newFakeRAG(DefaultWorkspace)
	pages := &fakePages{pages: map[string]*wiki.Page{
		"Main/WebHome": {Title: "Home", Content: "welcome"},
	}}
	ing := NewIngester(rag, pages, logger.Discard())

	result, err := ing.IngestSpace(context.Background(), "", "")
	if err != nil {
		t.Fatalf("IngestSpace: %v", err)
	}
	if result.Ingested != 1 {
		t.Errorf("empty space should default to Main, result = %+v", result)
	}
}

func TestIngestSpaceContinuesOnFailure(t *testing.T) {
	rag := newFakeRAG("ws")
	rag.failFor = "Main/Bad"
	pages := &fakePages{pages: map[string]*wiki.Page{
		"Main/Bad":  {Title: "Bad", Content: "x"},
		"Main/Good": {Title: "Good", Content: "y"},
	}}
	ing := NewIngester(rag, pages, logger.Discard())

	result, err := ing.IngestSpace(context.Background(), "Main", "ws")
	if err != nil {
		t.Fatalf("IngestSpace: %v", err)
	}
	if result.Ingested != 1 {
		t.Errorf("ingested = %d, want 1", result.Ingested)
	}
}

func TestIngestPage(t *testing.T) {
	rag := newFakeRAG("ws")
	pages := &fakePages{pages: map[string]*wiki.Page{
		"Docs/Runbook": {Title: "Runbook", Content: "steps"},
	}}
	ing := NewIngester(rag, pages, logger.Discard())

	result, err := ing.IngestPage(context.Background(), "Docs", "Runbook", "ws")
	if err != nil {
		t.Fatalf("IngestPage: %v", err)
	}
	if result.Ingested != 1 {
		t.Errorf("result = %+v", result)
	}
	if rag.ingested["Docs/Runbook"] != "steps" {
		t.Errorf("ingested = %v", rag.ingested)
	}
}

func TestIngestPageValidation(t *testing.T) {
	ing := NewIngester(newFakeRAG("ws"), &fakePages{}, logger.Discard())

	if _, err := ing.IngestPage(context.Background(), "", "Page", "ws"); !errs.IsCode(err, errs.ErrRAGIngest) {
		t.Errorf("missing space: got %v", err)
	}
	if _, err := ing.IngestPage(context.Background(), "Docs", "Missing", "ws"); !errs.IsCode(err, errs.ErrRAGIngest) {
		t.Errorf("missing page: got %v", err)
	}
}
