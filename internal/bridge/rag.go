package bridge

import (
	"context"
	"strings"

	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/internal/wiki"
	"github.com/autodoc-sh/autodoc/pkg/errs"
)

// DefaultWorkspace is the AnythingLLM workspace used when the request does
// not name one.
const DefaultWorkspace = "xwiki"

// ragStore is the slice of the AnythingLLM client the ingester needs.
type ragStore interface {
	EnsureWorkspace(ctx context.Context, name string) (string, error)
	IngestText(ctx context.Context, workspaceSlug, title, text string) error
}

// pageStore is the slice of the wiki client the ingester needs.
type pageStore interface {
	ListPages(ctx context.Context, space string) ([]string, error)
	GetPage(ctx context.Context, space, page string) (*wiki.Page, error)
}

// Ingester copies wiki pages into an AnythingLLM workspace for RAG.
type Ingester struct {
	rag  ragStore
	wiki pageStore
	log  *logger.Logger
}

// NewIngester builds an ingester.
func NewIngester(rag ragStore, w pageStore, log *logger.Logger) *Ingester {
	return &Ingester{rag: rag, wiki: w, log: log}
}

// IngestResult reports how many pages landed in which workspace.
type IngestResult struct {
	Ingested  int    `json:"ingested"`
	Workspace string `json:"workspace"`
}

// IngestSpace pushes every non-empty page of a space into the workspace.
// An empty space defaults to "Main"; an empty workspace to DefaultWorkspace.
func (i *Ingester) IngestSpace(ctx context.Context, space, workspace string) (*IngestResult, error) {
	if space == "" {
		space = "Main"
	}
	if workspace == "" {
		workspace = DefaultWorkspace
	}

	slug, err := i.rag.EnsureWorkspace(ctx, workspace)
	if err != nil {
		return nil, err
	}

	pages, err := i.wiki.ListPages(ctx, space)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{Workspace: slug}
	for _, name := range pages {
		page, err := i.wiki.GetPage(ctx, space, name)
		if err != nil || page == nil {
			if err != nil {
				i.log.Error("rag ingest: page read failed", "space", space, "page", name, "err", err)
			}
			continue
		}
		if strings.TrimSpace(page.Content) == "" {
			continue
		}
		title := page.Title
		if title == "" {
			title = name
		}
		if err := i.rag.IngestText(ctx, slug, space+"/"+title, page.Content); err != nil {
			i.log.Error("rag ingest: document failed", "space", space, "page", name, "err", err)
			continue
		}
		result.Ingested++
	}
	return result, nil
}

// IngestPage pushes a single page into the workspace. Space and page are
// required; the page must exist.
func (i *Ingester) IngestPage(ctx context.Context, space, page, workspace string) (*IngestResult, error) {
	if space == "" || page == "" {
		return nil, errs.Newf(errs.ErrRAGIngest, "ingest-page", "both space and page are required")
	}
	if workspace == "" {
		workspace = DefaultWorkspace
	}

	slug, err := i.rag.EnsureWorkspace(ctx, workspace)
	if err != nil {
		return nil, err
	}

	p, err := i.wiki.GetPage(ctx, space, page)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errs.Newf(errs.ErrRAGIngest, "ingest-page",
			"page %s/%s not found", space, page)
	}

	title := p.Title
	if title == "" {
		title = page
	}
	if err := i.rag.IngestText(ctx, slug, space+"/"+title, p.Content); err != nil {
		return nil, err
	}
	return &IngestResult{Ingested: 1, Workspace: slug}, nil
}
