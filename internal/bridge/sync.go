// Package bridge implements the glue between the wiki and the outside
// world: GitHub repo sync, RAG ingestion and Word document import.
package bridge

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/internal/core/state"
	"github.com/autodoc-sh/autodoc/internal/gh"
)

// GitHubSpace is the wiki space repo pages are written to.
const GitHubSpace = "GitHub"

// repoSyntax is the markup syntax for synced repo pages; the content is
// GitHub-flavored markdown.
const repoSyntax = "markdown/1.2"

var pageNameRE = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// repoSource is the slice of the GitHub client the sync needs.
type repoSource interface {
	ListRepos(ctx context.Context, user string) ([]gh.Repo, error)
	GetRepo(ctx context.Context, owner, repo string) (*gh.Repo, error)
	GetReadme(ctx context.Context, owner, repo string) (string, error)
	GetLanguages(ctx context.Context, owner, repo string) (map[string]int, error)
}

// pageSink is the slice of the wiki client the sync needs.
type pageSink interface {
	PutPageSyntax(ctx context.Context, space, page, title, content, syntax string) (string, error)
}

// Syncer mirrors GitHub repos into wiki pages.
type Syncer struct {
	github repoSource
	wiki   pageSink
	user   string
	state  *state.DB
	log    *logger.Logger
}

// NewSyncer builds a syncer for the given GitHub user.
func NewSyncer(github repoSource, wiki pageSink, user string, st *state.DB, log *logger.Logger) *Syncer {
	return &Syncer{github: github, wiki: wiki, user: user, state: st, log: log}
}

// SyncResult reports the outcome of one sync run.
type SyncResult struct {
	Synced []string `json:"synced"`
	Errors []string `json:"errors"`
	Total  int      `json:"total"`
}

// Sync mirrors the named repos, or every repo of the user when repos is
// empty. Per-repo failures are collected, not fatal.
func (s *Syncer) Sync(ctx context.Context, repos []string) (*SyncResult, error) {
	started := time.Now()
	result := &SyncResult{Synced: []string{}, Errors: []string{}}

	var targets []gh.Repo
	if len(repos) > 0 {
		for _, name := range repos {
			info, err := s.github.GetRepo(ctx, s.user, name)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
				continue
			}
			targets = append(targets, *info)
		}
	} else {
		all, err := s.github.ListRepos(ctx, s.user)
		if err != nil {
			return nil, err
		}
		targets = all
	}

	for _, repo := range targets {
		if err := s.syncOne(ctx, repo); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", repo.Name, err))
			s.log.Error("repo sync failed", "repo", repo.Name, "err", err)
			continue
		}
		result.Synced = append(result.Synced, repo.Name)
		s.log.Info("repo synced", "repo", repo.Name)
	}
	result.Total = len(result.Synced)

	s.record(started, result)
	return result, nil
}

func (s *Syncer) syncOne(ctx context.Context, repo gh.Repo) error {
	readme, err := s.github.GetReadme(ctx, s.user, repo.Name)
	if err != nil {
		return err
	}
	languages, err := s.github.GetLanguages(ctx, s.user, repo.Name)
	if err != nil {
		return err
	}

	content := buildRepoPage(repo, readme, languages)
	_, err = s.wiki.PutPageSyntax(ctx, GitHubSpace, SanitizePageName(repo.Name),
		repo.Name, content, repoSyntax)
	return err
}

func (s *Syncer) record(started time.Time, result *SyncResult) {
	if s.state == nil {
		return
	}
	rec := v1.SyncRecord{
		ID:        fmt.Sprintf("sync-%d", started.UnixNano()),
		StartedAt: started.UTC(),
		Duration:  time.Since(started).Round(time.Millisecond).String(),
		Synced:    len(result.Synced),
		Errors:    len(result.Errors),
	}
	if err := s.state.PutSyncRecord(rec); err != nil {
		s.log.Warn("sync history write failed", "err", err)
	}
}

// SanitizePageName makes a repo name safe for use as a wiki page name.
func SanitizePageName(name string) string {
	return pageNameRE.ReplaceAllString(name, "_")
}

// buildRepoPage renders the markdown body for one repo page.
func buildRepoPage(repo gh.Repo, readme string, languages map[string]int) string {
	desc := repo.Description
	if desc == "" {
		desc = "No description"
	}
	lang := repo.Language
	if lang == "" {
		lang = "N/A"
	}
	updated := repo.UpdatedAt
	if updated == "" {
		updated = "unknown"
	}
	branch := repo.DefaultBranch
	if branch == "" {
		branch = "main"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", repo.Name)
	fmt.Fprintf(&b, "**Description:** %s\n", desc)
	fmt.Fprintf(&b, "**URL:** [%s](%s)\n", repo.HTMLURL, repo.HTMLURL)
	fmt.Fprintf(&b, "**Stars:** %d | **Forks:** %d | **Language:** %s\n",
		repo.StargazersCount, repo.ForksCount, lang)
	fmt.Fprintf(&b, "**Last updated:** %s\n", updated)
	fmt.Fprintf(&b, "**Default branch:** %s\n\n", branch)

	if len(languages) > 0 {
		b.WriteString("## Languages\n\n")
		total := 0
		for _, n := range languages {
			total += n
		}
		type langShare struct {
			name  string
			bytes int
		}
		shares := make([]langShare, 0, len(languages))
		for name, n := range languages {
			shares = append(shares, langShare{name, n})
		}
		sort.Slice(shares, func(i, k int) bool {
			if shares[i].bytes != shares[k].bytes {
				return shares[i].bytes > shares[k].bytes
			}
			return shares[i].name < shares[k].name
		})
		for _, sh := range shares {
			pct := 0.0
			if total > 0 {
				pct = float64(sh.bytes) / float64(total) * 100
			}
			fmt.Fprintf(&b, "* **%s**: %.1f%%\n", sh.name, pct)
		}
		b.WriteString("\n")
	}

	if readme != "" {
		b.WriteString("---\n\n## README\n\n")
		b.WriteString(readme)
	}
	return b.String()
}
