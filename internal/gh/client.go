// Package gh is a minimal GitHub REST v3 client covering what repo sync
// needs: repo listings, metadata, readmes and language breakdowns.
package gh

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/pkg/errs"
)

// DefaultAPIURL is the public GitHub API endpoint.
const DefaultAPIURL = "https://api.github.com"

// perPage is the page size for repo listings. 100 is the API maximum.
const perPage = 100

// Repo is the subset of GitHub repo metadata the sync renders.
type Repo struct {
	Name            string `json:"name"`
	FullName        string `json:"full_name"`
	Description     string `json:"description"`
	HTMLURL         string `json:"html_url"`
	Language        string `json:"language"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	UpdatedAt       string `json:"updated_at"`
	DefaultBranch   string `json:"default_branch"`
	Private         bool   `json:"private"`
	Archived        bool   `json:"archived"`
}

// Client talks to the GitHub API, optionally authenticated with a token.
type Client struct {
	apiURL string
	token  string
	http   *http.Client
	log    *logger.Logger
}

// NewClient builds a client. An empty apiURL uses DefaultAPIURL; an empty
// token makes unauthenticated requests (60/hour rate limit).
func NewClient(apiURL, token string, log *logger.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL: apiURL,
		token:  token,
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) (int, error) {
	u := c.apiURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errs.Wrap(err, errs.ErrSyncGitHub, "github-get").WithResource(path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if resp.StatusCode/100 != 2 {
		return resp.StatusCode, errs.Newf(errs.ErrSyncGitHub, "github-get",
			"github returned %s for %s", resp.Status, path).
			WithAdvice("check github.token; unauthenticated requests are rate limited")
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, errs.Wrap(err, errs.ErrSyncGitHub, "github-get")
	}
	return resp.StatusCode, nil
}

// ListRepos returns every repo of a user, walking pagination until an empty
// page.
func (c *Client) ListRepos(ctx context.Context, user string) ([]Repo, error) {
	var repos []Repo
	for page := 1; ; page++ {
		q := url.Values{
			"per_page": {strconv.Itoa(perPage)},
			"page":     {strconv.Itoa(page)},
			"sort":     {"updated"},
		}
		var batch []Repo
		status, err := c.get(ctx, "/users/"+user+"/repos", q, &batch)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			return nil, errs.Newf(errs.ErrSyncGitHub, "list-repos", "github user %q not found", user)
		}
		if len(batch) == 0 {
			break
		}
		repos = append(repos, batch...)
	}
	c.log.Info("github repos listed", "user", user, "count", len(repos))
	return repos, nil
}

// GetRepo returns metadata for a single repo.
func (c *Client) GetRepo(ctx context.Context, owner, repo string) (*Repo, error) {
	var r Repo
	status, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo), nil, &r)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, errs.Newf(errs.ErrSyncGitHub, "get-repo", "repo %s/%s not found", owner, repo)
	}
	return &r, nil
}

// GetReadme fetches the repo readme decoded from base64. A repo without a
// readme returns ("", nil).
func (c *Client) GetReadme(ctx context.Context, owner, repo string) (string, error) {
	var data struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	status, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/readme", owner, repo), nil, &data)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", nil
	}

	// GitHub wraps base64 content at 60 columns.
	decoded, err := base64.StdEncoding.DecodeString(stripNewlines(data.Content))
	if err != nil {
		return "", errs.Wrap(err, errs.ErrSyncGitHub, "get-readme").WithResource(repo)
	}
	return string(decoded), nil
}

// GetLanguages returns the byte count per language for a repo.
func (c *Client) GetLanguages(ctx context.Context, owner, repo string) (map[string]int, error) {
	langs := make(map[string]int)
	status, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/languages", owner, repo), nil, &langs)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return map[string]int{}, nil
	}
	return langs, nil
}

func stripNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' && s[i] != '\r' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
