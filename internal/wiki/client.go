// Package wiki talks to the XWiki REST API: page reads, page writes and
// attachments, plus the scan page writer used by the scanners.
package wiki

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/pkg/errs"
)

// DefaultSyntax is the XWiki markup syntax used for all written pages.
const DefaultSyntax = "xwiki/2.1"

// Client is an authenticated XWiki REST client for one wiki instance.
type Client struct {
	baseURL  string
	user     string
	password string
	http     *http.Client
	log      *logger.Logger
}

// NewClient builds a client for the wiki at baseURL (no trailing /rest).
func NewClient(baseURL, user, password string, log *logger.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		user:     user,
		password: password,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

// Page is the JSON shape XWiki returns for a single page.
type Page struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Space    string `json:"space"`
	Name     string `json:"name"`
	Syntax   string `json:"syntax"`
	Content  string `json:"content"`
	Modified string `json:"modified"`
}

// pageXML is the request body for page PUTs.
type pageXML struct {
	XMLName xml.Name `xml:"page"`
	XMLNS   string   `xml:"xmlns,attr"`
	Title   string   `xml:"title"`
	Syntax  string   `xml:"syntax"`
	Content string   `xml:"content"`
}

func (c *Client) pageURL(space, page string) string {
	return fmt.Sprintf("%s/rest/wikis/xwiki/spaces/%s/pages/%s", c.baseURL, space, page)
}

// ViewURL is the human-facing URL for a page.
func (c *Client) ViewURL(space, page string) string {
	return fmt.Sprintf("%s/bin/view/%s/%s", c.baseURL, space, page)
}

// GetPage fetches a page. A missing page returns (nil, nil).
func (c *Client) GetPage(ctx context.Context, space, page string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(space, page), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrWikiRead, "get-page").WithResource(space + "." + page)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode/100 != 2 {
		return nil, errs.Newf(errs.ErrWikiRead, "get-page",
			"xwiki returned %s for %s.%s", resp.Status, space, page)
	}

	var p Page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, errs.Wrap(err, errs.ErrWikiRead, "get-page")
	}
	return &p, nil
}

// PutPage creates or updates a page in the default syntax and returns its
// view URL.
func (c *Client) PutPage(ctx context.Context, space, page, title, content string) (string, error) {
	return c.PutPageSyntax(ctx, space, page, title, content, DefaultSyntax)
}

// PutPageSyntax is PutPage with an explicit markup syntax, e.g.
// "markdown/1.2" for GitHub sync pages.
func (c *Client) PutPageSyntax(ctx context.Context, space, page, title, content, syntax string) (string, error) {
	body, err := xml.Marshal(pageXML{
		XMLNS:   "http://www.xwiki.org",
		Title:   title,
		Syntax:  syntax,
		Content: content,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.pageURL(space, page), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Content-Type", "application/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrWikiWrite, "put-page").WithResource(space + "." + page)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return "", errs.Newf(errs.ErrWikiWrite, "put-page",
			"xwiki returned %s for %s.%s", resp.Status, space, page).
			WithAdvice("check wiki.user and wiki.password in autodoc.yaml")
	}

	c.log.Info("wiki page written", "space", space, "page", page, "status", resp.StatusCode)
	return c.ViewURL(space, page), nil
}

// ListPages returns the page names in a space. A missing space returns an
// empty list.
func (c *Client) ListPages(ctx context.Context, space string) ([]string, error) {
	url := fmt.Sprintf("%s/rest/wikis/xwiki/spaces/%s/pages", c.baseURL, space)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrWikiRead, "list-pages").WithResource(space)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode/100 != 2 {
		return nil, errs.Newf(errs.ErrWikiRead, "list-pages",
			"xwiki returned %s for space %s", resp.Status, space)
	}

	var data struct {
		PageSummaries []struct {
			Name string `json:"name"`
		} `json:"pageSummaries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, errs.Wrap(err, errs.ErrWikiRead, "list-pages")
	}

	names := make([]string, 0, len(data.PageSummaries))
	for _, p := range data.PageSummaries {
		names = append(names, p.Name)
	}
	return names, nil
}

// UploadAttachment stores a file on a page and returns the attachment URL.
func (c *Client) UploadAttachment(ctx context.Context, space, page, filename string,
	data []byte, contentType string) (string, error) {

	url := fmt.Sprintf("%s/attachments/%s", c.pageURL(space, page), filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrWikiWrite, "upload-attachment").WithResource(filename)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return "", errs.Newf(errs.ErrWikiWrite, "upload-attachment",
			"xwiki returned %s for %s", resp.Status, filename)
	}
	return url, nil
}
