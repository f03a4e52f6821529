package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
)

// ScanSpace is the wiki space all scanner output lives under.
const ScanSpace = "Infrastructure"

// rawDataLimit caps the embedded JSON payload so scan pages stay readable.
const rawDataLimit = 60000

// scanPages maps a scan kind to its fixed page name in ScanSpace. The page
// is overwritten on every run, so the wiki always shows the latest state.
var scanPages = map[v1.ScanKind]string{
	v1.ScanDocker:   "DockerInfrastructure",
	v1.ScanNetwork:  "NetworkDiscovery",
	v1.ScanESXi:     "ESXiHost",
	v1.ScanSynology: "SynologyNAS",
}

// ScanWriter renders scan results as XWiki pages.
type ScanWriter struct {
	client *Client
	log    *logger.Logger
}

// NewScanWriter builds a writer on top of an XWiki client.
func NewScanWriter(client *Client, log *logger.Logger) *ScanWriter {
	return &ScanWriter{client: client, log: log}
}

// WriteScanPage publishes one scan result and returns the page view URL.
func (w *ScanWriter) WriteScanPage(ctx context.Context, kind v1.ScanKind, title string,
	data any, analysis string) (string, error) {

	page, ok := scanPages[kind]
	if !ok {
		return "", fmt.Errorf("no wiki page mapped for scan kind %q", kind)
	}
	content := buildScanContent(title, data, analysis)
	return w.client.PutPage(ctx, ScanSpace, page, title, content)
}

// buildScanContent renders the page body in xwiki/2.1 syntax: a header, the
// AI analysis, and the raw payload in a collapsed JSON block.
func buildScanContent(title string, data any, analysis string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "= %s =\n\n", title)
	fmt.Fprintf(&b, "Last scanned: %s\n\n", time.Now().UTC().Format(time.RFC3339))

	if analysis != "" {
		b.WriteString("== AI Analysis ==\n\n")
		b.WriteString(analysis)
		b.WriteString("\n\n")
	}

	b.WriteString("== Scan Data ==\n\n")
	b.WriteString("{{code language=\"json\"}}\n")
	b.WriteString(marshalTruncated(data))
	b.WriteString("\n{{/code}}\n")
	return b.String()
}

func marshalTruncated(data any) string {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("(unrenderable scan payload: %v)", err)
	}
	if len(out) > rawDataLimit {
		return string(out[:rawDataLimit]) + "\n... (truncated)"
	}
	return string(out)
}
