package bridge

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"path/filepath"
	"strings"

	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/pkg/errs"
)

// ImportSpace is the default wiki space for imported documents.
const ImportSpace = "Imported"

// pagePutter is the slice of the wiki client the importer needs.
type pagePutter interface {
	PutPage(ctx context.Context, space, page, title, content string) (string, error)
}

// Importer converts Word documents into wiki pages.
type Importer struct {
	wiki pagePutter
	log  *logger.Logger
}

// NewImporter builds an importer.
func NewImporter(wiki pagePutter, log *logger.Logger) *Importer {
	return &Importer{wiki: wiki, log: log}
}

// ImportResult reports where the imported page landed.
type ImportResult struct {
	PageURL string `json:"page_url"`
	Title   string `json:"title"`
}

// Import converts a .docx payload to XWiki syntax and writes it as a page.
// An empty space defaults to ImportSpace; an empty title to the filename
// without extension.
func (im *Importer) Import(ctx context.Context, space, filename, title string, data []byte) (*ImportResult, error) {
	if space == "" {
		space = ImportSpace
	}
	if title == "" {
		title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	pageName := strings.ReplaceAll(title, " ", "_")

	content, err := DocxToXWiki(data)
	if err != nil {
		return nil, err
	}

	url, err := im.wiki.PutPage(ctx, space, pageName, title, content)
	if err != nil {
		return nil, err
	}
	im.log.Info("word document imported", "file", filename, "space", space, "page", pageName)
	return &ImportResult{PageURL: url, Title: title}, nil
}

// docx XML shapes, local names only; the w: namespace prefix is ignored.
type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Props struct {
		Style struct {
			Val string `xml:"val,attr"`
		} `xml:"pStyle"`
	} `xml:"pPr"`
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Props struct {
		Bold   *struct{} `xml:"b"`
		Italic *struct{} `xml:"i"`
	} `xml:"rPr"`
	Text []string `xml:"t"`
}

func (r docxRun) text() string {
	return strings.Join(r.Text, "")
}

// DocxToXWiki converts a .docx file (a zip holding word/document.xml) into
// xwiki/2.1 markup. Headings 1-3, lists, bold and italic survive; anything
// else becomes plain text.
func DocxToXWiki(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errs.Wrap(err, errs.ErrWordImport, "read-docx").
			WithAdvice("the uploaded file must be a .docx document")
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", errs.Wrap(err, errs.ErrWordImport, "read-docx")
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", errs.Wrap(err, errs.ErrWordImport, "read-docx")
			}
			break
		}
	}
	if docXML == nil {
		return "", errs.Newf(errs.ErrWordImport, "read-docx",
			"word/document.xml not found in archive")
	}

	var doc docxDocument
	if err := xml.Unmarshal(docXML, &doc); err != nil {
		return "", errs.Wrap(err, errs.ErrWordImport, "parse-docx")
	}

	var lines []string
	for _, para := range doc.Body.Paragraphs {
		lines = append(lines, renderParagraph(para))
	}
	return strings.Join(lines, "\n"), nil
}

func renderParagraph(para docxParagraph) string {
	var plain strings.Builder
	for _, run := range para.Runs {
		plain.WriteString(run.text())
	}
	text := strings.TrimSpace(plain.String())
	if text == "" {
		return ""
	}

	style := strings.ToLower(para.Props.Style.Val)
	switch {
	case strings.Contains(style, "heading1"), strings.Contains(style, "heading 1"):
		return "= " + text + " ="
	case strings.Contains(style, "heading2"), strings.Contains(style, "heading 2"):
		return "== " + text + " =="
	case strings.Contains(style, "heading3"), strings.Contains(style, "heading 3"):
		return "=== " + text + " ==="
	case strings.Contains(style, "list"):
		return "* " + text
	}

	var b strings.Builder
	for _, run := range para.Runs {
		t := run.text()
		if t == "" {
			continue
		}
		bold := run.Props.Bold != nil
		italic := run.Props.Italic != nil
		switch {
		case bold && italic:
			b.WriteString("**//" + t + "//**")
		case bold:
			b.WriteString("**" + t + "**")
		case italic:
			b.WriteString("//" + t + "//")
		default:
			b.WriteString(t)
		}
	}
	if b.Len() == 0 {
		return text
	}
	return b.String()
}
