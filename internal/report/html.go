package report

import (
	"bytes"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/commentlink/internal/scan"
)

// HTMLFormatter renders the Markdown report to a standalone HTML page.
type HTMLFormatter struct {
	markdown *MarkdownFormatter
	md       goldmark.Markdown
}

// NewHTMLFormatter creates an HTML formatter.
func NewHTMLFormatter(opts Options) *HTMLFormatter {
	return &HTMLFormatter{
		markdown: NewMarkdownFormatter(opts),
		md:       goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

func (f *HTMLFormatter) Format(w io.Writer, batch *scan.Batch) error {
	var source bytes.Buffer
	if err := f.markdown.Format(&source, batch); err != nil {
		return err
	}

	var body bytes.Buffer
	body.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Comment link report: ")
	body.WriteString(html.EscapeString(batch.WorkspaceRoot))
	body.WriteString("</title>\n</head>\n<body>\n")
	if err := f.md.Convert(source.Bytes(), &body); err != nil {
		return err
	}
	body.WriteString("</body>\n</html>\n")

	_, err := w.Write(body.Bytes())
	return err
}

// hoverRenderer keeps file: link targets, which goldmark drops by default.
// Hover text escapes all user-supplied text before it gets here.
var hoverRenderer = goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe()))

// RenderMarkdown converts a hover fragment to HTML.
func RenderMarkdown(markdown string) (string, error) {
	var out bytes.Buffer
	if err := hoverRenderer.Convert([]byte(markdown), &out); err != nil {
		return "", err
	}
	return out.String(), nil
}
