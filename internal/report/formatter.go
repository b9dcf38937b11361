// Package report renders scan batches for people and tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
	"git.home.luguber.info/inful/commentlink/internal/config"
	"git.home.luguber.info/inful/commentlink/internal/scan"
)

// Formatter writes a batch in one output format.
type Formatter interface {
	Format(w io.Writer, batch *scan.Batch) error
}

// Options tune the human-readable formatters.
type Options struct {
	Color        bool // ANSI colours in text output
	ShowResolved bool // List resolved links too, not just problems
}

// NewFormatter creates the formatter for format.
func NewFormatter(format config.OutputFormat, opts Options) Formatter {
	switch format {
	case config.OutputJSON:
		return NewJSONFormatter()
	case config.OutputMarkdown:
		return NewMarkdownFormatter(opts)
	case config.OutputHTML:
		return NewHTMLFormatter(opts)
	default:
		return NewTextFormatter(opts)
	}
}

// JSONFormatter writes the batch as indented JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// JSONOutput is the top-level JSON document.
type JSONOutput struct {
	*scan.Batch
	Unresolved int `json:"unresolved"`
}

func (f *JSONFormatter) Format(w io.Writer, batch *scan.Batch) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(JSONOutput{Batch: batch, Unresolved: batch.Summary.Unresolved()})
}

// visibleLinks returns the links a listing should show.
func visibleLinks(f scan.FileReport, showResolved bool) []scan.Link {
	if showResolved {
		return f.Links
	}
	var out []scan.Link
	for _, l := range f.Links {
		if !l.IsResolved() {
			out = append(out, l)
		}
	}
	return out
}

// displayPath prefers the workspace-relative path.
func displayPath(f scan.FileReport) string {
	if f.RelPath != "" {
		return f.RelPath
	}
	return f.Path
}

// describe is the one-line explanation of a result.
func describe(l scan.Link) string {
	if l.IsResolved() {
		target := l.ResolvedPath.UnwrapOr("")
		if line, ok := l.Result.Line.Get(); ok {
			return fmt.Sprintf("%s:%d", target, line)
		}
		return target
	}
	if l.Reason != "" {
		return l.Reason
	}
	return strings.ReplaceAll(string(l.Status), "_", " ")
}

// statusOrder lists statuses the way summaries print them.
var statusOrder = commentlink.Statuses()

// pluralize returns "s" if count != 1, otherwise empty string.
func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
