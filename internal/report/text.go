package report

import (
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
	"git.home.luguber.info/inful/commentlink/internal/scan"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
)

// TextFormatter formats batches as human-readable text.
type TextFormatter struct {
	opts Options
}

// NewTextFormatter creates a text formatter.
func NewTextFormatter(opts Options) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Format outputs the batch in human-readable text.
func (f *TextFormatter) Format(w io.Writer, batch *scan.Batch) error {
	p := &printer{w: w}
	p.printf("Comment links in: %s\n", batch.WorkspaceRoot)
	p.println(strings.Repeat("━", 60))
	p.println()

	for _, file := range batch.Files {
		if file.Error != "" {
			p.printf("%s %s\n", f.paint(ansiYellow, "⚠"), displayPath(file))
			p.printf("  skipped: %s\n\n", file.Error)
			continue
		}
		links := visibleLinks(file, f.opts.ShowResolved)
		for _, l := range links {
			f.formatLink(p, file, l)
		}
		if len(links) > 0 {
			p.println()
		}
	}

	s := batch.Summary
	p.println(strings.Repeat("━", 60))
	p.println("Results:")
	p.printf("  %d file%s scanned\n", s.Files, pluralize(s.Files))
	p.printf("  %d link%s found\n", s.Links, pluralize(s.Links))
	for _, status := range statusOrder {
		if n := s.ByStatus[status]; n > 0 {
			p.printf("  %d %s\n", n, strings.ReplaceAll(string(status), "_", " "))
		}
	}
	if s.FileErrors > 0 {
		p.printf("  %d file%s skipped\n", s.FileErrors, pluralize(s.FileErrors))
	}
	p.println()

	switch {
	case batch.Canceled:
		p.println(f.paint(ansiYellow, "⚠️  Scan was canceled; results are partial."))
	case s.Unresolved() > 0:
		p.println(f.paint(ansiRed, fmt.Sprintf("❌ %d comment link%s did not resolve.", s.Unresolved(), pluralize(s.Unresolved()))))
	case s.Links == 0:
		p.println("ℹ️  No comment links found.")
	default:
		p.println(f.paint(ansiGreen, "✨ All comment links resolve!"))
	}
	return p.err
}

func (f *TextFormatter) formatLink(p *printer, file scan.FileReport, l scan.Link) {
	icon, color := "✗", ansiRed
	switch l.Status {
	case commentlink.StatusResolved:
		icon, color = "✓", ansiGreen
	case commentlink.StatusLineOutOfRange:
		icon, color = "⚠", ansiYellow
	}
	p.printf("%s %s:%d:%d %s\n",
		f.paint(color, icon), displayPath(file), l.SourceLine, l.SourceColumn,
		f.paint(ansiDim, fmt.Sprintf("[%s](%s)", l.Occurrence.Label, l.Occurrence.RawTarget)))
	p.printf("  %s: %s\n", l.Status, describe(l))
}

func (f *TextFormatter) paint(color, s string) string {
	if !f.opts.Color {
		return s
	}
	return color + s + ansiReset
}

// printer remembers the first write error so formatting code stays linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

func (p *printer) println(args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintln(p.w, args...)
	}
}
