package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/commentlink/internal/scan"
)

// MarkdownFormatter writes a GitHub-flavoured Markdown report, suitable for
// pull request comments.
type MarkdownFormatter struct {
	opts Options
}

// NewMarkdownFormatter creates a Markdown formatter.
func NewMarkdownFormatter(opts Options) *MarkdownFormatter {
	return &MarkdownFormatter{opts: opts}
}

func (f *MarkdownFormatter) Format(w io.Writer, batch *scan.Batch) error {
	var b bytes.Buffer
	s := batch.Summary

	b.WriteString("# Comment link report\n\n")
	fmt.Fprintf(&b, "Workspace: `%s`\n\n", batch.WorkspaceRoot)
	b.WriteString("| Status | Count |\n|---|---:|\n")
	for _, status := range statusOrder {
		fmt.Fprintf(&b, "| %s | %d |\n", status, s.ByStatus[status])
	}
	fmt.Fprintf(&b, "| **total** | %d |\n\n", s.Links)
	fmt.Fprintf(&b, "%d file%s scanned, %d with links", s.Files, pluralize(s.Files), s.FilesWithLinks)
	if s.FileErrors > 0 {
		fmt.Fprintf(&b, ", %d skipped", s.FileErrors)
	}
	b.WriteString(".\n")
	if batch.Canceled {
		b.WriteString("\n> **Note:** the scan was canceled; results are partial.\n")
	}

	for _, file := range batch.Files {
		links := visibleLinks(file, f.opts.ShowResolved)
		if len(links) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## `%s`\n\n", displayPath(file))
		b.WriteString("| Line | Link | Status | Details |\n|---:|---|---|---|\n")
		for _, l := range links {
			fmt.Fprintf(&b, "| %d:%d | %s | %s | %s |\n",
				l.SourceLine, l.SourceColumn,
				EscapeMarkdown(fmt.Sprintf("[%s](%s)", l.Occurrence.Label, l.Occurrence.RawTarget)),
				l.Status, EscapeMarkdown(describe(l)))
		}
	}

	_, err := w.Write(b.Bytes())
	return err
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`,
	`(`, `\(`, `)`, `\)`, `<`, `\<`, `>`, `\>`, `|`, `\|`, `#`, `\#`,
)

// EscapeMarkdown escapes text so it renders literally, including inside
// table cells.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
