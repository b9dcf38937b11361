package report

import (
	"fmt"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
)

// FileURI builds a file:// URI for an absolute slash path, with a "#L<n>"
// fragment when line is positive.
func FileURI(path string, line int) string {
	u := url.URL{Scheme: "file", Path: path}
	switch {
	case strings.HasPrefix(path, "//"):
		rest := strings.TrimPrefix(path, "//")
		host, p, _ := strings.Cut(rest, "/")
		u.Host, u.Path = host, "/"+p
	case !strings.HasPrefix(path, "/"):
		// Windows drive path.
		u.Path = "/" + path
	}
	if line > 0 {
		u.Fragment = fmt.Sprintf("L%d", line)
	}
	return u.String()
}

// Hover is the Markdown an editor shows when the pointer rests on a link.
// Resolved links become clickable file URIs; the rest explain the failure.
func Hover(r commentlink.Result) string {
	label := EscapeMarkdown(r.Occurrence.Label)
	if r.IsResolved() {
		return fmt.Sprintf("[%s](%s)", label, FileURI(r.ResolvedPath.UnwrapOr(""), r.Line.UnwrapOr(0)))
	}
	reason := r.Reason
	if reason == "" {
		reason = strings.ReplaceAll(string(r.Status), "_", " ")
	}
	return fmt.Sprintf("**%s**: `%s` (%s)", label, r.Occurrence.RawTarget, EscapeMarkdown(reason))
}
