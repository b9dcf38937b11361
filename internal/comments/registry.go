package comments

import (
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
)

// Registry maps file extensions to comment extractors.
type Registry struct {
	byExt map[string]commentlink.CommentExtractor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]commentlink.CommentExtractor)}
}

// DefaultRegistry knows the comment syntax of common languages.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	hash := LineExtractor("#")
	r.Register(hash, ".py", ".sh", ".bash", ".zsh", ".rb", ".pl", ".r", ".yaml", ".yml", ".toml", ".cfg", ".conf", ".mk", ".cmake", ".dockerfile")

	c := CStyle()
	r.Register(c, ".js", ".jsx", ".mjs", ".ts", ".tsx", ".java", ".kt", ".c", ".h", ".cc", ".cpp", ".hpp", ".cs", ".swift", ".scala", ".dart", ".proto")

	rust := c
	rust.Quotes = `"`
	r.Register(rust, ".rs")

	r.Register(BlockExtractor("/*", "*/"), ".css", ".scss", ".less")
	r.Register(GoExtractor{}, ".go")
	r.Register(SyntaxExtractor{
		Line:   []string{"--"},
		Block:  []Delimiters{{Open: "/*", Close: "*/"}},
		Quotes: `'"`,
	}, ".sql")
	r.Register(SyntaxExtractor{
		Line:   []string{"--"},
		Block:  []Delimiters{{Open: "--[[", Close: "]]"}},
		Quotes: `'"`,
	}, ".lua")
	r.Register(SyntaxExtractor{
		Line:   []string{"--"},
		Block:  []Delimiters{{Open: "{-", Close: "-}"}},
		Quotes: `"`,
	}, ".hs")
	r.Register(LineExtractor(";"), ".ini", ".lisp", ".clj", ".el", ".asm")
	r.Register(HTMLExtractor{}, ".html", ".htm", ".xml", ".svg", ".md", ".markdown", ".vue")

	php := c
	php.Line = []string{"//", "#"}
	r.Register(Combine(HTMLExtractor{}, php), ".php")
	return r
}

// Register binds extractor to each extension (with leading dot, any case).
func (r *Registry) Register(extractor commentlink.CommentExtractor, exts ...string) {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = extractor
	}
}

// ForPath picks the extractor for a file by extension. Files named
// "Dockerfile" or "Makefile" are matched by name.
func (r *Registry) ForPath(path string) (commentlink.CommentExtractor, bool) {
	base := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(base)
	switch base {
	case "dockerfile":
		ext = ".dockerfile"
	case "makefile":
		ext = ".mk"
	}
	e, ok := r.byExt[ext]
	return e, ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Combine merges the spans of several extractors into file order. A span
// overlapping an earlier one is dropped; on equal offsets the earlier
// extractor wins.
func Combine(extractors ...commentlink.CommentExtractor) commentlink.CommentExtractor {
	return commentlink.CommentExtractorFunc(func(text string) []commentlink.CommentSpan {
		var all []commentlink.CommentSpan
		for _, e := range extractors {
			all = append(all, e.ExtractComments(text)...)
		}
		slices.SortStableFunc(all, func(a, b commentlink.CommentSpan) int {
			return a.FileOffset - b.FileOffset
		})

		out := all[:0]
		end := -1
		for _, s := range all {
			if s.FileOffset < end {
				continue
			}
			out = append(out, s)
			end = s.FileOffset + utf8.RuneCountInString(s.Text)
		}
		return out
	})
}
