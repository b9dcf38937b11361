package comments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
)

// spanText checks each span's offset against the source before returning the texts.
func spanText(t *testing.T, src string, spans []commentlink.CommentSpan) []string {
	t.Helper()
	runes := []rune(src)
	out := make([]string, len(spans))
	for i, s := range spans {
		n := len([]rune(s.Text))
		require.LessOrEqual(t, s.FileOffset+n, len(runes))
		if s.Text == string(runes[s.FileOffset:s.FileOffset+n]) {
			out[i] = s.Text
			continue
		}
		t.Fatalf("span %d text %q does not match source at offset %d", i, s.Text, s.FileOffset)
	}
	return out
}

func TestLineExtractor(t *testing.T) {
	src := "import os  # first [a](b.py)\n" +
		"s = \"not # a comment\"\n" +
		"t = 'also # not'  # second\r\n" +
		"# ünïcode [x](y)\n"

	got := spanText(t, src, LineExtractor("#").ExtractComments(src))
	assert.Equal(t, []string{"# first [a](b.py)", "# second", "# ünïcode [x](y)"}, got)
}

func TestCStyleExtractor(t *testing.T) {
	src := "const url = \"http://example.com\"; // see [x](x.ts)\n" +
		"/* block\n * [y](y.ts:3)\n */\n" +
		"const tpl = `// nope`;\n" +
		"/* unterminated"

	got := spanText(t, src, CStyle().ExtractComments(src))
	assert.Equal(t, []string{
		"// see [x](x.ts)",
		"/* block\n * [y](y.ts:3)\n */",
		"/* unterminated",
	}, got)
}

func TestLineCommentInsideBlockIsPartOfBlock(t *testing.T) {
	src := "/* a // b */ code // c"
	got := spanText(t, src, CStyle().ExtractComments(src))
	assert.Equal(t, []string{"/* a // b */", "// c"}, got)
}

func TestGoExtractor(t *testing.T) {
	src := "package x\n\n" +
		"// Doc for [helper](helper.go:10).\n" +
		"func f() string {\n" +
		"\treturn `// not a comment` + \"/* nor this */\" // trailing [t](t.go)\n" +
		"}\n" +
		"/* é [b](b.go) */\n"

	got := spanText(t, src, GoExtractor{}.ExtractComments(src))
	assert.Equal(t, []string{
		"// Doc for [helper](helper.go:10).",
		"// trailing [t](t.go)",
		"/* é [b](b.go) */",
	}, got)
}

func TestGoExtractorKeepsCRLFOffsets(t *testing.T) {
	src := "package x\r\n/*\r\n  see [a](b.go)\r\n*/\r\n// tail [c](c.go)\r\n"

	spans := GoExtractor{}.ExtractComments(src)
	got := spanText(t, src, spans)
	assert.Equal(t, []string{"/*\r\n  see [a](b.go)\r\n*/", "// tail [c](c.go)"}, got)

	runes := []rune(src)
	for i, want := range []string{"[a](b.go)", "[c](c.go)"} {
		occ := commentlink.FindLinks(spans[i].Text)
		require.Len(t, occ, 1)
		start, end := spans[i].FileOffset+occ[0].Start, spans[i].FileOffset+occ[0].End
		assert.Equal(t, want, string(runes[start:end]))
	}
}

func TestHTMLExtractor(t *testing.T) {
	src := "# Title\n\nSee [not a comment](x.md).\n<!-- todo: [design](docs/design.md:4) -->\n<p>é</p><!-- [b](b.html) -->"

	got := spanText(t, src, HTMLExtractor{}.ExtractComments(src))
	assert.Equal(t, []string{"<!-- todo: [design](docs/design.md:4) -->", "<!-- [b](b.html) -->"}, got)
}

func TestRegistryForPath(t *testing.T) {
	r := DefaultRegistry()

	for _, path := range []string{"a.py", "A.PY", "dir/main.go", "x.tsx", "Dockerfile", "sub/Makefile", "q.sql", "README.md"} {
		_, ok := r.ForPath(path)
		assert.True(t, ok, path)
	}
	_, ok := r.ForPath("image.png")
	assert.False(t, ok)

	e, ok := r.ForPath("main.go")
	require.True(t, ok)
	assert.IsType(t, GoExtractor{}, e)
	assert.Contains(t, r.Extensions(), ".rs")
}

func TestCombineDropsOverlappingSpans(t *testing.T) {
	src := "<!-- [a](a) -->\n<?php // [b](b) ?>\n<!-- [c](c) -->"
	e, ok := DefaultRegistry().ForPath("index.php")
	require.True(t, ok)

	got := spanText(t, src, e.ExtractComments(src))
	assert.Equal(t, []string{"<!-- [a](a) -->", "<?php // [b](b) ?>", "<!-- [c](c) -->"}, got)
}
