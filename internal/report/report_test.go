package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
	"git.home.luguber.info/inful/commentlink/internal/config"
	"git.home.luguber.info/inful/commentlink/internal/foundation"
	"git.home.luguber.info/inful/commentlink/internal/scan"
)

func resolvedLink() scan.Link {
	return scan.Link{
		Result: commentlink.Result{
			Occurrence:   commentlink.Occurrence{Label: "docs", RawTarget: "folder/otherfile.py:16"},
			ResolvedPath: foundation.Some("/repo/example/folder/otherfile.py"),
			Line:         foundation.Some(16),
			Strategy:     commentlink.StrategyRelativeToFile,
			Status:       commentlink.StatusResolved,
		},
		SourceLine:   1,
		SourceColumn: 7,
	}
}

func missingLink() scan.Link {
	return scan.Link{
		Result: commentlink.Result{
			Occurrence: commentlink.Occurrence{Label: "gone", RawTarget: "nowhere.py"},
			Status:     commentlink.StatusFileNotFound,
			Reason:     "file not found: tried /repo/example/nowhere.py, /repo/nowhere.py",
		},
		SourceLine:   3,
		SourceColumn: 3,
	}
}

func sampleBatch() *scan.Batch {
	return &scan.Batch{
		ID:            "batch-1",
		WorkspaceRoot: "/repo",
		StartedAt:     time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt:    time.Date(2026, 5, 1, 10, 0, 1, 0, time.UTC),
		Files: []scan.FileReport{
			{Path: "/repo/example/example.py", RelPath: "example/example.py", Links: []scan.Link{resolvedLink(), missingLink()}},
			{Path: "/repo/blob.py", RelPath: "blob.py", Error: "binary file"},
		},
		Summary: scan.Summary{
			Files:          2,
			FilesWithLinks: 1,
			FileErrors:     1,
			Links:          2,
			ByStatus: map[commentlink.Status]int{
				commentlink.StatusResolved:     1,
				commentlink.StatusFileNotFound: 1,
			},
		},
	}
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(Options{}).Format(&buf, sampleBatch()))
	out := buf.String()

	assert.Contains(t, out, "Comment links in: /repo")
	assert.Contains(t, out, "✗ example/example.py:3:3 [gone](nowhere.py)")
	assert.Contains(t, out, "file_not_found: file not found: tried")
	assert.NotContains(t, out, "[docs]")
	assert.Contains(t, out, "⚠ blob.py")
	assert.Contains(t, out, "  2 files scanned")
	assert.Contains(t, out, "  1 file skipped")
	assert.Contains(t, out, "❌ 1 comment link did not resolve.")
	assert.NotContains(t, out, "\x1b[")
}

func TestTextFormatterShowResolvedWithColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(Options{Color: true, ShowResolved: true}).Format(&buf, sampleBatch()))
	out := buf.String()

	assert.Contains(t, out, "example/example.py:1:7")
	assert.Contains(t, out, "resolved: /repo/example/folder/otherfile.py:16")
	assert.Contains(t, out, ansiRed)
}

func TestTextFormatterAllResolved(t *testing.T) {
	b := sampleBatch()
	b.Files = b.Files[:1]
	b.Files[0].Links = b.Files[0].Links[:1]
	b.Summary = scan.Summary{Files: 1, FilesWithLinks: 1, Links: 1, ByStatus: map[commentlink.Status]int{commentlink.StatusResolved: 1}}

	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(Options{}).Format(&buf, b))
	assert.Contains(t, buf.String(), "✨ All comment links resolve!")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Format(&buf, sampleBatch()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "batch-1", decoded["id"])
	assert.EqualValues(t, 1, decoded["unresolved"])

	files := decoded["files"].([]any)
	links := files[0].(map[string]any)["links"].([]any)
	first := links[0].(map[string]any)
	assert.Equal(t, "resolved", first["status"])
	assert.EqualValues(t, 16, first["line"])
	assert.EqualValues(t, 1, first["source_line"])
	assert.Equal(t, "/repo/example/folder/otherfile.py", first["resolved_path"])
	assert.Nil(t, links[1].(map[string]any)["resolved_path"])
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter(Options{}).Format(&buf, sampleBatch()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Comment link report\n"))
	assert.Contains(t, out, "| file_not_found | 1 |")
	assert.Contains(t, out, "## `example/example.py`")
	assert.Contains(t, out, `| 3:3 | \[gone\]\(nowhere.py\) | file_not_found |`)
	assert.NotContains(t, out, "blob.py`")
}

func TestHTMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(config.OutputHTML, Options{}).Format(&buf, sampleBatch()))
	out := buf.String()

	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<h1>Comment link report</h1>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "[gone](nowhere.py)")
}

func TestNewFormatterDefaultsToText(t *testing.T) {
	assert.IsType(t, &TextFormatter{}, NewFormatter("", Options{}))
	assert.IsType(t, &JSONFormatter{}, NewFormatter(config.OutputJSON, Options{}))
	assert.IsType(t, &MarkdownFormatter{}, NewFormatter(config.OutputMarkdown, Options{}))
}

func TestFileURI(t *testing.T) {
	cases := []struct {
		path string
		line int
		want string
	}{
		{"/repo/a.py", 16, "file:///repo/a.py#L16"},
		{"/repo/with space.py", 0, "file:///repo/with%20space.py"},
		{"C:/src/a.py", 2, "file:///C:/src/a.py#L2"},
		{"//server/share/a.py", 0, "file://server/share/a.py"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FileURI(c.path, c.line), c.path)
	}
}

func TestHover(t *testing.T) {
	assert.Equal(t, "[docs](file:///repo/example/folder/otherfile.py#L16)", Hover(resolvedLink().Result))
	assert.Equal(t,
		"**gone**: `nowhere.py` (file not found: tried /repo/example/nowhere.py, /repo/nowhere.py)",
		Hover(missingLink().Result))

	html, err := RenderMarkdown(Hover(resolvedLink().Result))
	require.NoError(t, err)
	assert.Contains(t, html, `<a href="file:///repo/example/folder/otherfile.py#L16">docs</a>`)
}
