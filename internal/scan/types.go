package scan

import (
	"time"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
)

// Link is a resolution result placed in its file.
type Link struct {
	commentlink.Result
	FileStart    int `json:"file_start"`    // Rune offsets of the link in the file
	FileEnd      int `json:"file_end"`
	SourceLine   int `json:"source_line"`   // 1-based line of the link's '['
	SourceColumn int `json:"source_column"` // 1-based rune column of the link's '['
}

// FileReport holds the links found in one file.
type FileReport struct {
	Path     string        `json:"path"`     // Absolute, forward slashes
	RelPath  string        `json:"rel_path"` // Relative to the workspace root
	Links    []Link        `json:"links"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Unresolved counts links whose status is not resolved.
func (f FileReport) Unresolved() int {
	n := 0
	for _, l := range f.Links {
		if !l.IsResolved() {
			n++
		}
	}
	return n
}

// Summary aggregates a batch.
type Summary struct {
	Files          int                        `json:"files"`
	FilesWithLinks int                        `json:"files_with_links"`
	FileErrors     int                        `json:"file_errors"`
	Links          int                        `json:"links"`
	ByStatus       map[commentlink.Status]int `json:"by_status"`
}

// Unresolved is the number of links that did not resolve.
func (s Summary) Unresolved() int {
	return s.Links - s.ByStatus[commentlink.StatusResolved]
}

// Batch is the outcome of one scan. Files are in walk order and links within a
// file are in source order.
type Batch struct {
	ID            string       `json:"id"`
	WorkspaceRoot string       `json:"workspace_root"`
	StartedAt     time.Time    `json:"started_at"`
	FinishedAt    time.Time    `json:"finished_at"`
	Full          bool         `json:"full"` // Whole workspace rather than selected files
	Canceled      bool         `json:"canceled,omitempty"`
	Files         []FileReport `json:"files"`
	Summary       Summary      `json:"summary"`
}

// Duration is the wall time of the batch.
func (b *Batch) Duration() time.Duration {
	return b.FinishedAt.Sub(b.StartedAt)
}

func summarize(files []FileReport) Summary {
	s := Summary{ByStatus: make(map[commentlink.Status]int, 4)}
	for _, f := range files {
		s.Files++
		if f.Error != "" {
			s.FileErrors++
		}
		if len(f.Links) > 0 {
			s.FilesWithLinks++
		}
		for _, l := range f.Links {
			s.Links++
			s.ByStatus[l.Status]++
		}
	}
	return s
}
