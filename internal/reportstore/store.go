// Package reportstore keeps a history of scan batches in SQLite so that
// unresolved links can be compared across runs.
package reportstore

import (
	"time"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
	"git.home.luguber.info/inful/commentlink/internal/foundation"
)

// ScanRecord is the stored summary of one batch.
type ScanRecord struct {
	ID            string    `json:"id"`
	WorkspaceRoot string    `json:"workspace_root"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Full          bool      `json:"full"`
	Canceled      bool      `json:"canceled"`
	Files         int       `json:"files"`
	Links         int       `json:"links"`
	Unresolved    int       `json:"unresolved"`
}

// ResultRecord is one stored link result.
type ResultRecord struct {
	ScanID       string                    `json:"scan_id"`
	File         string                    `json:"file"`
	Line         int                       `json:"line"`
	Column       int                       `json:"column"`
	StartOffset  int                       `json:"start_offset"`
	EndOffset    int                       `json:"end_offset"`
	Label        string                    `json:"label"`
	Target       string                    `json:"target"`
	ResolvedPath foundation.Option[string] `json:"resolved_path"`
	TargetLine   foundation.Option[int]    `json:"target_line"`
	Strategy     commentlink.Strategy      `json:"strategy"`
	Status       commentlink.Status        `json:"status"`
	Reason       string                    `json:"reason,omitempty"`
}
