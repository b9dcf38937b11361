// Package events publishes unresolved comment links to a message bus so that
// downstream tooling (issue bots, dashboards) can react to broken references.
package events

import (
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
)

// UnresolvedLinkEvent describes one comment link that did not resolve.
type UnresolvedLinkEvent struct {
	ID      string `json:"id"`       // Unique per event; used as the JetStream message ID
	BatchID string `json:"batch_id"` // Scan batch that found the link

	// Source location
	File          string `json:"file"`           // Absolute path of the file containing the comment
	WorkspaceRoot string `json:"workspace_root"` // Root the link was resolved against
	Line          int    `json:"line"`           // 1-based line of the link's '['
	Column        int    `json:"column"`         // 1-based rune column of the link's '['
	StartOffset   int    `json:"start_offset"`   // Rune offset in the file
	EndOffset     int    `json:"end_offset"`

	// Link
	Label      string `json:"label"`
	Target     string `json:"target"`
	TargetLine int    `json:"target_line,omitempty"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Location identifies where a result was found.
type Location struct {
	BatchID       string
	File          string
	WorkspaceRoot string
	Line          int
	Column        int
	StartOffset   int
	EndOffset     int
}

// NewUnresolvedLinkEvent builds an event for r found at loc.
func NewUnresolvedLinkEvent(loc Location, r commentlink.Result) UnresolvedLinkEvent {
	return UnresolvedLinkEvent{
		ID:            uuid.NewString(),
		BatchID:       loc.BatchID,
		File:          loc.File,
		WorkspaceRoot: loc.WorkspaceRoot,
		Line:          loc.Line,
		Column:        loc.Column,
		StartOffset:   loc.StartOffset,
		EndOffset:     loc.EndOffset,
		Label:         r.Occurrence.Label,
		Target:        r.Occurrence.RawTarget,
		TargetLine:    r.Target.Line.UnwrapOr(0),
		Status:        string(r.Status),
		Reason:        r.Reason,
		Timestamp:     time.Now().UTC(),
	}
}
