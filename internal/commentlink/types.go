package commentlink

import (
	"git.home.luguber.info/inful/commentlink/internal/foundation"
	"git.home.luguber.info/inful/commentlink/internal/foundation/normalization"
)

// Strategy names the base a candidate path was resolved against.
type Strategy string

const (
	StrategyNone                    Strategy = ""
	StrategyAbsolute                Strategy = "absolute"
	StrategyRelativeToFile          Strategy = "relative_to_file"
	StrategyRelativeToWorkspaceRoot Strategy = "relative_to_workspace_root"
)

// Status is the outcome of resolving one link occurrence.
type Status string

const (
	StatusResolved           Status = "resolved"
	StatusFileNotFound       Status = "file_not_found"
	StatusLineOutOfRange     Status = "line_out_of_range"
	StatusAmbiguousOrInvalid Status = "ambiguous_or_invalid"
)

// Statuses lists every status in report order.
func Statuses() []Status {
	return []Status{StatusResolved, StatusFileNotFound, StatusLineOutOfRange, StatusAmbiguousOrInvalid}
}

var statusNormalizer = normalization.NewNormalizer("status", map[string]Status{
	"resolved":             StatusResolved,
	"ok":                   StatusResolved,
	"file_not_found":       StatusFileNotFound,
	"not_found":            StatusFileNotFound,
	"line_out_of_range":    StatusLineOutOfRange,
	"ambiguous_or_invalid": StatusAmbiguousOrInvalid,
	"invalid":              StatusAmbiguousOrInvalid,
}, StatusAmbiguousOrInvalid)

var strategyNormalizer = normalization.NewNormalizer("strategy", map[string]Strategy{
	"absolute":                   StrategyAbsolute,
	"relative_to_file":           StrategyRelativeToFile,
	"relative_to_workspace_root": StrategyRelativeToWorkspaceRoot,
}, StrategyNone)

// ParseStatus converts a stored or user-supplied status name.
func ParseStatus(s string) (Status, error) {
	return statusNormalizer.Parse(s)
}

// ParseStrategy converts a stored strategy name; the empty string maps to StrategyNone.
func ParseStrategy(s string) (Strategy, error) {
	return strategyNormalizer.Parse(s)
}

// Occurrence is one "[label](target)" span inside a comment.
// Offsets count runes from the start of the comment text and are half-open.
type Occurrence struct {
	Label      string `json:"label"`
	RawTarget  string `json:"raw_target"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	LabelStart int    `json:"label_start"`
	LabelEnd   int    `json:"label_end"`
}

// TargetReference is a parsed link target. PathText is never empty for a
// successfully parsed target and keeps its original separators.
type TargetReference struct {
	PathText string                 `json:"path_text"`
	Line     foundation.Option[int] `json:"line"`
}

// Candidate is one normalized absolute path to try, in priority order.
type Candidate struct {
	Path     string   `json:"path"`
	Strategy Strategy `json:"strategy"`
}

// Result is the resolution outcome for a single occurrence.
type Result struct {
	Occurrence Occurrence `json:"occurrence"`
	// CommentOffset is the rune offset of the enclosing comment in the file.
	// Resolve sets it; ResolveComment leaves it zero.
	CommentOffset int                       `json:"comment_offset"`
	Target        TargetReference           `json:"target"`
	ResolvedPath  foundation.Option[string] `json:"resolved_path"`
	Line          foundation.Option[int]    `json:"line"`
	Strategy      Strategy                  `json:"strategy,omitempty"`
	Status        Status                    `json:"status"`
	Reason        string                    `json:"reason,omitempty"`
}

// IsResolved reports whether the link points at an existing file and line.
func (r Result) IsResolved() bool {
	return r.Status == StatusResolved
}

// FileSpan translates the occurrence span into file offsets given the
// comment's own offset within the file.
func (r Result) FileSpan(commentOffset int) (start, end int) {
	return commentOffset + r.Occurrence.Start, commentOffset + r.Occurrence.End
}
