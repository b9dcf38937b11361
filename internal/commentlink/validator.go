package commentlink

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/commentlink/internal/foundation"
)

// Verdict is the validator's decision for one target.
type Verdict struct {
	Status   Status
	Path     foundation.Option[string]
	Line     foundation.Option[int]
	Strategy Strategy
	Reason   string
}

// Validate selects the first candidate that exists as a regular file.
//
// When ref carries a line, the selected file's line count decides between
// Resolved and LineOutOfRange; later candidates are not consulted. Errors from
// fs are treated as "does not exist".
func Validate(ctx context.Context, fs FileSystem, ref TargetReference, candidates []Candidate) Verdict {
	for _, c := range candidates {
		exists, err := fs.FileExists(ctx, c.Path)
		if err != nil || !exists {
			continue
		}

		line, hasLine := ref.Line.Get()
		if !hasLine {
			return Verdict{
				Status:   StatusResolved,
				Path:     foundation.Some(c.Path),
				Strategy: c.Strategy,
			}
		}

		count, err := fs.LineCount(ctx, c.Path)
		if err != nil {
			return Verdict{
				Status: StatusFileNotFound,
				Reason: fmt.Sprintf("cannot read %s: %v", c.Path, err),
			}
		}

		v := Verdict{
			Status:   StatusResolved,
			Path:     foundation.Some(c.Path),
			Line:     foundation.Some(line),
			Strategy: c.Strategy,
		}
		if count < line {
			v.Status = StatusLineOutOfRange
			v.Reason = fmt.Sprintf("line %d is past the end of %s (%d %s)", line, c.Path, count, plural(count, "line", "lines"))
		}
		return v
	}

	return Verdict{
		Status: StatusFileNotFound,
		Reason: notFoundReason(ref, candidates),
	}
}

func notFoundReason(ref TargetReference, candidates []Candidate) string {
	if len(candidates) == 0 {
		return fmt.Sprintf("no candidate paths for %q", ref.PathText)
	}
	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.Path
	}
	return "file not found: tried " + strings.Join(paths, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
