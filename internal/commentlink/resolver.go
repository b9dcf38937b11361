package commentlink

import (
	"fmt"
	"path"
	"strings"
)

// Candidates lists the paths a target may refer to, most specific first.
//
// Absolute targets produce a single candidate. Relative targets produce one
// candidate next to filePath and one under workspaceRoot; either is omitted
// when its base is empty. The function never touches the filesystem.
func Candidates(ref TargetReference, filePath, workspaceRoot string) ([]Candidate, error) {
	target := toSlash(ref.PathText)
	if target == "" {
		return nil, fmt.Errorf("%w: empty path", ErrMalformedTarget)
	}
	if isDriveRelative(target) {
		return nil, fmt.Errorf("%w: drive-relative path %q", ErrAmbiguousPath, ref.PathText)
	}
	if IsAbsolute(target) {
		return []Candidate{{Path: NormalizePath(target), Strategy: StrategyAbsolute}}, nil
	}

	candidates := make([]Candidate, 0, 2)
	if filePath != "" {
		candidates = append(candidates, Candidate{
			Path:     join(Dir(filePath), target),
			Strategy: StrategyRelativeToFile,
		})
	}
	if workspaceRoot != "" {
		candidates = append(candidates, Candidate{
			Path:     join(NormalizePath(workspaceRoot), target),
			Strategy: StrategyRelativeToWorkspaceRoot,
		})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: relative path %q without a file or workspace root", ErrAmbiguousPath, ref.PathText)
	}
	return candidates, nil
}

// IsAbsolute reports whether p is rooted: a leading separator (including UNC)
// or a drive designator followed by a separator.
func IsAbsolute(p string) bool {
	p = toSlash(p)
	if strings.HasPrefix(p, "/") {
		return true
	}
	return len(p) >= 3 && isDriveLetter(p[0]) && p[1] == ':' && p[2] == '/'
}

// NormalizePath canonicalizes separators to '/', drops empty and "." segments,
// and collapses "..". Case is preserved. A drive ("C:") or UNC ("//host/share")
// prefix is kept and ".." never climbs above it.
func NormalizePath(p string) string {
	volume, rest := splitVolume(toSlash(p))
	if rest == "" {
		if strings.HasPrefix(volume, "//") {
			return volume + "/"
		}
		return volume
	}
	cleaned := path.Clean(rest)
	if volume != "" && cleaned == "." {
		return volume
	}
	return volume + cleaned
}

// Dir returns the normalized directory containing p.
func Dir(p string) string {
	volume, rest := splitVolume(toSlash(p))
	if rest == "" {
		return NormalizePath(p)
	}
	return NormalizePath(volume + path.Dir(rest))
}

func join(base, rel string) string {
	return NormalizePath(base + "/" + rel)
}

// splitVolume separates a drive or UNC prefix from the rest of a slash path.
func splitVolume(p string) (volume, rest string) {
	if len(p) >= 2 && isDriveLetter(p[0]) && p[1] == ':' {
		return p[:2], p[2:]
	}
	if strings.HasPrefix(p, "//") && len(p) > 2 && p[2] != '/' {
		// //host/share/rest
		host, after, found := strings.Cut(p[2:], "/")
		if !found {
			return "//" + host, ""
		}
		share, tail, found := strings.Cut(after, "/")
		if share == "" {
			return "//" + host, "/" + tail
		}
		if !found {
			return "//" + host + "/" + share, ""
		}
		return "//" + host + "/" + share, "/" + tail
	}
	return "", p
}

func isDriveRelative(p string) bool {
	return len(p) >= 2 && isDriveLetter(p[0]) && p[1] == ':' && (len(p) == 2 || p[2] != '/')
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
