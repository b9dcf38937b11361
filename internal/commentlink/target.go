package commentlink

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/commentlink/internal/foundation"
)

var (
	// ErrMalformedTarget is returned when a target cannot be split into a usable path.
	ErrMalformedTarget = errors.New("malformed link target")
	// ErrUnsupportedScheme is returned for URL targets other than file://.
	ErrUnsupportedScheme = errors.New("unsupported link target scheme")
	// ErrAmbiguousPath is returned when a path cannot be placed against any base.
	ErrAmbiguousPath = errors.New("ambiguous link target path")
)

const fileScheme = "file://"

// ParseTarget splits a raw link target into a path and an optional line.
//
// The line is taken from the last ':' only when everything after it is decimal
// digits, so drive letters and other colons stay in the path. A file:// prefix
// is accepted, including a "#L<n>" fragment as the line.
func ParseTarget(raw string) (TargetReference, error) {
	text := strings.TrimSpace(raw)
	fragmentLine := foundation.None[int]()

	if hasFileScheme(text) {
		var err error
		text, fragmentLine, err = parseFileURI(text)
		if err != nil {
			return TargetReference{}, err
		}
	} else if scheme, ok := urlScheme(text); ok {
		return TargetReference{}, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}

	ref := TargetReference{PathText: text, Line: fragmentLine}
	if i := strings.LastIndexByte(text, ':'); i >= 0 && isDigits(text[i+1:]) {
		line, err := parseLine(text[i+1:])
		if err != nil {
			return TargetReference{}, err
		}
		ref.PathText = text[:i]
		ref.Line = foundation.Some(line)
	}

	if ref.PathText == "" {
		return TargetReference{}, fmt.Errorf("%w: empty path in %q", ErrMalformedTarget, raw)
	}
	return ref, nil
}

func parseLine(digits string) (int, error) {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: line %s out of range", ErrMalformedTarget, digits)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: line numbers start at 1", ErrMalformedTarget)
	}
	return n, nil
}

func hasFileScheme(s string) bool {
	return len(s) >= len(fileScheme) && strings.EqualFold(s[:len(fileScheme)], fileScheme)
}

// parseFileURI turns file:///abs/path#L3 into a plain path and line.
func parseFileURI(s string) (string, foundation.Option[int], error) {
	rest := s[len(fileScheme):]
	line := foundation.None[int]()

	if i := strings.IndexByte(rest, '#'); i >= 0 {
		frag := rest[i+1:]
		rest = rest[:i]
		if len(frag) > 1 && (frag[0] == 'L' || frag[0] == 'l') && isDigits(frag[1:]) {
			n, err := parseLine(frag[1:])
			if err != nil {
				return "", line, err
			}
			line = foundation.Some(n)
		}
	}

	decoded, err := url.PathUnescape(rest)
	if err != nil {
		return "", line, fmt.Errorf("%w: %v", ErrMalformedTarget, err)
	}

	switch {
	case strings.HasPrefix(decoded, "/"):
		// file:///C:/x carries the drive after the authority's empty host.
		if len(decoded) >= 3 && isDriveLetter(decoded[1]) && decoded[2] == ':' {
			decoded = decoded[1:]
		}
	case strings.HasPrefix(strings.ToLower(decoded), "localhost/"):
		decoded = decoded[len("localhost"):]
	case decoded != "":
		// Remaining authority is a host: file://server/share/x is a UNC path.
		decoded = "//" + decoded
	}
	return decoded, line, nil
}

// urlScheme detects "scheme://". Single letters are drive designators, not schemes.
func urlScheme(s string) (string, bool) {
	i := strings.Index(s, "://")
	if i < 2 {
		return "", false
	}
	scheme := s[:i]
	for k, c := range scheme {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case k > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return "", false
		}
	}
	return scheme, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isDriveLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
