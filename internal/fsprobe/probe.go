// Package fsprobe implements the filesystem collaborator used to validate
// comment links: an OS-backed probe and a per-batch cache in front of it.
package fsprobe

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
)

// OSProbe answers existence and line-count queries against the local filesystem.
// Symlinks are followed. Missing files are (false, nil); every other failure is
// returned as an error.
type OSProbe struct {
	// CaseInsensitive retries a missing path by matching each segment with
	// Unicode case folding and NFC normalization.
	CaseInsensitive bool
	// Timeout bounds each call in addition to the caller's context. Zero disables it.
	Timeout time.Duration
}

var _ commentlink.FileSystem = (*OSProbe)(nil)

func (p *OSProbe) FileExists(ctx context.Context, path string) (bool, error) {
	return run(ctx, p.Timeout, func() (bool, error) {
		_, info, err := p.locate(path)
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return info.Mode().IsRegular(), nil
	})
}

// LineCount counts newline-terminated lines plus a final unterminated one.
// An empty file has zero lines.
func (p *OSProbe) LineCount(ctx context.Context, path string) (int, error) {
	return run(ctx, p.Timeout, func() (int, error) {
		actual, _, err := p.locate(path)
		if err != nil {
			return 0, err
		}
		f, err := os.Open(actual)
		if err != nil {
			return 0, err
		}
		defer func() { _ = f.Close() }()
		return countLines(ctx, f)
	})
}

func countLines(ctx context.Context, r io.Reader) (int, error) {
	buf := make([]byte, 64*1024)
	lines := 0
	var last byte
	seen := false
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := r.Read(buf)
		if n > 0 {
			seen = true
			last = buf[n-1]
			for _, b := range buf[:n] {
				if b == '\n' {
					lines++
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if seen && last != '\n' {
		lines++
	}
	return lines, nil
}

// locate stats path, falling back to a case-folded lookup when enabled.
func (p *OSProbe) locate(path string) (string, os.FileInfo, error) {
	native := filepath.FromSlash(path)
	info, err := os.Stat(native)
	if err == nil || !errors.Is(err, fs.ErrNotExist) || !p.CaseInsensitive {
		return native, info, err
	}

	actual, ok := foldedLookup(native)
	if !ok {
		return native, nil, err
	}
	info, err = os.Stat(actual)
	return actual, info, err
}

// foldedLookup walks native segment by segment, matching names that differ
// only by case or Unicode normalization.
func foldedLookup(native string) (string, bool) {
	volume := filepath.VolumeName(native)
	rest := strings.TrimPrefix(native[len(volume):], string(filepath.Separator))
	current := volume + string(filepath.Separator)
	if !filepath.IsAbs(native) {
		current = "."
	}

	caser := cases.Fold()
	for _, segment := range strings.Split(rest, string(filepath.Separator)) {
		if segment == "" {
			continue
		}
		candidate := filepath.Join(current, segment)
		if _, err := os.Lstat(candidate); err == nil {
			current = candidate
			continue
		}
		entries, err := os.ReadDir(current)
		if err != nil {
			return "", false
		}
		want := caser.String(norm.NFC.String(segment))
		found := false
		for _, e := range entries {
			if caser.String(norm.NFC.String(e.Name())) == want {
				current = filepath.Join(current, e.Name())
				found = true
				break
			}
		}
		if !found {
			return "", false
		}
	}
	return current, true
}

// run executes fn on its own goroutine so a hung filesystem cannot outlive ctx.
func run[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn()
		done <- outcome{v, err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
