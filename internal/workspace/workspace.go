package workspace

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	ferrors "git.home.luguber.info/inful/commentlink/internal/foundation/errors"
	"git.home.luguber.info/inful/commentlink/internal/logfields"
)

// Workspace is a resolved workspace root.
type Workspace struct {
	Root   string // Absolute, host separators
	InRepo bool   // Root is a git work tree top level

	ignore gitignore.Matcher
}

// Open detects the root and, inside a git work tree, loads its .gitignore rules.
func Open(configuredRoot, start string) (*Workspace, error) {
	root, inRepo, err := DetectRoot(configuredRoot, start)
	if err != nil {
		return nil, err
	}

	ws := &Workspace{Root: root, InRepo: inRepo}
	if inRepo {
		patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
		if err != nil {
			slog.Warn("Failed to read .gitignore patterns", logfields.WorkspaceRoot(root), logfields.Error(err))
		} else {
			ws.ignore = gitignore.NewMatcher(patterns)
		}
	}
	return ws, nil
}

// DetectRoot returns the absolute workspace root and whether it is a git work tree.
func DetectRoot(configuredRoot, start string) (string, bool, error) {
	if configuredRoot != "" {
		root, err := absDir(configuredRoot)
		return root, false, err
	}

	if start == "" {
		start = "."
	}
	dir, err := absDir(start)
	if err != nil {
		return "", false, err
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) {
			slog.Debug("Git repository detection failed", logfields.Path(dir), logfields.Error(err))
		}
		return dir, false, nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no work tree to anchor links in.
		return dir, false, nil
	}
	return filepath.Clean(wt.Filesystem.Root()), true, nil
}

// Ignored reports whether rel (relative to Root, either separator) is excluded
// by the repository's .gitignore files.
func (w *Workspace) Ignored(rel string, isDir bool) bool {
	if w == nil || w.ignore == nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == "" || rel == "." {
		return false
	}
	return w.ignore.Match(strings.Split(rel, "/"), isDir)
}

// Rel returns path relative to Root with forward slashes, or path unchanged
// when it lies outside the root.
func (w *Workspace) Rel(path string) string {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func absDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryWorkspace, "cannot resolve workspace path").
			WithContext("path", path).
			Build()
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ferrors.NotFoundError("workspace directory does not exist").
				WithContext("path", abs).
				Build()
		}
		return "", ferrors.WrapError(err, ferrors.CategoryWorkspace, "cannot access workspace directory").
			WithContext("path", abs).
			Build()
	}
	if !info.IsDir() {
		return "", ferrors.NewError(ferrors.CategoryWorkspace, "workspace root is not a directory").
			WithContext("path", abs).
			Build()
	}
	return abs, nil
}
