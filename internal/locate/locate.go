// Package locate finds candidate git repository roots: an explicit path, an
// upward walk from the working directory, or a bounded-depth scan of a base
// directory.
package locate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/okapos/branchsync/internal/gitx"
	"github.com/okapos/branchsync/internal/model"
)

// maxUpwardLevels bounds the parent-directory search before giving up.
const maxUpwardLevels = 10

// Options configures a bounded-depth scan.
type Options struct {
	// BaseDir is the directory the scan starts from.
	BaseDir string
	// MaxDepth is the deepest directory level inspected below BaseDir.
	// Depth 0 is BaseDir itself.
	MaxDepth int
	// Exclude holds glob patterns for directories to skip.
	Exclude []string
}

// Explicit resolves a single user-supplied repository path.
func Explicit(path string) (model.RepoRef, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return model.RepoRef{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return model.RepoRef{}, fmt.Errorf("repository path %s: %w", path, err)
	}
	if !info.IsDir() {
		return model.RepoRef{}, fmt.Errorf("repository path %s is not a directory", path)
	}
	return model.NewRepoRef(abs), nil
}

// Upward searches the working directory and its parents for a directory
// containing git metadata, stopping at the filesystem root or after
// maxUpwardLevels parents.
func Upward(cwd string) (model.RepoRef, error) {
	dir, err := filepath.Abs(cwd)
	if err != nil {
		return model.RepoRef{}, err
	}
	for i := 0; i <= maxUpwardLevels; i++ {
		if hasGitMetadata(dir) {
			return model.NewRepoRef(dir), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return model.RepoRef{}, fmt.Errorf("%w: searched upward from %s", gitx.ErrNoRepositoryFound, cwd)
}

// Scan walks BaseDir breadth-first down to MaxDepth and collects every
// directory containing git metadata. It does not descend below a matched
// repository, which keeps nested checkouts out of the batch.
func Scan(opts Options) ([]model.RepoRef, error) {
	base, err := filepath.Abs(opts.BaseDir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(base); err != nil {
		return nil, fmt.Errorf("scan base %s: %w", opts.BaseDir, err)
	}

	var refs []model.RepoRef
	level := []string{base}
	for depth := 0; depth <= opts.MaxDepth && len(level) > 0; depth++ {
		var next []string
		for _, dir := range level {
			if matchesExclude(dir, opts.Exclude) {
				continue
			}
			if hasGitMetadata(dir) {
				refs = append(refs, model.NewRepoRef(dir))
				continue
			}
			if depth == opts.MaxDepth {
				continue
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				// Unreadable directories are skipped, not fatal; the scan is
				// best-effort over whatever the user can see.
				continue
			}
			for _, entry := range entries {
				if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
					continue
				}
				next = append(next, filepath.Join(dir, entry.Name()))
			}
		}
		level = next
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: scanned %s to depth %d", gitx.ErrNoRepositoryFound, base, opts.MaxDepth)
	}
	return refs, nil
}

// matchesExclude checks whether a path matches any of the given exclude
// glob patterns.
func matchesExclude(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	slashPath := filepath.ToSlash(path)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		match, err := doublestar.Match(pattern, slashPath)
		if err != nil {
			continue
		}
		if match {
			return true
		}
	}
	return false
}

func hasGitMetadata(dir string) bool {
	// A .git entry may be a directory (normal checkout) or a file pointing at
	// a separate gitdir (worktrees); both count.
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
