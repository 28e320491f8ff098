// Package gitx provides helpers for executing git commands and parsing
// their output. It shells out to the installed git binary.
package gitx

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/okapos/branchsync/internal/model"
)

// Runner executes git commands in a given repo directory.
// This interface allows mocking in tests.
type Runner interface {
	// Run executes a git command in the given directory and returns
	// combined stdout/stderr output.
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// GitRunner is the default Runner implementation that shells out to git.
type GitRunner struct {
	// GitBin is the path to the git binary. Defaults to "git".
	GitBin string
}

// Run executes a git command.
func (g *GitRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := g.GitBin
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil {
		if text != "" {
			return text, fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), text, err)
		}
		return text, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return text, nil
}

// IsRepo checks whether the given path is inside a git working tree.
func IsRepo(ctx context.Context, r Runner, dir string) bool {
	out, err := r.Run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "true"
}

// CurrentBranch returns the checked-out branch and detached state.
// A detached HEAD is a legitimate state, not an error.
func CurrentBranch(ctx context.Context, r Runner, dir string) (string, bool, error) {
	out, err := r.Run(ctx, dir, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err == nil && strings.TrimSpace(out) != "" {
		return strings.TrimSpace(out), false, nil
	}
	// symbolic-ref fails when HEAD is detached; confirm via rev-parse so a
	// corrupt repo is not misreported as detached.
	if _, err := r.Run(ctx, dir, "rev-parse", "--verify", "HEAD"); err != nil {
		return "", false, err
	}
	return model.DetachedHead, true, nil
}

// Status returns the dirty paths from porcelain status output.
func Status(ctx context.Context, r Runner, dir string) ([]model.DirtyPath, error) {
	out, err := r.Run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return ParsePorcelainStatus(out), nil
}

// BranchExistsLocal checks for a local branch ref.
func BranchExistsLocal(ctx context.Context, r Runner, dir, branch string) bool {
	_, err := r.Run(ctx, dir, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// BranchExistsRemote checks for a remote-tracking ref under origin.
func BranchExistsRemote(ctx context.Context, r Runner, dir, branch string) bool {
	_, err := r.Run(ctx, dir, "rev-parse", "--verify", "--quiet", "refs/remotes/origin/"+branch)
	return err == nil
}

// HasRemote reports whether a remote named origin is configured.
func HasRemote(ctx context.Context, r Runner, dir string) bool {
	out, err := r.Run(ctx, dir, "remote")
	if err != nil {
		return false
	}
	for _, name := range strings.Split(out, "\n") {
		if strings.TrimSpace(name) == "origin" {
			return true
		}
	}
	return false
}

// HasSubmodules checks for the presence of submodules without recursing.
func HasSubmodules(ctx context.Context, r Runner, dir string) bool {
	_, err := r.Run(ctx, dir, "config", "--file", ".gitmodules", "--get-regexp", "submodule")
	return err == nil
}

// Fetch updates remote-tracking refs from origin.
func Fetch(ctx context.Context, r Runner, dir string, prune bool) error {
	args := []string{"-c", "fetch.recurseSubmodules=false", "fetch", "origin"}
	if prune {
		args = append(args, "--prune")
	}
	_, err := r.Run(ctx, dir, args...)
	return err
}

// Clean removes untracked files and directories.
func Clean(ctx context.Context, r Runner, dir string) error {
	_, err := r.Run(ctx, dir, "clean", "-fd")
	return err
}

// ResetHard resets the index and working tree to the given ref.
func ResetHard(ctx context.Context, r Runner, dir, ref string) error {
	_, err := r.Run(ctx, dir, "reset", "--hard", ref)
	return err
}

// Checkout switches to an existing local branch.
func Checkout(ctx context.Context, r Runner, dir, branch string) error {
	_, err := r.Run(ctx, dir, "checkout", branch)
	return err
}

// CheckoutCreate creates a local branch tracking the given upstream ref and
// switches to it.
func CheckoutCreate(ctx context.Context, r Runner, dir, branch, upstream string) error {
	_, err := r.Run(ctx, dir, "checkout", "-b", branch, upstream)
	return err
}

// PullFFOnly fast-forwards the current branch from origin. A pull that would
// require a merge or rebase fails.
func PullFFOnly(ctx context.Context, r Runner, dir, branch string) error {
	_, err := r.Run(ctx, dir, "pull", "--ff-only", "origin", branch)
	return err
}
