// SPDX-License-Identifier: MIT
package gitx

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoRepositoryFound aborts the whole run: nothing to sync.
	ErrNoRepositoryFound = errors.New("no git repository found")
	// ErrInvalidRepository marks missing or corrupt repository metadata.
	ErrInvalidRepository = errors.New("invalid git repository")
	// ErrDirtyWorktree marks uncommitted changes blocking a safe sync.
	ErrDirtyWorktree = errors.New("uncommitted changes present")
	// ErrBranchNotFound marks a target branch absent locally and on origin.
	ErrBranchNotFound = errors.New("branch not found locally or on remote")
	// ErrDiverged marks a pull that cannot fast-forward.
	ErrDiverged = errors.New("local branch has diverged from remote")
)

// Error class names attached to SyncResult.ErrorClass and used for
// suggestion lookup. Kept as strings so they serialize directly.
const (
	ClassInvalid  = "invalid_repo"
	ClassDirty    = "dirty"
	ClassMissing  = "branch_not_found"
	ClassDiverged = "diverged"
	ClassNetwork  = "network"
	ClassCheckout = "checkout"
	ClassReset    = "reset"
	ClassClean    = "clean"
	ClassTimeout  = "timeout"
	ClassUnknown  = "unknown"
)

// ClassifyError maps git/process errors into broad actionable categories.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ClassTimeout
	}
	switch {
	case errors.Is(err, ErrInvalidRepository):
		return ClassInvalid
	case errors.Is(err, ErrDirtyWorktree):
		return ClassDirty
	case errors.Is(err, ErrBranchNotFound):
		return ClassMissing
	case errors.Is(err, ErrDiverged):
		return ClassDiverged
	}

	msg := strings.ToLower(err.Error())
	// Heuristics are intentionally broad to keep categories actionable.
	switch {
	case IsDivergence(msg):
		return ClassDiverged
	case containsAny(msg, "could not resolve host", "network is unreachable", "connection timed out", "connection refused", "failed to connect", "unable to access", "temporary failure in name resolution"):
		return ClassNetwork
	case containsAny(msg, "timeout", "timed out", "deadline exceeded"):
		return ClassTimeout
	case containsAny(msg, "not a git repository", "bad object", "corrupt", "object file"):
		return ClassInvalid
	default:
		return ClassUnknown
	}
}

// IsDivergence reports whether git diagnostic text indicates a
// non-fast-forward pull.
func IsDivergence(msg string) bool {
	msg = strings.ToLower(msg)
	return containsAny(msg,
		"not possible to fast-forward",
		"have diverged",
		"diverged",
		"non-fast-forward",
		"needs merge",
	)
}

func containsAny(msg string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
