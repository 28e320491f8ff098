// Package model defines the core data types used throughout branchsync.
package model

import (
	"path/filepath"
	"time"
)

// DetachedHead is the sentinel branch name for a repository whose HEAD
// does not point at a named branch.
const DetachedHead = "(detached HEAD)"

// Mode selects between safe and destructive synchronization.
type Mode string

const (
	// ModeSafe refuses to discard any local state.
	ModeSafe Mode = "safe"
	// ModeForce discards local changes and commits to match the remote.
	ModeForce Mode = "force"
)

// RepoRef identifies a located repository.
type RepoRef struct {
	// Path is the absolute path to the repository root.
	Path string `json:"path" yaml:"path"`
	// Name is the short display name, derived from the final path element.
	Name string `json:"name" yaml:"name"`
}

// NewRepoRef builds a RepoRef from a repository root path.
func NewRepoRef(path string) RepoRef {
	return RepoRef{Path: path, Name: filepath.Base(path)}
}

// StatusCode categorizes a single dirty path from porcelain status output.
type StatusCode string

const (
	StatusModified   StatusCode = "M"
	StatusAdded      StatusCode = "A"
	StatusDeleted    StatusCode = "D"
	StatusUntracked  StatusCode = "??"
	StatusRenamed    StatusCode = "R"
	StatusConflicted StatusCode = "U"
)

// DirtyPath is one changed path in the working tree or index.
type DirtyPath struct {
	// Code is the porcelain status category for the path.
	Code StatusCode `json:"code" yaml:"code"`
	// Path is the repository-relative file path.
	Path string `json:"path" yaml:"path"`
}

// RepoState is a point-in-time snapshot of one repository, immutable after
// inspection. Re-inspect to obtain a fresh one.
type RepoState struct {
	// IsValidRepo is false when the repository metadata is missing or corrupt.
	IsValidRepo bool `json:"is_valid_repo" yaml:"is_valid_repo"`
	// CurrentBranch is the checked-out branch, or DetachedHead.
	CurrentBranch string `json:"current_branch" yaml:"current_branch"`
	// Detached reports whether HEAD is detached.
	Detached bool `json:"detached" yaml:"detached"`
	// IsDirty reports staged, modified, or untracked paths.
	IsDirty bool `json:"is_dirty" yaml:"is_dirty"`
	// DirtyPaths lists the dirty paths in porcelain output order.
	DirtyPaths []DirtyPath `json:"dirty_paths,omitempty" yaml:"dirty_paths,omitempty"`
	// TargetExistsLocal reports whether the target branch exists locally.
	TargetExistsLocal bool `json:"target_branch_exists_local" yaml:"target_branch_exists_local"`
	// TargetExistsRemote reports whether origin/<target> exists.
	TargetExistsRemote bool `json:"target_branch_exists_remote" yaml:"target_branch_exists_remote"`
	// HasRemote reports whether a remote named "origin" is configured.
	HasRemote bool `json:"has_remote" yaml:"has_remote"`
	// HasSubmodules reports .gitmodules-declared submodules; branchsync does
	// not manage them and only surfaces the limitation.
	HasSubmodules bool `json:"has_submodules" yaml:"has_submodules"`
}

// OpKind enumerates the abstract operations a sync plan can contain.
type OpKind string

const (
	OpFetch             OpKind = "fetch"
	OpClean             OpKind = "clean"
	OpResetHard         OpKind = "reset-hard"
	OpCheckout          OpKind = "checkout"
	OpCheckoutCreate    OpKind = "checkout-create"
	OpResetHardToRemote OpKind = "reset-hard-to-remote"
	OpPull              OpKind = "pull"
)

// Operation is one abstract step of a sync plan.
type Operation struct {
	// Kind selects the operation variant.
	Kind OpKind `json:"kind" yaml:"kind"`
	// Ref is the reset target for OpResetHard (for example, "HEAD").
	Ref string `json:"ref,omitempty" yaml:"ref,omitempty"`
	// Branch is the branch operand for checkout/pull/reset-to-remote.
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`
	// Upstream is the tracking ref for OpCheckoutCreate (for example, "origin/main").
	Upstream string `json:"upstream,omitempty" yaml:"upstream,omitempty"`
	// Prune enables remote pruning for OpFetch.
	Prune bool `json:"prune,omitempty" yaml:"prune,omitempty"`
}

// Describe renders the operation as the git command line it stands for.
func (op Operation) Describe() string {
	switch op.Kind {
	case OpFetch:
		if op.Prune {
			return "git fetch origin --prune"
		}
		return "git fetch origin"
	case OpClean:
		return "git clean -fd"
	case OpResetHard:
		return "git reset --hard " + op.Ref
	case OpCheckout:
		return "git checkout " + op.Branch
	case OpCheckoutCreate:
		return "git checkout -b " + op.Branch + " " + op.Upstream
	case OpResetHardToRemote:
		return "git reset --hard origin/" + op.Branch
	case OpPull:
		return "git pull --ff-only origin " + op.Branch
	default:
		return string(op.Kind)
	}
}

// SyncPlan is the ordered operation list for one repository. A blocked plan
// carries an empty operation list and must not be executed.
type SyncPlan struct {
	// Ops are executed strictly in order.
	Ops []Operation `json:"ops" yaml:"ops"`
	// BlockReason is non-empty when the plan is blocked.
	BlockReason string `json:"block_reason,omitempty" yaml:"block_reason,omitempty"`
	// BlockClass is the coarse error class for a blocked plan.
	BlockClass string `json:"block_class,omitempty" yaml:"block_class,omitempty"`
	// Suggestion is an actionable hint accompanying a blocked plan.
	Suggestion string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// Blocked reports whether the plan must not be executed.
func (p SyncPlan) Blocked() bool { return p.BlockReason != "" }

// SyncResult records the outcome of running one plan against one repository.
type SyncResult struct {
	// Repo is the absolute repository path.
	Repo string
	// RepoName is the short display name.
	RepoName string
	// Success is true when every planned operation completed.
	Success bool
	// Skipped is true when no sync was attempted (broken repo, cancellation,
	// declined confirmation).
	Skipped bool
	// FromBranch is the branch before the sync (or the detached sentinel).
	FromBranch string
	// ToBranch is the requested target branch.
	ToBranch string
	// Forced records whether the plan ran in force mode.
	Forced bool
	// Message is human-readable context (success text, dirty listing, notes).
	Message string
	// Error is the failure text, empty on success.
	Error string
	// ErrorClass is the coarse category for Error (dirty/diverged/network/...).
	ErrorClass string
	// Suggestion is an actionable hint when the sync failed or was blocked.
	Suggestion string
	// PlannedOps lists the rendered operations; populated for dry runs.
	PlannedOps []string
	// Duration is the wall-clock time spent on this repository.
	Duration time.Duration
}

// BatchReport aggregates the outcomes of one batch run.
type BatchReport struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	// Results appear in repository discovery order.
	Results []SyncResult
	// Elapsed is the wall-clock duration of the whole run.
	Elapsed time.Duration
	// DryRun records whether the run mutated anything.
	DryRun bool
}

// Success reports whether the batch completed without failures.
func (r BatchReport) Success() bool { return r.Failed == 0 }

// RunConfig is the immutable per-invocation configuration for a batch run.
type RunConfig struct {
	// TargetBranch is the branch every repository is brought to.
	TargetBranch string
	// Mode selects safe or force synchronization.
	Mode Mode
	// DryRun renders plans without mutating repositories.
	DryRun bool
	// ContinueOnError keeps the batch going after per-repo failures.
	ContinueOnError bool
	// NoFetch omits the fetch operation from every plan.
	NoFetch bool
	// Prune enables --prune on fetch.
	Prune bool
	// TimeoutSeconds bounds each repository's plan execution. Zero disables.
	TimeoutSeconds int
	// Concurrency bounds parallel repo processing. Values <= 1 run sequentially.
	Concurrency int
}
