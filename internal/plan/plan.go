// Package plan derives a declarative sync plan from a repository snapshot.
// Build is a pure function: it never touches the filesystem or invokes git.
package plan

import (
	"fmt"
	"strings"

	"github.com/okapos/branchsync/internal/gitx"
	"github.com/okapos/branchsync/internal/model"
)

// maxDirtyListed caps the dirty paths enumerated in a block reason.
const maxDirtyListed = 10

// Class is the disjoint repository classification driving plan construction.
type Class string

const (
	ClassBroken        Class = "broken"
	ClassDirtyBlocked  Class = "dirty_blocked"
	ClassBranchMissing Class = "branch_missing"
	ClassOnTarget      Class = "on_target"
	ClassDetached      Class = "detached"
	ClassOffTarget     Class = "off_target"
)

// Classify places the repository into exactly one class. Conditions are
// evaluated in priority order; earlier conditions win.
func Classify(state model.RepoState, target string, mode model.Mode) Class {
	switch {
	case !state.IsValidRepo:
		return ClassBroken
	case state.IsDirty && mode == model.ModeSafe:
		return ClassDirtyBlocked
	case !state.TargetExistsLocal && !state.TargetExistsRemote:
		return ClassBranchMissing
	case state.CurrentBranch == target:
		return ClassOnTarget
	case state.Detached:
		return ClassDetached
	default:
		return ClassOffTarget
	}
}

// Build produces the ordered operation list for one repository. Fetch always
// precedes branch decisions, destructive cleanup always precedes the branch
// switch, and the final hard reset to the remote ref only runs on a
// known-clean tree.
func Build(state model.RepoState, cfg model.RunConfig) model.SyncPlan {
	target := cfg.TargetBranch
	switch Classify(state, target, cfg.Mode) {
	case ClassBroken:
		return model.SyncPlan{
			BlockReason: "repository metadata invalid",
			BlockClass:  gitx.ClassInvalid,
			Suggestion:  "verify the path contains a readable git repository",
		}
	case ClassDirtyBlocked:
		return model.SyncPlan{
			BlockReason: dirtyBlockReason(state.DirtyPaths),
			BlockClass:  gitx.ClassDirty,
			Suggestion:  "commit or stash the changes, or re-run with --force to discard them",
		}
	case ClassBranchMissing:
		return model.SyncPlan{
			BlockReason: fmt.Sprintf("branch %q not found locally or on remote", target),
			BlockClass:  gitx.ClassMissing,
			Suggestion:  "check the branch name",
		}
	case ClassOnTarget:
		if cfg.Mode == model.ModeForce {
			return model.SyncPlan{Ops: withFetch(cfg, []model.Operation{
				{Kind: model.OpClean},
				{Kind: model.OpResetHard, Ref: "HEAD"},
				{Kind: model.OpResetHardToRemote, Branch: target},
			})}
		}
		return model.SyncPlan{Ops: withFetch(cfg, []model.Operation{
			{Kind: model.OpPull, Branch: target},
		})}
	default: // ClassDetached, ClassOffTarget
		checkout := checkoutOp(state, target)
		if cfg.Mode == model.ModeForce {
			return model.SyncPlan{Ops: withFetch(cfg, []model.Operation{
				{Kind: model.OpClean},
				{Kind: model.OpResetHard, Ref: "HEAD"},
				checkout,
				{Kind: model.OpResetHardToRemote, Branch: target},
			})}
		}
		return model.SyncPlan{Ops: withFetch(cfg, []model.Operation{
			checkout,
			{Kind: model.OpPull, Branch: target},
		})}
	}
}

// checkoutOp switches to an existing local branch, or creates one tracking
// origin/<target> when only the remote ref exists.
func checkoutOp(state model.RepoState, target string) model.Operation {
	if state.TargetExistsLocal {
		return model.Operation{Kind: model.OpCheckout, Branch: target}
	}
	return model.Operation{Kind: model.OpCheckoutCreate, Branch: target, Upstream: "origin/" + target}
}

func withFetch(cfg model.RunConfig, ops []model.Operation) []model.Operation {
	if cfg.NoFetch {
		return ops
	}
	return append([]model.Operation{{Kind: model.OpFetch, Prune: cfg.Prune}}, ops...)
}

func dirtyBlockReason(paths []model.DirtyPath) string {
	var b strings.Builder
	b.WriteString("uncommitted changes present:")
	for i, p := range paths {
		if i == maxDirtyListed {
			fmt.Fprintf(&b, "\n  ... and %d more", len(paths)-maxDirtyListed)
			break
		}
		fmt.Fprintf(&b, "\n  %-2s %s", string(p.Code), p.Path)
	}
	return b.String()
}
