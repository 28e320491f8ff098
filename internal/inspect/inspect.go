// Package inspect builds immutable RepoState snapshots by querying a
// repository through gitx. It never mutates the repository.
package inspect

import (
	"context"

	"github.com/okapos/branchsync/internal/gitx"
	"github.com/okapos/branchsync/internal/model"
)

// Inspector queries repositories for their current state.
type Inspector struct {
	Runner gitx.Runner
}

// New creates an Inspector. A nil runner defaults to the git CLI.
func New(runner gitx.Runner) *Inspector {
	if runner == nil {
		runner = &gitx.GitRunner{}
	}
	return &Inspector{Runner: runner}
}

// Inspect snapshots the repository at ref.Path relative to targetBranch.
// Unreadable or corrupt metadata yields IsValidRepo=false rather than an
// error: that is a per-repository condition, not a batch failure.
func (i *Inspector) Inspect(ctx context.Context, ref model.RepoRef, targetBranch string) model.RepoState {
	if !gitx.IsRepo(ctx, i.Runner, ref.Path) {
		return model.RepoState{}
	}

	state := model.RepoState{IsValidRepo: true}

	branch, detached, err := gitx.CurrentBranch(ctx, i.Runner, ref.Path)
	if err != nil {
		// HEAD resolves to nothing at all: treat as corrupt metadata.
		return model.RepoState{}
	}
	state.CurrentBranch = branch
	state.Detached = detached

	dirty, err := gitx.Status(ctx, i.Runner, ref.Path)
	if err != nil {
		return model.RepoState{}
	}
	state.DirtyPaths = dirty
	state.IsDirty = len(dirty) > 0

	state.TargetExistsLocal = gitx.BranchExistsLocal(ctx, i.Runner, ref.Path, targetBranch)
	state.TargetExistsRemote = gitx.BranchExistsRemote(ctx, i.Runner, ref.Path, targetBranch)
	state.HasRemote = gitx.HasRemote(ctx, i.Runner, ref.Path)
	state.HasSubmodules = gitx.HasSubmodules(ctx, i.Runner, ref.Path)

	return state
}
