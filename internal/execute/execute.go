// Package execute runs sync plans against repositories via gitx. A plan is
// atomic-on-failure: the first failing operation aborts the remainder.
package execute

import (
	"context"
	"errors"
	"fmt"

	"github.com/okapos/branchsync/internal/gitx"
	"github.com/okapos/branchsync/internal/model"
)

// ErrBlockedPlan is returned when a caller tries to execute a blocked plan.
var ErrBlockedPlan = errors.New("refusing to execute a blocked plan")

// OpError carries the failing operation alongside the underlying git error.
type OpError struct {
	// Op is the operation that failed.
	Op model.Operation
	// Class is the coarse error category for the failure.
	Class string
	// Suggestion is an actionable hint, empty when none applies.
	Suggestion string
	// Err is the underlying git error.
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op.Describe(), e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Executor applies plan operations through a git runner.
type Executor struct {
	Runner gitx.Runner
	// DryRun renders operations without performing any git call.
	DryRun bool
}

// New creates an Executor. A nil runner defaults to the git CLI.
func New(runner gitx.Runner, dryRun bool) *Executor {
	if runner == nil {
		runner = &gitx.GitRunner{}
	}
	return &Executor{Runner: runner, DryRun: dryRun}
}

// Execute runs the plan's operations in order against the repository.
// It returns the rendered operation descriptions (always, for reporting)
// and the first operation failure, if any. In dry-run mode no git command
// is issued.
func (e *Executor) Execute(ctx context.Context, ref model.RepoRef, p model.SyncPlan) ([]string, error) {
	if p.Blocked() {
		return nil, ErrBlockedPlan
	}

	rendered := make([]string, 0, len(p.Ops))
	for _, op := range p.Ops {
		rendered = append(rendered, op.Describe())
	}
	if e.DryRun {
		return rendered, nil
	}

	for _, op := range p.Ops {
		if err := e.run(ctx, ref.Path, op); err != nil {
			return rendered, e.wrap(op, err)
		}
	}
	return rendered, nil
}

func (e *Executor) run(ctx context.Context, dir string, op model.Operation) error {
	switch op.Kind {
	case model.OpFetch:
		return gitx.Fetch(ctx, e.Runner, dir, op.Prune)
	case model.OpClean:
		return gitx.Clean(ctx, e.Runner, dir)
	case model.OpResetHard:
		return gitx.ResetHard(ctx, e.Runner, dir, op.Ref)
	case model.OpCheckout:
		return gitx.Checkout(ctx, e.Runner, dir, op.Branch)
	case model.OpCheckoutCreate:
		return gitx.CheckoutCreate(ctx, e.Runner, dir, op.Branch, op.Upstream)
	case model.OpResetHardToRemote:
		return gitx.ResetHard(ctx, e.Runner, dir, "origin/"+op.Branch)
	case model.OpPull:
		return gitx.PullFFOnly(ctx, e.Runner, dir, op.Branch)
	default:
		return fmt.Errorf("unknown operation %q", op.Kind)
	}
}

// wrap maps a raw git failure into a typed, per-operation error. The
// external tool's diagnostic text is preserved verbatim in Err.
func (e *Executor) wrap(op model.Operation, err error) *OpError {
	opErr := &OpError{Op: op, Err: err}
	switch op.Kind {
	case model.OpFetch:
		opErr.Class = gitx.ClassNetwork
		opErr.Suggestion = "check network connectivity, or re-run with --no-fetch to use local refs"
	case model.OpPull:
		if gitx.IsDivergence(err.Error()) {
			opErr.Class = gitx.ClassDiverged
			opErr.Err = fmt.Errorf("%w: %v", gitx.ErrDiverged, err)
			opErr.Suggestion = "re-run with --force to reset to the remote branch"
		} else {
			opErr.Class = gitx.ClassifyError(err)
		}
	case model.OpCheckout, model.OpCheckoutCreate:
		opErr.Class = gitx.ClassCheckout
	case model.OpResetHard, model.OpResetHardToRemote:
		opErr.Class = gitx.ClassReset
	case model.OpClean:
		opErr.Class = gitx.ClassClean
	default:
		opErr.Class = gitx.ClassUnknown
	}
	// Context failures outrank per-op classes so timeouts stay visible.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		opErr.Class = gitx.ClassTimeout
	}
	return opErr
}
