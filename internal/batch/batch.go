// Package batch drives the per-repository inspect→plan→execute pipeline over
// a discovered repository list and aggregates a BatchReport.
package batch

import (
	"context"
	"errors"
	"time"

	"github.com/okapos/branchsync/internal/execute"
	"github.com/okapos/branchsync/internal/gitx"
	"github.com/okapos/branchsync/internal/inspect"
	"github.com/okapos/branchsync/internal/model"
	"github.com/okapos/branchsync/internal/plan"
)

const maxWorkerChannelBuffer = 100

// ConfirmationPort decides whether a destructive force plan may discard the
// listed dirty paths. A nil port auto-approves (non-interactive contexts).
type ConfirmationPort func(ref model.RepoRef, dirty []model.DirtyPath) (bool, error)

// StartCallback is invoked just before a repository's plan begins.
type StartCallback func(ref model.RepoRef)

// ResultCallback is invoked for each completed result. Callbacks run on the
// coordinator goroutine, so callers can write terminal output without
// additional synchronization.
type ResultCallback func(res model.SyncResult)

// Coordinator owns one batch run. The report accumulator is exclusive to the
// coordinator for the duration of the run.
type Coordinator struct {
	Runner  gitx.Runner
	Confirm ConfirmationPort
	OnStart StartCallback
	OnDone  ResultCallback
}

// New creates a Coordinator. A nil runner defaults to the git CLI.
func New(runner gitx.Runner) *Coordinator {
	if runner == nil {
		runner = &gitx.GitRunner{}
	}
	return &Coordinator{Runner: runner}
}

// Run processes every repository and returns the aggregate report. A single
// bad repository never aborts the batch unless ContinueOnError is false.
// Cancellation stops before the next repository's plan, never mid-plan;
// unattempted repositories are recorded as skipped and the partial report
// is still valid.
func (c *Coordinator) Run(ctx context.Context, refs []model.RepoRef, cfg model.RunConfig) model.BatchReport {
	start := time.Now()

	var results []model.SyncResult
	// Interactive confirmation reads stdin; interleaving prompts from
	// workers would garble them, so any confirming run stays sequential.
	if cfg.Concurrency > 1 && cfg.ContinueOnError && c.Confirm == nil {
		results = c.runParallel(ctx, refs, cfg)
	} else {
		results = c.runSequential(ctx, refs, cfg)
	}

	report := model.BatchReport{
		Total:   len(results),
		Results: results,
		Elapsed: time.Since(start),
		DryRun:  cfg.DryRun,
	}
	for _, res := range results {
		switch {
		case res.Skipped:
			report.Skipped++
		case res.Success:
			report.Succeeded++
		default:
			report.Failed++
		}
	}
	return report
}

func (c *Coordinator) runSequential(ctx context.Context, refs []model.RepoRef, cfg model.RunConfig) []model.SyncResult {
	results := make([]model.SyncResult, 0, len(refs))
	skipReason := ""
	for _, ref := range refs {
		if skipReason == "" && ctx.Err() != nil {
			skipReason = "cancelled before start"
		}
		if skipReason != "" {
			results = append(results, c.emit(skippedResult(ref, cfg, skipReason)))
			continue
		}
		if c.OnStart != nil {
			c.OnStart(ref)
		}
		res := c.emit(c.syncOne(ctx, ref, cfg))
		results = append(results, res)
		if !res.Success && !res.Skipped && !cfg.ContinueOnError {
			skipReason = "skipped after earlier failure"
		}
	}
	return results
}

// runParallel processes distinct repositories concurrently. Each repository's
// own plan remains internally sequential; results keep discovery order.
func (c *Coordinator) runParallel(ctx context.Context, refs []model.RepoRef, cfg model.RunConfig) []model.SyncResult {
	type indexed struct {
		idx int
		res model.SyncResult
	}
	sem := make(chan struct{}, cfg.Concurrency)
	out := make(chan indexed, workerChannelBufferSize(len(refs)))
	spawned := 0

	results := make([]model.SyncResult, len(refs))
	for i, ref := range refs {
		if ctx.Err() != nil {
			results[i] = skippedResult(ref, cfg, "cancelled before start")
			continue
		}
		if c.OnStart != nil {
			c.OnStart(ref)
		}
		sem <- struct{}{}
		spawned++
		go func(i int, ref model.RepoRef) {
			defer func() { <-sem }()
			out <- indexed{idx: i, res: c.syncOne(ctx, ref, cfg)}
		}(i, ref)
	}
	for j := 0; j < spawned; j++ {
		item := <-out
		results[item.idx] = item.res
	}
	for i := range results {
		c.emit(results[i])
	}
	return results
}

func (c *Coordinator) emit(res model.SyncResult) model.SyncResult {
	if c.OnDone != nil {
		c.OnDone(res)
	}
	return res
}

// syncOne drives inspect→plan→execute for a single repository and maps the
// outcome into a SyncResult.
func (c *Coordinator) syncOne(ctx context.Context, ref model.RepoRef, cfg model.RunConfig) model.SyncResult {
	started := time.Now()
	res := model.SyncResult{
		Repo:     ref.Path,
		RepoName: ref.Name,
		ToBranch: cfg.TargetBranch,
		Forced:   cfg.Mode == model.ModeForce,
	}

	repoCtx := ctx
	if cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		repoCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	inspector := inspect.New(c.Runner)
	state := inspector.Inspect(repoCtx, ref, cfg.TargetBranch)
	res.FromBranch = state.CurrentBranch

	p := plan.Build(state, cfg)
	if p.Blocked() {
		res.Error = p.BlockReason
		res.ErrorClass = p.BlockClass
		res.Suggestion = p.Suggestion
		res.Duration = time.Since(started)
		// A broken repository was never attempted; everything else blocked
		// is a per-repository failure.
		res.Skipped = p.BlockClass == gitx.ClassInvalid
		return res
	}

	if cfg.Mode == model.ModeForce && state.IsDirty && !cfg.DryRun && c.Confirm != nil {
		ok, err := c.Confirm(ref, state.DirtyPaths)
		if err != nil {
			res.Error = "confirmation failed: " + err.Error()
			res.ErrorClass = gitx.ClassUnknown
			res.Duration = time.Since(started)
			return res
		}
		if !ok {
			res.Skipped = true
			res.Message = "confirmation declined"
			res.Duration = time.Since(started)
			return res
		}
	}

	exec := execute.New(c.Runner, cfg.DryRun)
	rendered, err := exec.Execute(repoCtx, ref, p)
	res.PlannedOps = rendered
	res.Duration = time.Since(started)
	if err != nil {
		res.Error = err.Error()
		var opErr *execute.OpError
		if errors.As(err, &opErr) {
			res.ErrorClass = opErr.Class
			res.Suggestion = opErr.Suggestion
		} else {
			res.ErrorClass = gitx.ClassifyError(err)
		}
		return res
	}

	res.Success = true
	res.Message = successMessage(state, cfg)
	if state.HasSubmodules {
		res.Message += "; contains submodules (not managed)"
	}
	return res
}

func successMessage(state model.RepoState, cfg model.RunConfig) string {
	if cfg.DryRun {
		return "dry-run: no changes made"
	}
	if state.CurrentBranch == cfg.TargetBranch {
		return "already on target branch, updated to latest"
	}
	return "switched and updated (" + state.CurrentBranch + " → " + cfg.TargetBranch + ")"
}

func skippedResult(ref model.RepoRef, cfg model.RunConfig, msg string) model.SyncResult {
	return model.SyncResult{
		Repo:     ref.Path,
		RepoName: ref.Name,
		ToBranch: cfg.TargetBranch,
		Forced:   cfg.Mode == model.ModeForce,
		Skipped:  true,
		Message:  msg,
	}
}

func workerChannelBufferSize(entryCount int) int {
	if entryCount <= 0 {
		return 1
	}
	if entryCount > maxWorkerChannelBuffer {
		return maxWorkerChannelBuffer
	}
	return entryCount
}
