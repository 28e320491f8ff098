package branchsync

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/okapos/branchsync/internal/batch"
	"github.com/okapos/branchsync/internal/cliio"
	"github.com/okapos/branchsync/internal/config"
	"github.com/okapos/branchsync/internal/locate"
	"github.com/okapos/branchsync/internal/model"
	"github.com/okapos/branchsync/internal/report"
	"github.com/okapos/branchsync/internal/strutil"
	"github.com/okapos/branchsync/internal/tableutil"
	"github.com/okapos/branchsync/internal/termstyle"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Bring repositories to a target branch and its latest remote state",
	Long: `Sync checks out the target branch in each repository and updates it to the
latest remote state. Safe mode refuses to touch repositories with uncommitted
changes; --force discards local changes and commits to match origin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		branch, _ := cmd.Flags().GetString("branch")
		force, _ := cmd.Flags().GetBool("force")
		repoPath, _ := cmd.Flags().GetString("repo")
		scanRepos, _ := cmd.Flags().GetBool("scan-repos")
		baseDir, _ := cmd.Flags().GetString("base-dir")
		scanDepth, _ := cmd.Flags().GetInt("scan-depth")
		exclude, _ := cmd.Flags().GetString("exclude")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		continueOnError, _ := cmd.Flags().GetBool("continue-on-error")
		noFetch, _ := cmd.Flags().GetBool("no-fetch")
		prune, _ := cmd.Flags().GetBool("prune")
		jsonOut, _ := cmd.Flags().GetBool("json")
		yes, _ := cmd.Flags().GetBool("yes")
		timeout, _ := cmd.Flags().GetInt("timeout")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		noHeaders, _ := cmd.Flags().GetBool("no-headers")

		if repoPath != "" && scanRepos {
			return fmt.Errorf("--repo and --scan-repos are mutually exclusive")
		}

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfgPath, err := config.ResolveConfigPath(flagConfig, cwd)
		if err != nil {
			return err
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		debugf(cmd, "using config %s", cfgPath)

		if scanDepth <= 0 {
			scanDepth = cfg.Defaults.ScanDepth
		}
		if timeout <= 0 {
			timeout = cfg.Defaults.TimeoutSeconds
		}
		if concurrency <= 0 {
			concurrency = cfg.Defaults.Concurrency
		}
		excludes := strutil.SplitCSV(exclude)
		if len(excludes) == 0 {
			excludes = cfg.Exclude
		}

		refs, err := locateRepos(cmd, cwd, repoPath, scanRepos, baseDir, scanDepth, excludes, cfg)
		if err != nil {
			// An empty batch is a run-level failure, not a usage error.
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			raiseExitCode(1)
			return nil
		}
		debugf(cmd, "located %d repositories", len(refs))

		mode := model.ModeSafe
		if force {
			mode = model.ModeForce
		}
		runCfg := model.RunConfig{
			TargetBranch:    branch,
			Mode:            mode,
			DryRun:          dryRun,
			ContinueOnError: continueOnError,
			NoFetch:         noFetch,
			Prune:           prune,
			TimeoutSeconds:  timeout,
			Concurrency:     concurrency,
		}

		setColorOutputMode(cmd, jsonOut)

		coord := batch.New(nil)
		coord.Confirm = confirmationPort(cmd, yes, dryRun)
		coord.OnStart = func(ref model.RepoRef) {
			debugf(cmd, "syncing %s (%s)", ref.Name, ref.Path)
		}

		batchReport := coord.Run(cmd.Context(), refs, runCfg)

		if jsonOut {
			if err := report.WriteJSON(cmd.OutOrStdout(), batchReport); err != nil {
				return err
			}
		} else {
			writeSyncTable(cmd, batchReport, noHeaders)
			if dryRun {
				writePlannedOps(cmd, batchReport)
			}
			writeSummary(cmd, batchReport)
		}

		if !batchReport.Success() {
			raiseExitCode(1)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringP("branch", "b", "", "target branch name (required)")
	syncCmd.Flags().BoolP("force", "f", false, "discard local changes and reset to the remote branch")
	syncCmd.Flags().StringP("repo", "r", "", "repository path (default: search upward from the working directory)")
	syncCmd.Flags().Bool("scan-repos", false, "scan --base-dir for multiple repositories")
	syncCmd.Flags().String("base-dir", "", "base directory for --scan-repos (default: working directory)")
	syncCmd.Flags().Int("scan-depth", 0, "maximum scan depth for --scan-repos")
	syncCmd.Flags().String("exclude", "", "comma-separated glob patterns of directories to skip while scanning")
	syncCmd.Flags().Bool("dry-run", false, "print planned operations without executing")
	syncCmd.Flags().Bool("continue-on-error", true, "continue syncing remaining repos after a per-repo failure")
	syncCmd.Flags().Bool("no-fetch", false, "skip fetching remote updates (use local refs only)")
	syncCmd.Flags().Bool("prune", true, "prune deleted remote branches during fetch")
	syncCmd.Flags().Bool("json", false, "emit the structured report on stdout")
	syncCmd.Flags().BoolP("yes", "y", false, "approve destructive force actions without prompting")
	syncCmd.Flags().Int("timeout", 0, "timeout in seconds per repository")
	syncCmd.Flags().Int("concurrency", 0, "max repositories processed in parallel (default 1, sequential)")
	syncCmd.Flags().Bool("no-headers", false, "when printing the result table, omit headers")
	_ = syncCmd.MarkFlagRequired("branch")

	rootCmd.AddCommand(syncCmd)
}

// locateRepos resolves the batch: explicit path, bounded scan, or upward walk.
func locateRepos(cmd *cobra.Command, cwd, repoPath string, scanRepos bool, baseDir string, scanDepth int, excludes []string, cfg config.Config) ([]model.RepoRef, error) {
	switch {
	case repoPath != "":
		ref, err := locate.Explicit(repoPath)
		if err != nil {
			return nil, err
		}
		return []model.RepoRef{ref}, nil
	case scanRepos:
		if baseDir == "" {
			baseDir = cfg.Defaults.BaseDir
		}
		if baseDir == "" {
			baseDir = cwd
		}
		debugf(cmd, "scanning %s (depth %d)", baseDir, scanDepth)
		return locate.Scan(locate.Options{BaseDir: baseDir, MaxDepth: scanDepth, Exclude: excludes})
	default:
		ref, err := locate.Upward(cwd)
		if err != nil {
			return nil, fmt.Errorf("%w (use --repo or --scan-repos)", err)
		}
		return []model.RepoRef{ref}, nil
	}
}

// confirmationPort builds the destructive-action gate. Auto-approval applies
// with --yes, in dry runs, and whenever stdin is not a terminal (CI).
func confirmationPort(cmd *cobra.Command, yes, dryRun bool) batch.ConfirmationPort {
	if yes || dryRun || !stdinIsTerminal(cmd) {
		return nil
	}
	return func(ref model.RepoRef, dirty []model.DirtyPath) (bool, error) {
		out := cmd.ErrOrStderr()
		fmt.Fprintf(out, "%s has %d uncommitted change(s) that --force will discard:\n", ref.Name, len(dirty))
		for i, p := range dirty {
			if i == 10 {
				fmt.Fprintf(out, "  ... and %d more\n", len(dirty)-10)
				break
			}
			fmt.Fprintf(out, "  %-2s %s\n", string(p.Code), p.Path)
		}
		return cliio.PromptYesNo(out, cmd.InOrStdin(), "Discard and continue? [y/N]: ")
	}
}

func writeSyncTable(cmd *cobra.Command, batchReport model.BatchReport, noHeaders bool) {
	w := tableutil.New(cmd.OutOrStdout(), true)
	_ = tableutil.PrintHeaders(w, noHeaders, "REPO\tFROM\tTO\tFORCED\tRESULT\tDETAIL")
	for _, res := range batchReport.Results {
		outcome := termstyle.Colorize(colorOutputEnabled, "ok", termstyle.Success)
		detail := res.Message
		switch {
		case res.Skipped:
			outcome = termstyle.Colorize(colorOutputEnabled, "skipped", termstyle.Warn)
			if detail == "" {
				detail = res.Error
			}
		case !res.Success:
			outcome = termstyle.Colorize(colorOutputEnabled, "failed", termstyle.Fail)
			detail = res.Error
		}
		forced := "no"
		if res.Forced {
			forced = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			res.RepoName,
			res.FromBranch,
			res.ToBranch,
			forced,
			outcome,
			firstLine(detail))
	}
	_ = w.Flush()
}

// writePlannedOps mirrors dry-run plans to stderr so stdout stays parseable.
func writePlannedOps(cmd *cobra.Command, batchReport model.BatchReport) {
	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Planned operations:")
	for _, res := range batchReport.Results {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "  %s:\n", res.RepoName)
		if len(res.PlannedOps) == 0 {
			reason := res.Error
			if reason == "" {
				reason = res.Message
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "    (blocked: %s)\n", firstLine(reason))
			continue
		}
		for _, op := range res.PlannedOps {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "    %s\n", op)
		}
	}
}

func writeSummary(cmd *cobra.Command, batchReport model.BatchReport) {
	for _, res := range batchReport.Results {
		if res.Success || res.Suggestion == "" {
			continue
		}
		infof(cmd, "%s: %s", res.RepoName, res.Suggestion)
	}
	infof(cmd, "synced %d/%d repositories (%d failed, %d skipped) in %s",
		batchReport.Succeeded,
		batchReport.Total,
		batchReport.Failed,
		batchReport.Skipped,
		batchReport.Elapsed.Round(time.Millisecond))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
