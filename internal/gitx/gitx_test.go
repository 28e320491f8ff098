package gitx_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/okapos/branchsync/internal/gitx"
	"github.com/okapos/branchsync/internal/model"
)

var _ = Describe("GitRunner.Run", func() {
	var runner *gitx.GitRunner

	BeforeEach(func() {
		runner = &gitx.GitRunner{}
	})

	It("runs git version successfully", func() {
		out, err := runner.Run(context.Background(), "", "version")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("git version"))
	})

	It("errors for nonexistent directory", func() {
		_, err := runner.Run(context.Background(), "/nonexistent/path/xyz", "status")
		Expect(err).To(HaveOccurred())
	})

	It("respects context cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := runner.Run(ctx, "", "version")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("IsRepo", func() {
	It("returns true for a valid repo", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:rev-parse --is-inside-work-tree": {Output: "true"},
		}}
		Expect(gitx.IsRepo(context.Background(), mock, "/repo")).To(BeTrue())
	})

	It("returns false on error", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:rev-parse --is-inside-work-tree": {Err: errors.New("not a repo")},
		}}
		Expect(gitx.IsRepo(context.Background(), mock, "/repo")).To(BeFalse())
	})
})

var _ = Describe("CurrentBranch", func() {
	It("returns the branch name for attached HEAD", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:symbolic-ref --quiet --short HEAD": {Output: "main"},
		}}
		branch, detached, err := gitx.CurrentBranch(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(branch).To(Equal("main"))
		Expect(detached).To(BeFalse())
	})

	It("returns the detached sentinel when HEAD is not symbolic", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:symbolic-ref --quiet --short HEAD": {Err: errors.New("not a symbolic ref")},
			"/repo:rev-parse --verify HEAD":           {Output: "abc1234"},
		}}
		branch, detached, err := gitx.CurrentBranch(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(branch).To(Equal(model.DetachedHead))
		Expect(detached).To(BeTrue())
	})

	It("errors when HEAD resolves to nothing", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:symbolic-ref --quiet --short HEAD": {Err: errors.New("not a symbolic ref")},
			"/repo:rev-parse --verify HEAD":           {Err: errors.New("fatal: bad revision")},
		}}
		_, _, err := gitx.CurrentBranch(context.Background(), mock, "/repo")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Status", func() {
	It("returns nil for a clean tree", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:status --porcelain": {Output: ""},
		}}
		dirty, err := gitx.Status(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(dirty).To(BeEmpty())
	})

	It("returns ordered dirty paths", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:status --porcelain": {Output: " M main.go\n?? notes.txt"},
		}}
		dirty, err := gitx.Status(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(dirty).To(HaveLen(2))
		Expect(dirty[0].Path).To(Equal("main.go"))
		Expect(dirty[1].Code).To(Equal(model.StatusUntracked))
	})
})

var _ = Describe("Branch existence", func() {
	It("checks the local ref namespace", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:rev-parse --verify --quiet refs/heads/dev": {Output: "abc"},
		}}
		Expect(gitx.BranchExistsLocal(context.Background(), mock, "/repo", "dev")).To(BeTrue())
	})

	It("checks the origin remote-tracking namespace", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:rev-parse --verify --quiet refs/remotes/origin/dev": {Err: errors.New("missing")},
		}}
		Expect(gitx.BranchExistsRemote(context.Background(), mock, "/repo", "dev")).To(BeFalse())
	})
})

var _ = Describe("HasRemote", func() {
	It("finds origin among configured remotes", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:remote": {Output: "origin\nupstream"},
		}}
		Expect(gitx.HasRemote(context.Background(), mock, "/repo")).To(BeTrue())
	})

	It("returns false when only other remotes exist", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:remote": {Output: "upstream"},
		}}
		Expect(gitx.HasRemote(context.Background(), mock, "/repo")).To(BeFalse())
	})
})

var _ = Describe("Fetch", func() {
	It("passes --prune when requested", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:-c fetch.recurseSubmodules=false fetch origin --prune": {},
		}}
		Expect(gitx.Fetch(context.Background(), mock, "/repo", true)).To(Succeed())
	})

	It("omits --prune when disabled", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:-c fetch.recurseSubmodules=false fetch origin": {},
		}}
		Expect(gitx.Fetch(context.Background(), mock, "/repo", false)).To(Succeed())
	})
})

var _ = Describe("Mutating helpers", func() {
	It("issues the expected command lines", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:clean -fd":                    {},
			"/repo:reset --hard HEAD":            {},
			"/repo:checkout dev":                 {},
			"/repo:checkout -b dev origin/dev":   {},
			"/repo:pull --ff-only origin dev":    {},
			"/repo:reset --hard origin/dev":      {},
			"/repo:rev-parse --verify --quiet x": {},
		}}
		ctx := context.Background()
		Expect(gitx.Clean(ctx, mock, "/repo")).To(Succeed())
		Expect(gitx.ResetHard(ctx, mock, "/repo", "HEAD")).To(Succeed())
		Expect(gitx.Checkout(ctx, mock, "/repo", "dev")).To(Succeed())
		Expect(gitx.CheckoutCreate(ctx, mock, "/repo", "dev", "origin/dev")).To(Succeed())
		Expect(gitx.PullFFOnly(ctx, mock, "/repo", "dev")).To(Succeed())
		Expect(gitx.ResetHard(ctx, mock, "/repo", "origin/dev")).To(Succeed())
	})
})
