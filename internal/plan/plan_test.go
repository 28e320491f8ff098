package plan_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/okapos/branchsync/internal/gitx"
	"github.com/okapos/branchsync/internal/model"
	"github.com/okapos/branchsync/internal/plan"
)

func safeCfg() model.RunConfig {
	return model.RunConfig{TargetBranch: "main", Mode: model.ModeSafe, Prune: true}
}

func forceCfg() model.RunConfig {
	return model.RunConfig{TargetBranch: "main", Mode: model.ModeForce, Prune: true}
}

func cleanState() model.RepoState {
	return model.RepoState{
		IsValidRepo:        true,
		CurrentBranch:      "main",
		TargetExistsLocal:  true,
		TargetExistsRemote: true,
		HasRemote:          true,
	}
}

func kinds(p model.SyncPlan) []model.OpKind {
	out := make([]model.OpKind, 0, len(p.Ops))
	for _, op := range p.Ops {
		out = append(out, op.Kind)
	}
	return out
}

var _ = Describe("Classify", func() {
	It("classifies invalid metadata as broken before anything else", func() {
		state := cleanState()
		state.IsValidRepo = false
		state.IsDirty = true
		Expect(plan.Classify(state, "main", model.ModeSafe)).To(Equal(plan.ClassBroken))
	})

	It("blocks dirty repos only in safe mode", func() {
		state := cleanState()
		state.IsDirty = true
		Expect(plan.Classify(state, "main", model.ModeSafe)).To(Equal(plan.ClassDirtyBlocked))
		Expect(plan.Classify(state, "main", model.ModeForce)).NotTo(Equal(plan.ClassDirtyBlocked))
	})

	It("reports a missing branch ahead of branch matching", func() {
		state := cleanState()
		state.CurrentBranch = "feature"
		state.TargetExistsLocal = false
		state.TargetExistsRemote = false
		Expect(plan.Classify(state, "main", model.ModeSafe)).To(Equal(plan.ClassBranchMissing))
	})

	It("prefers dirty blocking over a missing branch in safe mode", func() {
		state := cleanState()
		state.IsDirty = true
		state.TargetExistsLocal = false
		state.TargetExistsRemote = false
		Expect(plan.Classify(state, "main", model.ModeSafe)).To(Equal(plan.ClassDirtyBlocked))
	})

	It("recognizes the repo already on target", func() {
		Expect(plan.Classify(cleanState(), "main", model.ModeSafe)).To(Equal(plan.ClassOnTarget))
	})

	It("treats a dirty on-target repo in force mode as on target", func() {
		state := cleanState()
		state.IsDirty = true
		Expect(plan.Classify(state, "main", model.ModeForce)).To(Equal(plan.ClassOnTarget))
	})

	It("recognizes detached HEAD as its own recoverable state", func() {
		state := cleanState()
		state.CurrentBranch = model.DetachedHead
		state.Detached = true
		Expect(plan.Classify(state, "main", model.ModeSafe)).To(Equal(plan.ClassDetached))
	})

	It("falls through to off-target", func() {
		state := cleanState()
		state.CurrentBranch = "feature"
		Expect(plan.Classify(state, "main", model.ModeSafe)).To(Equal(plan.ClassOffTarget))
	})
})

var _ = Describe("Build", func() {
	It("blocks broken repos with no operations", func() {
		p := plan.Build(model.RepoState{}, safeCfg())
		Expect(p.Blocked()).To(BeTrue())
		Expect(p.Ops).To(BeEmpty())
		Expect(p.BlockReason).To(ContainSubstring("repository metadata invalid"))
		Expect(p.BlockClass).To(Equal(gitx.ClassInvalid))
	})

	It("blocks dirty repos in safe mode and enumerates dirty paths", func() {
		state := cleanState()
		state.IsDirty = true
		state.DirtyPaths = []model.DirtyPath{
			{Code: model.StatusModified, Path: "a.go"},
			{Code: model.StatusUntracked, Path: "b.txt"},
		}
		p := plan.Build(state, safeCfg())
		Expect(p.Blocked()).To(BeTrue())
		Expect(p.Ops).To(BeEmpty())
		Expect(p.BlockReason).To(ContainSubstring("a.go"))
		Expect(p.BlockReason).To(ContainSubstring("b.txt"))
		Expect(p.Suggestion).To(ContainSubstring("--force"))
	})

	It("caps the enumerated dirty paths", func() {
		state := cleanState()
		state.IsDirty = true
		for i := 0; i < 15; i++ {
			state.DirtyPaths = append(state.DirtyPaths, model.DirtyPath{
				Code: model.StatusModified,
				Path: fmt.Sprintf("file%02d.go", i),
			})
		}
		p := plan.Build(state, safeCfg())
		Expect(p.BlockReason).To(ContainSubstring("file09.go"))
		Expect(p.BlockReason).NotTo(ContainSubstring("file10.go"))
		Expect(p.BlockReason).To(ContainSubstring("and 5 more"))
	})

	It("blocks when the branch exists nowhere", func() {
		state := cleanState()
		state.TargetExistsLocal = false
		state.TargetExistsRemote = false
		p := plan.Build(state, safeCfg())
		Expect(p.Blocked()).To(BeTrue())
		Expect(p.BlockClass).To(Equal(gitx.ClassMissing))
	})

	It("plans fetch+pull for a clean repo already on target", func() {
		p := plan.Build(cleanState(), safeCfg())
		Expect(p.Blocked()).To(BeFalse())
		Expect(kinds(p)).To(Equal([]model.OpKind{model.OpFetch, model.OpPull}))
	})

	It("plans the idempotent force sequence on target", func() {
		p := plan.Build(cleanState(), forceCfg())
		Expect(kinds(p)).To(Equal([]model.OpKind{
			model.OpFetch, model.OpClean, model.OpResetHard, model.OpResetHardToRemote,
		}))
		Expect(p.Ops[2].Ref).To(Equal("HEAD"))
		Expect(p.Ops[3].Branch).To(Equal("main"))
	})

	It("plans checkout+pull off target in safe mode", func() {
		state := cleanState()
		state.CurrentBranch = "feature"
		p := plan.Build(state, safeCfg())
		Expect(kinds(p)).To(Equal([]model.OpKind{model.OpFetch, model.OpCheckout, model.OpPull}))
	})

	It("creates a tracking branch when only the remote ref exists", func() {
		state := cleanState()
		state.CurrentBranch = "feature"
		state.TargetExistsLocal = false
		p := plan.Build(state, safeCfg())
		Expect(kinds(p)).To(ContainElement(model.OpCheckoutCreate))
		Expect(kinds(p)).NotTo(ContainElement(model.OpCheckout))
		for _, op := range p.Ops {
			if op.Kind == model.OpCheckoutCreate {
				Expect(op.Upstream).To(Equal("origin/main"))
			}
		}
	})

	It("orders destructive cleanup before the branch switch in force mode", func() {
		state := cleanState()
		state.CurrentBranch = model.DetachedHead
		state.Detached = true
		state.IsDirty = true
		p := plan.Build(state, forceCfg())
		Expect(kinds(p)).To(Equal([]model.OpKind{
			model.OpFetch, model.OpClean, model.OpResetHard, model.OpCheckout, model.OpResetHardToRemote,
		}))
	})

	It("omits fetch when NoFetch is set", func() {
		cfg := safeCfg()
		cfg.NoFetch = true
		p := plan.Build(cleanState(), cfg)
		Expect(kinds(p)).To(Equal([]model.OpKind{model.OpPull}))
	})

	It("threads the prune toggle into the fetch operation", func() {
		cfg := safeCfg()
		cfg.Prune = false
		p := plan.Build(cleanState(), cfg)
		Expect(p.Ops[0].Kind).To(Equal(model.OpFetch))
		Expect(p.Ops[0].Prune).To(BeFalse())
		Expect(p.Ops[0].Describe()).To(Equal("git fetch origin"))
	})
})
