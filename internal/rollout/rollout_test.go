package rollout

import (
	"testing"

	"github.com/google/uuid"

	"github.com/zypocare/governance-backend/internal/types"
)

func globalVersion(applyAll bool, branchIDs ...uuid.UUID) *types.PolicyVersion {
	v := &types.PolicyVersion{
		ID:                 uuid.New(),
		Scope:              types.ScopeGlobal,
		ApplyToAllBranches: applyAll,
	}
	for _, id := range branchIDs {
		v.Branches = append(v.Branches, types.PolicyVersionBranch{PolicyVersionID: v.ID, BranchID: id})
	}
	return v
}

func overrideVersion(branchID uuid.UUID) *types.PolicyVersion {
	return &types.PolicyVersion{
		ID:       uuid.New(),
		Scope:    types.ScopeBranchOverride,
		BranchID: &branchID,
	}
}

func TestAppliesToGlobalAllBranches(t *testing.T) {
	v := globalVersion(true)
	if !AppliesTo(v, uuid.New()) {
		t.Fatalf("AppliesTo: all-branches global must apply to any branch")
	}
}

func TestAppliesToGlobalExplicitSet(t *testing.T) {
	in := uuid.New()
	out := uuid.New()
	v := globalVersion(false, in)
	if !AppliesTo(v, in) {
		t.Fatalf("AppliesTo: want=true for targeted branch")
	}
	if AppliesTo(v, out) {
		t.Fatalf("AppliesTo: want=false for untargeted branch")
	}
}

func TestAppliesToOverrideOwnBranchOnly(t *testing.T) {
	own := uuid.New()
	v := overrideVersion(own)
	if !AppliesTo(v, own) {
		t.Fatalf("AppliesTo: override must apply to its own branch")
	}
	if AppliesTo(v, uuid.New()) {
		t.Fatalf("AppliesTo: override must not apply to another branch")
	}
}

func TestTargetedBranchIDsRoundTrip(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	all := []uuid.UUID{a, b, c}

	expanded := TargetedBranchIDs(globalVersion(true), all)
	if len(expanded) != len(all) {
		t.Fatalf("TargetedBranchIDs all-branches: want=%d got=%d", len(all), len(expanded))
	}
	for _, id := range expanded {
		if !AppliesTo(globalVersion(true), id) {
			t.Fatalf("round trip: expanded id %s must satisfy AppliesTo", id)
		}
	}

	subset := globalVersion(false, a, c)
	expanded = TargetedBranchIDs(subset, all)
	if len(expanded) != 2 {
		t.Fatalf("TargetedBranchIDs subset: want=2 got=%d", len(expanded))
	}
	for _, id := range expanded {
		if !AppliesTo(subset, id) {
			t.Fatalf("round trip: subset id %s must satisfy AppliesTo", id)
		}
	}
	if AppliesTo(subset, b) {
		t.Fatalf("round trip: id %s outside subset must not apply", b)
	}

	ov := overrideVersion(b)
	expanded = TargetedBranchIDs(ov, all)
	if len(expanded) != 1 || expanded[0] != b {
		t.Fatalf("TargetedBranchIDs override: want=[%s] got=%v", b, expanded)
	}
}

func TestValidateTargeting(t *testing.T) {
	if err := ValidateTargeting(globalVersion(true)); err != nil {
		t.Fatalf("all-branches global: unexpected error: %v", err)
	}
	if err := ValidateTargeting(globalVersion(false, uuid.New())); err != nil {
		t.Fatalf("explicit subset global: unexpected error: %v", err)
	}
	if err := ValidateTargeting(globalVersion(false)); err == nil {
		t.Fatalf("untargeted global: expected error")
	}
	if err := ValidateTargeting(globalVersion(true, uuid.New())); err == nil {
		t.Fatalf("ambiguous global: expected error")
	}
	if err := ValidateTargeting(overrideVersion(uuid.New())); err != nil {
		t.Fatalf("override with branch: unexpected error: %v", err)
	}
	if err := ValidateTargeting(&types.PolicyVersion{Scope: types.ScopeBranchOverride}); err == nil {
		t.Fatalf("override without branch: expected error")
	}
}
