// Package rollout holds the pure branch-targeting predicates shared by the
// resolution engine and the submit-time validation. Nothing here touches
// storage.
package rollout

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/zypocare/governance-backend/internal/types"
)

// AppliesTo reports whether an approved version governs the given branch.
// A BRANCH_OVERRIDE version applies only to its own branch; a GLOBAL version
// applies everywhere when ApplyToAllBranches, otherwise to its explicit set.
func AppliesTo(v *types.PolicyVersion, branchID uuid.UUID) bool {
	if v == nil {
		return false
	}
	switch v.Scope {
	case types.ScopeBranchOverride:
		return v.BranchID != nil && *v.BranchID == branchID
	case types.ScopeGlobal:
		if v.ApplyToAllBranches {
			return true
		}
		for _, link := range v.Branches {
			if link.BranchID == branchID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// TargetedBranchIDs expands a version's rollout against the full branch list.
func TargetedBranchIDs(v *types.PolicyVersion, allBranchIDs []uuid.UUID) []uuid.UUID {
	if v == nil {
		return nil
	}
	if v.Scope == types.ScopeBranchOverride {
		if v.BranchID == nil {
			return nil
		}
		return []uuid.UUID{*v.BranchID}
	}
	if v.ApplyToAllBranches {
		out := make([]uuid.UUID, len(allBranchIDs))
		copy(out, allBranchIDs)
		return out
	}
	return v.BranchIDs()
}

// ValidateTargeting enforces the submit-time exclusivity rule: exactly one of
// "all branches" or a non-empty explicit set. Ambiguity is tolerated while a
// version is still a draft, so this is only called on submit and approve.
func ValidateTargeting(v *types.PolicyVersion) error {
	if v.Scope == types.ScopeBranchOverride {
		if v.BranchID == nil {
			return fmt.Errorf("branch override version %s has no branch id", v.ID)
		}
		return nil
	}
	explicit := len(v.Branches) > 0
	switch {
	case v.ApplyToAllBranches && explicit:
		return fmt.Errorf("version %s targets all branches and an explicit branch set", v.ID)
	case !v.ApplyToAllBranches && !explicit:
		return fmt.Errorf("version %s targets no branches: enable applyToAllBranches or select at least one", v.ID)
	default:
		return nil
	}
}
