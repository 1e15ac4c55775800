package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PolicyScope string

const (
	ScopeGlobal         PolicyScope = "GLOBAL"
	ScopeBranchOverride PolicyScope = "BRANCH_OVERRIDE"
)

type PolicyStatus string

const (
	StatusDraft     PolicyStatus = "DRAFT"
	StatusSubmitted PolicyStatus = "SUBMITTED"
	StatusApproved  PolicyStatus = "APPROVED"
	StatusRejected  PolicyStatus = "REJECTED"
)

// PolicyDefinition is a catalog entry. Code is the stable identifier used by
// every caller; only the description may change after creation.
type PolicyDefinition struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string    `gorm:"uniqueIndex;not null" json:"code"`
	Name        string    `gorm:"not null" json:"name"`
	Type        string    `gorm:"not null" json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (PolicyDefinition) TableName() string { return "policy_definition" }

// PolicyVersion is one entry of a lineage (policy, scope, branch). Version
// numbers are assigned at draft creation and never reused, rejected or not.
// UpdatedAt doubles as the optimistic-concurrency token for draft edits.
type PolicyVersion struct {
	ID       uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	PolicyID uuid.UUID         `gorm:"type:uuid;not null;index" json:"policy_id"`
	Policy   *PolicyDefinition `gorm:"foreignKey:PolicyID;references:ID" json:"policy,omitempty"`

	Scope    PolicyScope `gorm:"not null;index" json:"scope"`
	BranchID *uuid.UUID  `gorm:"type:uuid;index" json:"branch_id,omitempty"`
	Branch   *Branch     `gorm:"foreignKey:BranchID;references:ID" json:"branch,omitempty"`

	Version int          `gorm:"not null" json:"version"`
	Status  PolicyStatus `gorm:"not null;index:idx_policy_version_status" json:"status"`

	EffectiveAt time.Time      `gorm:"not null" json:"effective_at"`
	Payload     datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	Notes       *string        `json:"notes,omitempty"`

	ApplyToAllBranches bool                  `gorm:"not null;default:false" json:"apply_to_all_branches"`
	Branches           []PolicyVersionBranch `gorm:"foreignKey:PolicyVersionID;references:ID" json:"branches,omitempty"`

	CreatedByUserID   uuid.UUID  `gorm:"type:uuid;not null" json:"created_by_user_id"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	SubmittedByUserID *uuid.UUID `gorm:"type:uuid" json:"submitted_by_user_id,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	ApprovedByUserID  *uuid.UUID `gorm:"type:uuid" json:"approved_by_user_id,omitempty"`
	ApprovalNote      *string    `json:"approval_note,omitempty"`
	RejectedAt        *time.Time `json:"rejected_at,omitempty"`
	RejectedByUserID  *uuid.UUID `gorm:"type:uuid" json:"rejected_by_user_id,omitempty"`
	RejectionReason   *string    `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
	// Withdrawn drafts are soft-deleted: invisible everywhere, but still
	// holding their version number so it is never reissued.
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PolicyVersion) TableName() string { return "policy_version" }

// PolicyCode returns the lineage's catalog code when the Policy association
// is loaded, else the empty string.
func (v *PolicyVersion) PolicyCode() string {
	if v.Policy == nil {
		return ""
	}
	return v.Policy.Code
}

func (v *PolicyVersion) BranchIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(v.Branches))
	for _, b := range v.Branches {
		out = append(out, b.BranchID)
	}
	return out
}

// PolicyVersionBranch stores the explicit rollout subset of a GLOBAL version
// when ApplyToAllBranches is false.
type PolicyVersionBranch struct {
	PolicyVersionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"policy_version_id"`
	BranchID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"branch_id"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
}

func (PolicyVersionBranch) TableName() string { return "policy_version_branch" }
