package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	redisclient "github.com/zypocare/governance-backend/internal/clients/redis"
	"github.com/zypocare/governance-backend/internal/platform/apierr"
	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/repos"
	"github.com/zypocare/governance-backend/internal/requestdata"
	"github.com/zypocare/governance-backend/internal/rollout"
	"github.com/zypocare/governance-backend/internal/templates"
	"github.com/zypocare/governance-backend/internal/types"
)

// DraftPatch is one edit to an open draft. BranchIDs nil leaves the rollout
// subset unchanged; an empty non-nil slice clears it. ExpectedUpdatedAt is
// the optimistic-concurrency token from the caller's last read.
type DraftPatch struct {
	Payload            json.RawMessage
	Notes              *string
	EffectiveAt        *time.Time
	ApplyToAllBranches *bool
	BranchIDs          []uuid.UUID
	ExpectedUpdatedAt  time.Time
}

type LifecycleService interface {
	CreateGlobalDraft(ctx context.Context, code string) (*types.PolicyVersion, error)
	CreateBranchOverrideDraft(ctx context.Context, code string, branchID uuid.UUID) (*types.PolicyVersion, error)
	UpdateDraft(ctx context.Context, versionID uuid.UUID, patch DraftPatch) (*types.PolicyVersion, error)
	DeleteDraft(ctx context.Context, versionID uuid.UUID) error
	Submit(ctx context.Context, versionID uuid.UUID) (*types.PolicyVersion, error)
	Approve(ctx context.Context, versionID uuid.UUID, note *string) (*types.PolicyVersion, error)
	Reject(ctx context.Context, versionID uuid.UUID, reason string) (*types.PolicyVersion, error)
	GetVersion(ctx context.Context, versionID uuid.UUID) (*types.PolicyVersion, error)
	ListHistory(ctx context.Context, code string, scope types.PolicyScope, branchID *uuid.UUID) ([]*types.PolicyVersion, error)
	ListApprovals(ctx context.Context) ([]*types.PolicyVersion, error)
}

type lifecycleService struct {
	db          *gorm.DB
	log         *logger.Logger
	defRepo     repos.PolicyDefinitionRepo
	versionRepo repos.PolicyVersionRepo
	branchRepo  repos.BranchRepo
	templates   *templates.Registry
	audit       AuditService
	bus         redisclient.EventBus
}

func NewLifecycleService(
	db *gorm.DB,
	log *logger.Logger,
	defRepo repos.PolicyDefinitionRepo,
	versionRepo repos.PolicyVersionRepo,
	branchRepo repos.BranchRepo,
	registry *templates.Registry,
	audit AuditService,
	bus redisclient.EventBus,
) LifecycleService {
	return &lifecycleService{
		db:          db,
		log:         log.With("service", "LifecycleService"),
		defRepo:     defRepo,
		versionRepo: versionRepo,
		branchRepo:  branchRepo,
		templates:   registry,
		audit:       audit,
		bus:         bus,
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (ls *lifecycleService) ensureDefinition(ctx context.Context, code string) (*types.PolicyDefinition, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, apierr.New(apierr.KindInvalidArgument, "policy code is required")
	}
	def, err := ls.defRepo.GetByCode(ctx, nil, code)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, apierr.New(apierr.KindNotFound, "unknown policy code %s", code)
	}
	return def, nil
}

func emptyPayload(raw datatypes.JSON) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "{}" || trimmed == "null"
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "uniq_policy_version_open_draft") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

func (ls *lifecycleService) CreateGlobalDraft(ctx context.Context, code string) (*types.PolicyVersion, error) {
	actor, err := requireSuperAdmin(ctx)
	if err != nil {
		return nil, err
	}
	def, err := ls.ensureDefinition(ctx, code)
	if err != nil {
		return nil, err
	}

	var created *types.PolicyVersion
	err = ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, fErr := ls.versionRepo.FindOpenDraft(ctx, tx, def.ID, types.ScopeGlobal, nil)
		if fErr != nil {
			return fErr
		}
		if existing != nil {
			return apierr.New(apierr.KindDraftAlreadyExists,
				"an open draft (version %d, id %s) already exists for %s", existing.Version, existing.ID, def.Code)
		}

		max, mErr := ls.versionRepo.MaxVersion(ctx, tx, def.ID, types.ScopeGlobal, nil)
		if mErr != nil {
			return mErr
		}

		payload := datatypes.JSON("{}")
		if prior, pErr := ls.versionRepo.LatestApproved(ctx, tx, def.ID, types.ScopeGlobal, nil); pErr != nil {
			return pErr
		} else if prior != nil && len(prior.Payload) > 0 {
			payload = prior.Payload
		}

		now := time.Now()
		created = &types.PolicyVersion{
			ID:                 uuid.New(),
			PolicyID:           def.ID,
			Scope:              types.ScopeGlobal,
			Version:            max + 1,
			Status:             types.StatusDraft,
			EffectiveAt:        now,
			Payload:            payload,
			ApplyToAllBranches: true,
			CreatedByUserID:    actor.UserID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if cErr := ls.versionRepo.Create(ctx, tx, created); cErr != nil {
			if isUniqueViolation(cErr) {
				return apierr.New(apierr.KindDraftAlreadyExists, "an open draft already exists for %s", def.Code)
			}
			return cErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ls.audit.Log(ctx, nil, AuditEntry{
		ActorUserID: actor.UserID,
		Action:      ActionPolicyDraftCreated,
		Entity:      EntityPolicyVersion,
		EntityID:    created.ID.String(),
		Meta:        map[string]interface{}{"policy_code": def.Code, "scope": types.ScopeGlobal, "version": created.Version},
	})
	ls.publish(ctx, redisclient.EventDraftCreated, def.Code, created)
	return created, nil
}

func (ls *lifecycleService) CreateBranchOverrideDraft(ctx context.Context, code string, branchID uuid.UUID) (*types.PolicyVersion, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if branchID == uuid.Nil {
		return nil, apierr.New(apierr.KindInvalidArgument, "branch id is required for a branch override draft")
	}
	if !actor.IsSuperAdmin() {
		if actor.BranchID == nil || *actor.BranchID != branchID {
			return nil, apierr.New(apierr.KindForbidden, "cannot create an override draft for another branch")
		}
	}
	branch, err := ls.branchRepo.GetByID(ctx, nil, branchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, apierr.New(apierr.KindInvalidArgument, "unknown branch %s", branchID)
	}
	def, err := ls.ensureDefinition(ctx, code)
	if err != nil {
		return nil, err
	}

	var created *types.PolicyVersion
	err = ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, fErr := ls.versionRepo.FindOpenDraft(ctx, tx, def.ID, types.ScopeBranchOverride, &branchID)
		if fErr != nil {
			return fErr
		}
		if existing != nil {
			return apierr.New(apierr.KindDraftAlreadyExists,
				"an open override draft (version %d, id %s) already exists for %s at branch %s",
				existing.Version, existing.ID, def.Code, branch.Code)
		}

		max, mErr := ls.versionRepo.MaxVersion(ctx, tx, def.ID, types.ScopeBranchOverride, &branchID)
		if mErr != nil {
			return mErr
		}

		// Seed payload: prior approved override if the lineage has one,
		// otherwise the branch's currently effective GLOBAL payload.
		payload := datatypes.JSON("{}")
		if prior, pErr := ls.versionRepo.LatestApproved(ctx, tx, def.ID, types.ScopeBranchOverride, &branchID); pErr != nil {
			return pErr
		} else if prior != nil && len(prior.Payload) > 0 {
			payload = prior.Payload
		} else {
			candidates, cErr := ls.versionRepo.ListApprovedAsOf(ctx, tx, def.ID, time.Now())
			if cErr != nil {
				return cErr
			}
			_, global := pickEffective(candidates, &branchID)
			if global != nil && len(global.Payload) > 0 {
				payload = global.Payload
			}
		}

		now := time.Now()
		created = &types.PolicyVersion{
			ID:              uuid.New(),
			PolicyID:        def.ID,
			Scope:           types.ScopeBranchOverride,
			BranchID:        &branchID,
			Version:         max + 1,
			Status:          types.StatusDraft,
			EffectiveAt:     now,
			Payload:         payload,
			CreatedByUserID: actor.UserID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if cErr := ls.versionRepo.Create(ctx, tx, created); cErr != nil {
			if isUniqueViolation(cErr) {
				return apierr.New(apierr.KindDraftAlreadyExists, "an open override draft already exists for %s", def.Code)
			}
			return cErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ls.audit.Log(ctx, nil, AuditEntry{
		BranchID:    &branchID,
		ActorUserID: actor.UserID,
		Action:      ActionPolicyOverrideDraftCreated,
		Entity:      EntityPolicyVersion,
		EntityID:    created.ID.String(),
		Meta:        map[string]interface{}{"policy_code": def.Code, "scope": types.ScopeBranchOverride, "version": created.Version},
	})
	ls.publish(ctx, redisclient.EventDraftCreated, def.Code, created)
	return created, nil
}

// canEditDraft gates draft mutation: global drafts belong to super admins,
// override drafts to their creator within the owning branch.
func canEditDraft(actor *requestdata.Actor, v *types.PolicyVersion) error {
	if v.Scope == types.ScopeGlobal {
		if !actor.IsSuperAdmin() {
			return apierr.New(apierr.KindForbidden, "only super admins can edit global policy drafts")
		}
		return nil
	}
	if actor.IsSuperAdmin() {
		return nil
	}
	if actor.BranchID == nil || v.BranchID == nil || *actor.BranchID != *v.BranchID {
		return apierr.New(apierr.KindForbidden, "cannot edit another branch's override draft")
	}
	if v.CreatedByUserID != actor.UserID {
		return apierr.New(apierr.KindForbidden, "only the draft creator can edit this draft")
	}
	return nil
}

func (ls *lifecycleService) UpdateDraft(ctx context.Context, versionID uuid.UUID, patch DraftPatch) (*types.PolicyVersion, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	v, err := ls.mustGetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if v.Status != types.StatusDraft {
		return nil, apierr.New(apierr.KindNotEditable, "version %d of %s is %s; only drafts are editable", v.Version, v.PolicyCode(), v.Status)
	}
	if err := canEditDraft(actor, v); err != nil {
		return nil, err
	}
	if patch.ExpectedUpdatedAt.IsZero() {
		return nil, apierr.New(apierr.KindInvalidArgument, "expected_updated_at concurrency token is required")
	}
	if v.Scope == types.ScopeBranchOverride && (patch.ApplyToAllBranches != nil || patch.BranchIDs != nil) {
		return nil, apierr.New(apierr.KindInvalidArgument, "rollout targeting applies only to global versions")
	}
	if patch.ApplyToAllBranches != nil && *patch.ApplyToAllBranches && len(patch.BranchIDs) > 0 {
		return nil, apierr.New(apierr.KindInvalidRollout, "cannot target all branches and an explicit branch set at once")
	}
	if len(patch.BranchIDs) > 0 {
		missing, mErr := ls.branchRepo.MissingIDs(ctx, nil, patch.BranchIDs)
		if mErr != nil {
			return nil, mErr
		}
		if len(missing) > 0 {
			return nil, apierr.New(apierr.KindInvalidArgument, "unknown branch ids: %v", missing)
		}
	}
	if patch.Payload != nil {
		if vErr := ls.templates.Validate(v.PolicyCode(), patch.Payload); vErr != nil {
			return nil, apierr.New(apierr.KindInvalidArgument, "payload rejected: %v", vErr)
		}
	}

	updates := map[string]interface{}{}
	if patch.Payload != nil {
		updates["payload"] = datatypes.JSON(patch.Payload)
	}
	if patch.Notes != nil {
		if *patch.Notes == "" {
			// Empty string clears the column.
			updates["notes"] = nil
		} else {
			updates["notes"] = *patch.Notes
		}
	}
	if patch.EffectiveAt != nil {
		updates["effective_at"] = *patch.EffectiveAt
	}
	if patch.ApplyToAllBranches != nil {
		updates["apply_to_all_branches"] = *patch.ApplyToAllBranches
	}

	err = ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, uErr := ls.versionRepo.UpdateDraft(ctx, tx, v.ID, patch.ExpectedUpdatedAt, updates)
		if uErr != nil {
			return uErr
		}
		if rows == 0 {
			current, rErr := ls.versionRepo.GetByID(ctx, tx, v.ID)
			if rErr != nil {
				return rErr
			}
			if current == nil {
				return apierr.New(apierr.KindNotFound, "policy version %s not found", v.ID)
			}
			if current.Status != types.StatusDraft {
				return apierr.New(apierr.KindNotEditable, "version %d of %s is %s; only drafts are editable", current.Version, v.PolicyCode(), current.Status)
			}
			return apierr.New(apierr.KindConcurrentModification,
				"draft %s changed since it was read (token %s, stored %s)", v.ID,
				patch.ExpectedUpdatedAt.Format(time.RFC3339Nano), current.UpdatedAt.Format(time.RFC3339Nano))
		}
		if patch.ApplyToAllBranches != nil && *patch.ApplyToAllBranches {
			return ls.versionRepo.ReplaceBranchLinks(ctx, tx, v.ID, nil)
		}
		if patch.BranchIDs != nil {
			return ls.versionRepo.ReplaceBranchLinks(ctx, tx, v.ID, patch.BranchIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := ls.versionRepo.GetByID(ctx, nil, v.ID)
	if err != nil {
		return nil, err
	}
	ls.audit.Log(ctx, nil, AuditEntry{
		BranchID:    v.BranchID,
		ActorUserID: actor.UserID,
		Action:      ActionPolicyDraftUpdated,
		Entity:      EntityPolicyVersion,
		EntityID:    v.ID.String(),
		Meta:        map[string]interface{}{"policy_code": v.PolicyCode(), "scope": v.Scope, "version": v.Version},
	})
	return updated, nil
}

// DeleteDraft withdraws an open draft. The lineage may open a new draft
// afterwards; the withdrawn version number stays burned.
func (ls *lifecycleService) DeleteDraft(ctx context.Context, versionID uuid.UUID) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}
	v, err := ls.mustGetVersion(ctx, versionID)
	if err != nil {
		return err
	}
	if v.Status != types.StatusDraft {
		return apierr.New(apierr.KindNotEditable, "version %d of %s is %s; only drafts can be withdrawn", v.Version, v.PolicyCode(), v.Status)
	}
	if err := canEditDraft(actor, v); err != nil {
		return err
	}
	rows, err := ls.versionRepo.DeleteDraft(ctx, nil, v.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return apierr.New(apierr.KindNotEditable, "draft %s was already submitted or withdrawn", v.ID)
	}
	ls.audit.Log(ctx, nil, AuditEntry{
		BranchID:    v.BranchID,
		ActorUserID: actor.UserID,
		Action:      ActionPolicyDraftDeleted,
		Entity:      EntityPolicyVersion,
		EntityID:    v.ID.String(),
		Meta:        map[string]interface{}{"policy_code": v.PolicyCode(), "scope": v.Scope, "version": v.Version},
	})
	return nil
}

func (ls *lifecycleService) Submit(ctx context.Context, versionID uuid.UUID) (*types.PolicyVersion, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	v, err := ls.mustGetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if v.Status != types.StatusDraft {
		return nil, apierr.New(apierr.KindInvalidTransition, "submit requires a DRAFT; version %d of %s is %s", v.Version, v.PolicyCode(), v.Status)
	}
	if v.CreatedByUserID != actor.UserID {
		return nil, apierr.New(apierr.KindForbidden, "only the draft creator can submit")
	}
	if v.Scope == types.ScopeGlobal && !actor.IsSuperAdmin() {
		return nil, apierr.New(apierr.KindForbidden, "only super admins can submit global policy changes")
	}
	if v.Scope == types.ScopeBranchOverride && !actor.IsSuperAdmin() {
		if actor.BranchID == nil || v.BranchID == nil || *actor.BranchID != *v.BranchID {
			return nil, apierr.New(apierr.KindForbidden, "cannot submit another branch's override")
		}
	}
	if emptyPayload(v.Payload) {
		return nil, apierr.New(apierr.KindIncompletePolicy, "version %d of %s has no payload", v.Version, v.PolicyCode())
	}
	if vErr := ls.templates.Validate(v.PolicyCode(), v.Payload); vErr != nil {
		return nil, apierr.New(apierr.KindIncompletePolicy, "payload does not satisfy the %s template: %v", v.PolicyCode(), vErr)
	}
	if tErr := rollout.ValidateTargeting(v); tErr != nil {
		return nil, apierr.New(apierr.KindInvalidRollout, "%v", tErr)
	}

	// The token pins the exact copy that passed validation: an edit landing
	// between the read above and this write makes the CAS miss.
	now := time.Now()
	rows, err := ls.versionRepo.Transition(ctx, nil, v.ID, types.StatusDraft, types.StatusSubmitted, &v.UpdatedAt, map[string]interface{}{
		"submitted_at":         now,
		"submitted_by_user_id": actor.UserID,
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ls.transitionConflict(ctx, v.ID, "submit", types.StatusDraft)
	}

	ls.audit.Log(ctx, nil, AuditEntry{
		BranchID:    v.BranchID,
		ActorUserID: actor.UserID,
		Action:      ActionPolicySubmitted,
		Entity:      EntityPolicyVersion,
		EntityID:    v.ID.String(),
		Meta:        map[string]interface{}{"policy_code": v.PolicyCode(), "scope": v.Scope, "version": v.Version},
	})
	ls.publish(ctx, redisclient.EventSubmitted, v.PolicyCode(), v)
	return ls.versionRepo.GetByID(ctx, nil, v.ID)
}

func (ls *lifecycleService) Approve(ctx context.Context, versionID uuid.UUID, note *string) (*types.PolicyVersion, error) {
	actor, err := requireSuperAdmin(ctx)
	if err != nil {
		return nil, err
	}
	v, err := ls.mustGetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if v.Status != types.StatusSubmitted {
		return nil, apierr.New(apierr.KindInvalidTransition, "approve requires SUBMITTED; version %d of %s is %s", v.Version, v.PolicyCode(), v.Status)
	}
	if v.CreatedByUserID == actor.UserID {
		return nil, apierr.New(apierr.KindForbidden, "maker-checker separation: approver must differ from the draft creator")
	}
	if tErr := rollout.ValidateTargeting(v); tErr != nil {
		return nil, apierr.New(apierr.KindInvalidRollout, "%v", tErr)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"approved_at":         now,
		"approved_by_user_id": actor.UserID,
	}
	if note != nil {
		updates["approval_note"] = *note
	}
	rows, err := ls.versionRepo.Transition(ctx, nil, v.ID, types.StatusSubmitted, types.StatusApproved, nil, updates)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ls.transitionConflict(ctx, v.ID, "approve", types.StatusSubmitted)
	}

	ls.audit.Log(ctx, nil, AuditEntry{
		BranchID:    v.BranchID,
		ActorUserID: actor.UserID,
		Action:      ActionPolicyApproved,
		Entity:      EntityPolicyVersion,
		EntityID:    v.ID.String(),
		Meta:        map[string]interface{}{"policy_code": v.PolicyCode(), "scope": v.Scope, "version": v.Version},
	})
	ls.publish(ctx, redisclient.EventApproved, v.PolicyCode(), v)
	return ls.versionRepo.GetByID(ctx, nil, v.ID)
}

func (ls *lifecycleService) Reject(ctx context.Context, versionID uuid.UUID, reason string) (*types.PolicyVersion, error) {
	actor, err := requireSuperAdmin(ctx)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apierr.New(apierr.KindInvalidArgument, "a rejection reason is required")
	}
	v, err := ls.mustGetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if v.Status != types.StatusSubmitted {
		return nil, apierr.New(apierr.KindInvalidTransition, "reject requires SUBMITTED; version %d of %s is %s", v.Version, v.PolicyCode(), v.Status)
	}
	if v.CreatedByUserID == actor.UserID {
		return nil, apierr.New(apierr.KindForbidden, "maker-checker separation: checker must differ from the draft creator")
	}

	now := time.Now()
	rows, err := ls.versionRepo.Transition(ctx, nil, v.ID, types.StatusSubmitted, types.StatusRejected, nil, map[string]interface{}{
		"rejected_at":         now,
		"rejected_by_user_id": actor.UserID,
		"rejection_reason":    reason,
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ls.transitionConflict(ctx, v.ID, "reject", types.StatusSubmitted)
	}

	ls.audit.Log(ctx, nil, AuditEntry{
		BranchID:    v.BranchID,
		ActorUserID: actor.UserID,
		Action:      ActionPolicyRejected,
		Entity:      EntityPolicyVersion,
		EntityID:    v.ID.String(),
		Meta:        map[string]interface{}{"policy_code": v.PolicyCode(), "scope": v.Scope, "version": v.Version, "reason": reason},
	})
	ls.publish(ctx, redisclient.EventRejected, v.PolicyCode(), v)
	return ls.versionRepo.GetByID(ctx, nil, v.ID)
}

func (ls *lifecycleService) GetVersion(ctx context.Context, versionID uuid.UUID) (*types.PolicyVersion, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}
	return ls.mustGetVersion(ctx, versionID)
}

func (ls *lifecycleService) ListHistory(ctx context.Context, code string, scope types.PolicyScope, branchID *uuid.UUID) ([]*types.PolicyVersion, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	def, err := ls.ensureDefinition(ctx, code)
	if err != nil {
		return nil, err
	}
	switch scope {
	case types.ScopeGlobal:
		branchID = nil
	case types.ScopeBranchOverride:
		if branchID == nil {
			return nil, apierr.New(apierr.KindInvalidArgument, "branch id is required for override history")
		}
		if !actor.IsSuperAdmin() && (actor.BranchID == nil || *actor.BranchID != *branchID) {
			return nil, apierr.New(apierr.KindForbidden, "cannot view another branch's override history")
		}
	default:
		return nil, apierr.New(apierr.KindInvalidArgument, "unknown scope %q", scope)
	}
	return ls.versionRepo.ListHistory(ctx, nil, def.ID, scope, branchID, 50)
}

func (ls *lifecycleService) ListApprovals(ctx context.Context) ([]*types.PolicyVersion, error) {
	if _, err := requireSuperAdmin(ctx); err != nil {
		return nil, err
	}
	return ls.versionRepo.ListByStatus(ctx, nil, types.StatusSubmitted, 100)
}

func (ls *lifecycleService) mustGetVersion(ctx context.Context, versionID uuid.UUID) (*types.PolicyVersion, error) {
	v, err := ls.versionRepo.GetByID(ctx, nil, versionID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, apierr.New(apierr.KindNotFound, "policy version %s not found", versionID)
	}
	return v, nil
}

// transitionConflict reports why a compare-and-swap transition wrote nothing.
func (ls *lifecycleService) transitionConflict(ctx context.Context, versionID uuid.UUID, op string, from types.PolicyStatus) error {
	current, err := ls.versionRepo.GetByID(ctx, nil, versionID)
	if err != nil {
		return err
	}
	if current == nil {
		return apierr.New(apierr.KindNotFound, "policy version %s not found", versionID)
	}
	if current.Status == from {
		// Status unchanged, so the token missed: the content was edited
		// after it was read and validated.
		return apierr.New(apierr.KindConcurrentModification, "%s raced a concurrent edit of version %s; re-read and retry", op, versionID)
	}
	return apierr.New(apierr.KindInvalidTransition, "%s lost a concurrent transition: version %s is now %s", op, versionID, current.Status)
}

func (ls *lifecycleService) publish(ctx context.Context, action, code string, v *types.PolicyVersion) {
	if ls.bus == nil {
		return
	}
	err := ls.bus.Publish(ctx, redisclient.Event{
		Action:     action,
		PolicyCode: code,
		VersionID:  v.ID,
		Version:    v.Version,
		Scope:      v.Scope,
		BranchID:   v.BranchID,
	})
	if err != nil {
		ls.log.Warn("Governance event publish failed", "action", action, "version_id", v.ID, "error", err)
	}
}
