package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/repos"
	"github.com/zypocare/governance-backend/internal/types"
)

const (
	EntityPolicyVersion    = "POLICY_VERSION"
	EntityPolicyDefinition = "POLICY_DEFINITION"

	ActionPolicyDefCreated           = "GOV_POLICY_DEF_CREATED"
	ActionPolicyDefUpdated           = "GOV_POLICY_DEF_UPDATED"
	ActionPolicyDraftCreated         = "GOV_POLICY_DRAFT_CREATED"
	ActionPolicyOverrideDraftCreated = "GOV_POLICY_OVERRIDE_DRAFT_CREATED"
	ActionPolicyDraftUpdated         = "GOV_POLICY_DRAFT_UPDATED"
	ActionPolicyDraftDeleted         = "GOV_POLICY_DRAFT_DELETED"
	ActionPolicySubmitted            = "GOV_POLICY_SUBMITTED"
	ActionPolicyApproved             = "GOV_POLICY_APPROVED"
	ActionPolicyRejected             = "GOV_POLICY_REJECTED"
)

type AuditEntry struct {
	BranchID    *uuid.UUID
	ActorUserID uuid.UUID
	Action      string
	Entity      string
	EntityID    string
	Meta        map[string]interface{}
}

type AuditService interface {
	// Log appends an audit event. Failures are logged and swallowed: the
	// trail is best effort and never fails the operation that produced it.
	Log(ctx context.Context, tx *gorm.DB, entry AuditEntry)
	ListPolicyEvents(ctx context.Context) ([]*types.AuditEvent, error)
	CountPolicyEventsSince(ctx context.Context, since time.Time) (int64, error)
}

type auditService struct {
	db        *gorm.DB
	log       *logger.Logger
	auditRepo repos.AuditEventRepo
}

func NewAuditService(db *gorm.DB, log *logger.Logger, auditRepo repos.AuditEventRepo) AuditService {
	return &auditService{
		db:        db,
		log:       log.With("service", "AuditService"),
		auditRepo: auditRepo,
	}
}

func (as *auditService) Log(ctx context.Context, tx *gorm.DB, entry AuditEntry) {
	var meta []byte
	if len(entry.Meta) > 0 {
		raw, err := json.Marshal(entry.Meta)
		if err != nil {
			as.log.Warn("Audit meta marshal failed", "action", entry.Action, "error", err)
		} else {
			meta = raw
		}
	}
	event := &types.AuditEvent{
		ID:          uuid.New(),
		BranchID:    entry.BranchID,
		ActorUserID: entry.ActorUserID,
		Action:      entry.Action,
		Entity:      entry.Entity,
		EntityID:    entry.EntityID,
		Meta:        meta,
		CreatedAt:   time.Now(),
	}
	if err := as.auditRepo.Create(ctx, tx, event); err != nil {
		as.log.Warn("Audit write failed", "action", entry.Action, "entity_id", entry.EntityID, "error", err)
	}
}

func (as *auditService) ListPolicyEvents(ctx context.Context) ([]*types.AuditEvent, error) {
	if _, err := requireSuperAdmin(ctx); err != nil {
		return nil, err
	}
	return as.auditRepo.ListByEntity(ctx, nil, EntityPolicyVersion, 200)
}

func (as *auditService) CountPolicyEventsSince(ctx context.Context, since time.Time) (int64, error) {
	return as.auditRepo.CountByEntitySince(ctx, nil, EntityPolicyVersion, since)
}
