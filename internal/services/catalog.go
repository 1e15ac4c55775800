package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zypocare/governance-backend/internal/platform/apierr"
	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/repos"
	"github.com/zypocare/governance-backend/internal/types"
)

var policyCodePattern = regexp.MustCompile(`^[A-Z0-9_]{3,64}$`)

// PolicyOverview is one catalog row on the admin console: the definition
// plus its current global lineage state.
type PolicyOverview struct {
	Definition     *types.PolicyDefinition `json:"definition"`
	LatestApproved *types.PolicyVersion    `json:"latest_approved,omitempty"`
	OpenDraft      *types.PolicyVersion    `json:"open_draft,omitempty"`
	PendingCount   int64                   `json:"pending_count"`
	LastActivityAt *time.Time              `json:"last_activity_at,omitempty"`
}

// PolicyDetail is the expanded view of one definition's global lineage.
type PolicyDetail struct {
	Definition     *types.PolicyDefinition `json:"definition"`
	LatestApproved *types.PolicyVersion    `json:"latest_approved,omitempty"`
	OpenDraft      *types.PolicyVersion    `json:"open_draft,omitempty"`
	History        []*types.PolicyVersion  `json:"history"`
}

// Summary feeds the governance dashboard header.
type Summary struct {
	DefinitionCount  int64 `json:"definition_count"`
	PendingApprovals int64 `json:"pending_approvals"`
	BranchCount      int64 `json:"branch_count"`
	EventsLast7Days  int64 `json:"events_last_7_days"`
}

type CatalogService interface {
	CreateDefinition(ctx context.Context, code, name, policyType, description string) (*types.PolicyDefinition, error)
	UpdateDescription(ctx context.Context, code, description string) (*types.PolicyDefinition, error)
	GetDefinition(ctx context.Context, code string) (*types.PolicyDefinition, error)
	ListDefinitions(ctx context.Context) ([]*types.PolicyDefinition, error)
	ListOverview(ctx context.Context) ([]*PolicyOverview, error)
	GetDetail(ctx context.Context, code string) (*PolicyDetail, error)
	ListBranches(ctx context.Context) ([]*types.Branch, error)
	GetSummary(ctx context.Context) (*Summary, error)
}

type catalogService struct {
	db          *gorm.DB
	log         *logger.Logger
	defRepo     repos.PolicyDefinitionRepo
	versionRepo repos.PolicyVersionRepo
	branchRepo  repos.BranchRepo
	audit       AuditService
}

func NewCatalogService(
	db *gorm.DB,
	log *logger.Logger,
	defRepo repos.PolicyDefinitionRepo,
	versionRepo repos.PolicyVersionRepo,
	branchRepo repos.BranchRepo,
	audit AuditService,
) CatalogService {
	return &catalogService{
		db:          db,
		log:         log.With("service", "CatalogService"),
		defRepo:     defRepo,
		versionRepo: versionRepo,
		branchRepo:  branchRepo,
		audit:       audit,
	}
}

func (cs *catalogService) CreateDefinition(ctx context.Context, code, name, policyType, description string) (*types.PolicyDefinition, error) {
	actor, err := requireSuperAdmin(ctx)
	if err != nil {
		return nil, err
	}
	code = normalizeCode(code)
	if !policyCodePattern.MatchString(code) {
		return nil, apierr.New(apierr.KindInvalidArgument, "policy code must match %s", policyCodePattern.String())
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierr.New(apierr.KindInvalidArgument, "policy name is required")
	}
	if policyType == "" {
		policyType = "OPERATIONAL"
	}
	exists, err := cs.defRepo.CodeExists(ctx, nil, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apierr.New(apierr.KindInvalidArgument, "policy code %s already exists", code)
	}

	now := time.Now()
	def := &types.PolicyDefinition{
		ID:          uuid.New(),
		Code:        code,
		Name:        name,
		Type:        policyType,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := cs.defRepo.Create(ctx, nil, def); err != nil {
		return nil, err
	}

	cs.audit.Log(ctx, nil, AuditEntry{
		ActorUserID: actor.UserID,
		Action:      ActionPolicyDefCreated,
		Entity:      EntityPolicyDefinition,
		EntityID:    def.ID.String(),
		Meta:        map[string]interface{}{"policy_code": def.Code, "name": def.Name},
	})
	return def, nil
}

func (cs *catalogService) UpdateDescription(ctx context.Context, code, description string) (*types.PolicyDefinition, error) {
	actor, err := requireSuperAdmin(ctx)
	if err != nil {
		return nil, err
	}
	def, err := cs.mustGetDefinition(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := cs.defRepo.UpdateDescription(ctx, nil, def.ID, description); err != nil {
		return nil, err
	}
	def.Description = description

	cs.audit.Log(ctx, nil, AuditEntry{
		ActorUserID: actor.UserID,
		Action:      ActionPolicyDefUpdated,
		Entity:      EntityPolicyDefinition,
		EntityID:    def.ID.String(),
		Meta:        map[string]interface{}{"policy_code": def.Code},
	})
	return def, nil
}

func (cs *catalogService) GetDefinition(ctx context.Context, code string) (*types.PolicyDefinition, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}
	return cs.mustGetDefinition(ctx, code)
}

func (cs *catalogService) ListDefinitions(ctx context.Context) ([]*types.PolicyDefinition, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}
	return cs.defRepo.List(ctx, nil)
}

func (cs *catalogService) ListOverview(ctx context.Context) ([]*PolicyOverview, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}
	defs, err := cs.defRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*PolicyOverview, 0, len(defs))
	for _, def := range defs {
		row := &PolicyOverview{Definition: def}
		if row.LatestApproved, err = cs.versionRepo.LatestApproved(ctx, nil, def.ID, types.ScopeGlobal, nil); err != nil {
			return nil, err
		}
		if row.OpenDraft, err = cs.versionRepo.FindOpenDraft(ctx, nil, def.ID, types.ScopeGlobal, nil); err != nil {
			return nil, err
		}
		if row.PendingCount, err = cs.versionRepo.CountByPolicyAndStatus(ctx, nil, def.ID, types.StatusSubmitted); err != nil {
			return nil, err
		}
		if row.LastActivityAt, err = cs.versionRepo.LastUpdatedAt(ctx, nil, def.ID); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (cs *catalogService) GetDetail(ctx context.Context, code string) (*PolicyDetail, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}
	def, err := cs.mustGetDefinition(ctx, code)
	if err != nil {
		return nil, err
	}
	detail := &PolicyDetail{Definition: def}
	if detail.LatestApproved, err = cs.versionRepo.LatestApproved(ctx, nil, def.ID, types.ScopeGlobal, nil); err != nil {
		return nil, err
	}
	if detail.OpenDraft, err = cs.versionRepo.FindOpenDraft(ctx, nil, def.ID, types.ScopeGlobal, nil); err != nil {
		return nil, err
	}
	if detail.History, err = cs.versionRepo.ListHistory(ctx, nil, def.ID, types.ScopeGlobal, nil, 50); err != nil {
		return nil, err
	}
	return detail, nil
}

func (cs *catalogService) ListBranches(ctx context.Context) ([]*types.Branch, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}
	return cs.branchRepo.List(ctx, nil)
}

func (cs *catalogService) GetSummary(ctx context.Context) (*Summary, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}
	s := &Summary{}
	var err error
	if s.DefinitionCount, err = cs.defRepo.Count(ctx, nil); err != nil {
		return nil, err
	}
	if s.PendingApprovals, err = cs.versionRepo.CountByStatus(ctx, nil, types.StatusSubmitted); err != nil {
		return nil, err
	}
	branches, err := cs.branchRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	s.BranchCount = int64(len(branches))
	if s.EventsLast7Days, err = cs.audit.CountPolicyEventsSince(ctx, time.Now().AddDate(0, 0, -7)); err != nil {
		return nil, err
	}
	return s, nil
}

func (cs *catalogService) mustGetDefinition(ctx context.Context, code string) (*types.PolicyDefinition, error) {
	code = normalizeCode(code)
	def, err := cs.defRepo.GetByCode(ctx, nil, code)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, apierr.New(apierr.KindNotFound, "unknown policy code %s", code)
	}
	return def, nil
}
