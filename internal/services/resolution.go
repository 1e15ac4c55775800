package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/zypocare/governance-backend/internal/platform/apierr"
	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/repos"
	"github.com/zypocare/governance-backend/internal/rollout"
	"github.com/zypocare/governance-backend/internal/types"
)

// Effective is the resolved answer to "which policy applies to this branch
// right now": the single winning approved version plus resolution metadata.
type Effective struct {
	PolicyCode  string            `json:"policy_code"`
	VersionID   uuid.UUID         `json:"version_id"`
	Version     int               `json:"version"`
	Scope       types.PolicyScope `json:"scope"`
	BranchID    *uuid.UUID        `json:"branch_id,omitempty"`
	EffectiveAt time.Time         `json:"effective_at"`
	Payload     datatypes.JSON    `json:"payload"`
	AsOf        time.Time         `json:"as_of"`
}

// ResolutionService answers effective-policy reads. A nil result with a nil
// error means the code is known but nothing is in force for that branch at
// that instant; only an unknown code is a NotFound error.
type ResolutionService interface {
	Resolve(ctx context.Context, code string, branchID uuid.UUID, asOf time.Time) (*Effective, error)
	ResolvePayload(ctx context.Context, code string, branchID uuid.UUID, asOf time.Time) (interface{}, error)
	Snapshot(ctx context.Context, branchID uuid.UUID, asOf time.Time) ([]*Effective, error)
}

type resolutionService struct {
	db          *gorm.DB
	log         *logger.Logger
	defRepo     repos.PolicyDefinitionRepo
	versionRepo repos.PolicyVersionRepo
}

func NewResolutionService(db *gorm.DB, log *logger.Logger, defRepo repos.PolicyDefinitionRepo, versionRepo repos.PolicyVersionRepo) ResolutionService {
	return &resolutionService{
		db:          db,
		log:         log.With("service", "ResolutionService"),
		defRepo:     defRepo,
		versionRepo: versionRepo,
	}
}

// pickEffective selects, from approved-and-effective candidates of one
// policy, the best applicable override and the best applicable global
// version for the given branch. Candidates are ranked by effective_at
// descending, then version descending; the caller decides precedence
// (override wins when both exist).
func pickEffective(candidates []*types.PolicyVersion, branchID *uuid.UUID) (override, global *types.PolicyVersion) {
	ranked := make([]*types.PolicyVersion, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if !ranked[i].EffectiveAt.Equal(ranked[j].EffectiveAt) {
			return ranked[i].EffectiveAt.After(ranked[j].EffectiveAt)
		}
		return ranked[i].Version > ranked[j].Version
	})
	for _, v := range ranked {
		switch v.Scope {
		case types.ScopeBranchOverride:
			if override == nil && branchID != nil && v.BranchID != nil && *v.BranchID == *branchID {
				override = v
			}
		case types.ScopeGlobal:
			if global == nil {
				if branchID == nil {
					if v.ApplyToAllBranches {
						global = v
					}
				} else if rollout.AppliesTo(v, *branchID) {
					global = v
				}
			}
		}
		if override != nil && global != nil {
			break
		}
	}
	return override, global
}

func (rs *resolutionService) authorizeRead(ctx context.Context, branchID uuid.UUID) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}
	if actor.IsSuperAdmin() {
		return nil
	}
	if actor.BranchID == nil || *actor.BranchID != branchID {
		return apierr.New(apierr.KindForbidden, "cannot read effective policies of another branch")
	}
	return nil
}

func (rs *resolutionService) Resolve(ctx context.Context, code string, branchID uuid.UUID, asOf time.Time) (*Effective, error) {
	if err := rs.authorizeRead(ctx, branchID); err != nil {
		return nil, err
	}
	code = normalizeCode(code)
	def, err := rs.defRepo.GetByCode(ctx, nil, code)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, apierr.New(apierr.KindNotFound, "unknown policy code %s", code)
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}
	winner, _, err := rs.resolveVersion(ctx, def.ID, branchID, asOf)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		// Known code, nothing in force. Not an error.
		return nil, nil
	}
	return effectiveFrom(code, winner, asOf), nil
}

// ResolvePayload returns the branch's working configuration for a policy:
// the winning override deep-merged over the applicable global payload, or
// the single winner's payload when only one scope applies.
func (rs *resolutionService) ResolvePayload(ctx context.Context, code string, branchID uuid.UUID, asOf time.Time) (interface{}, error) {
	if err := rs.authorizeRead(ctx, branchID); err != nil {
		return nil, err
	}
	code = normalizeCode(code)
	def, err := rs.defRepo.GetByCode(ctx, nil, code)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, apierr.New(apierr.KindNotFound, "unknown policy code %s", code)
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}
	override, global, err := rs.candidatePair(ctx, def.ID, branchID, asOf)
	if err != nil {
		return nil, err
	}
	switch {
	case override != nil && global != nil:
		base, dErr := decodePayload(global.Payload)
		if dErr != nil {
			return nil, dErr
		}
		over, dErr := decodePayload(override.Payload)
		if dErr != nil {
			return nil, dErr
		}
		return mergePayload(base, over), nil
	case override != nil:
		return decodePayload(override.Payload)
	case global != nil:
		return decodePayload(global.Payload)
	default:
		// Known code, nothing in force. Not an error.
		return nil, nil
	}
}

// Snapshot resolves every cataloged policy for one branch in a single call,
// fanning out per definition with a bounded worker count.
func (rs *resolutionService) Snapshot(ctx context.Context, branchID uuid.UUID, asOf time.Time) ([]*Effective, error) {
	if err := rs.authorizeRead(ctx, branchID); err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}
	defs, err := rs.defRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	results := make([]*Effective, len(defs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, def := range defs {
		i, def := i, def
		g.Go(func() error {
			winner, _, rErr := rs.resolveVersion(gctx, def.ID, branchID, asOf)
			if rErr != nil {
				return rErr
			}
			if winner != nil {
				results[i] = effectiveFrom(def.Code, winner, asOf)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*Effective, 0, len(results))
	for _, e := range results {
		if e != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (rs *resolutionService) candidatePair(ctx context.Context, policyID, branchID uuid.UUID, asOf time.Time) (override, global *types.PolicyVersion, err error) {
	candidates, err := rs.versionRepo.ListApprovedAsOf(ctx, nil, policyID, asOf)
	if err != nil {
		return nil, nil, err
	}
	override, global = pickEffective(candidates, &branchID)
	return override, global, nil
}

func (rs *resolutionService) resolveVersion(ctx context.Context, policyID, branchID uuid.UUID, asOf time.Time) (winner, global *types.PolicyVersion, err error) {
	override, global, err := rs.candidatePair(ctx, policyID, branchID, asOf)
	if err != nil {
		return nil, nil, err
	}
	if override != nil {
		return override, global, nil
	}
	return global, global, nil
}

func effectiveFrom(code string, v *types.PolicyVersion, asOf time.Time) *Effective {
	return &Effective{
		PolicyCode:  code,
		VersionID:   v.ID,
		Version:     v.Version,
		Scope:       v.Scope,
		BranchID:    v.BranchID,
		EffectiveAt: v.EffectiveAt,
		Payload:     v.Payload,
		AsOf:        asOf,
	}
}
