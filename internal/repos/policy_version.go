package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/types"
)

type PolicyVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, v *types.PolicyVersion) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PolicyVersion, error)
	FindOpenDraft(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, scope types.PolicyScope, branchID *uuid.UUID) (*types.PolicyVersion, error)
	MaxVersion(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, scope types.PolicyScope, branchID *uuid.UUID) (int, error)
	LatestApproved(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, scope types.PolicyScope, branchID *uuid.UUID) (*types.PolicyVersion, error)
	ListApprovedAsOf(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, asOf time.Time) ([]*types.PolicyVersion, error)
	ListHistory(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, scope types.PolicyScope, branchID *uuid.UUID, limit int) ([]*types.PolicyVersion, error)
	ListByStatus(ctx context.Context, tx *gorm.DB, status types.PolicyStatus, limit int) ([]*types.PolicyVersion, error)
	CountByStatus(ctx context.Context, tx *gorm.DB, status types.PolicyStatus) (int64, error)
	CountByPolicyAndStatus(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, status types.PolicyStatus) (int64, error)
	LastUpdatedAt(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) (*time.Time, error)
	UpdateDraft(ctx context.Context, tx *gorm.DB, id uuid.UUID, expectedUpdatedAt time.Time, updates map[string]interface{}) (int64, error)
	Transition(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to types.PolicyStatus, token *time.Time, updates map[string]interface{}) (int64, error)
	DeleteDraft(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	ReplaceBranchLinks(ctx context.Context, tx *gorm.DB, versionID uuid.UUID, branchIDs []uuid.UUID) error
}

type policyVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPolicyVersionRepo(db *gorm.DB, baseLog *logger.Logger) PolicyVersionRepo {
	return &policyVersionRepo{db: db, log: baseLog.With("repo", "PolicyVersionRepo")}
}

func (r *policyVersionRepo) Create(ctx context.Context, tx *gorm.DB, v *types.PolicyVersion) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(v).Error
}

func (r *policyVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PolicyVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var v types.PolicyVersion
	err := transaction.WithContext(ctx).
		Preload("Policy").
		Preload("Branch").
		Preload("Branches").
		Where("id = ?", id).
		Limit(1).
		Find(&v).Error
	if err != nil {
		return nil, err
	}
	if v.ID == uuid.Nil {
		return nil, nil
	}
	return &v, nil
}

func lineageScope(q *gorm.DB, policyID uuid.UUID, scope types.PolicyScope, branchID *uuid.UUID) *gorm.DB {
	q = q.Where("policy_id = ? AND scope = ?", policyID, scope)
	if branchID == nil {
		return q.Where("branch_id IS NULL")
	}
	return q.Where("branch_id = ?", *branchID)
}

func (r *policyVersionRepo) FindOpenDraft(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, scope types.PolicyScope, branchID *uuid.UUID) (*types.PolicyVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var v types.PolicyVersion
	q := lineageScope(transaction.WithContext(ctx).Model(&types.PolicyVersion{}), policyID, scope, branchID).
		Where("status = ?", types.StatusDraft).
		Order("version DESC").
		Limit(1)
	if err := q.Find(&v).Error; err != nil {
		return nil, err
	}
	if v.ID == uuid.Nil {
		return nil, nil
	}
	return &v, nil
}

// MaxVersion reads the lineage high-water mark, including withdrawn
// (soft-deleted) drafts so their numbers are never reissued. Inside a
// postgres transaction the matched rows are locked so concurrent draft
// creation serializes; on other dialects the open-draft unique index is
// the backstop.
func (r *policyVersionRepo) MaxVersion(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, scope types.PolicyScope, branchID *uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Unscoped().Model(&types.PolicyVersion{})
	if transaction.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var v types.PolicyVersion
	err := lineageScope(q, policyID, scope, branchID).
		Order("version DESC").
		Limit(1).
		Find(&v).Error
	if err != nil {
		return 0, err
	}
	return v.Version, nil
}

func (r *policyVersionRepo) LatestApproved(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, scope types.PolicyScope, branchID *uuid.UUID) (*types.PolicyVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var v types.PolicyVersion
	q := lineageScope(transaction.WithContext(ctx).Model(&types.PolicyVersion{}), policyID, scope, branchID).
		Where("status = ?", types.StatusApproved).
		Order("version DESC").
		Limit(1)
	if err := q.Find(&v).Error; err != nil {
		return nil, err
	}
	if v.ID == uuid.Nil {
		return nil, nil
	}
	return &v, nil
}

func (r *policyVersionRepo) ListApprovedAsOf(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, asOf time.Time) ([]*types.PolicyVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.PolicyVersion
	err := transaction.WithContext(ctx).
		Preload("Branches").
		Where("policy_id = ? AND status = ? AND effective_at <= ?", policyID, types.StatusApproved, asOf).
		Order("effective_at DESC, version DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *policyVersionRepo) ListHistory(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, scope types.PolicyScope, branchID *uuid.UUID, limit int) ([]*types.PolicyVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.PolicyVersion
	q := lineageScope(transaction.WithContext(ctx).Model(&types.PolicyVersion{}), policyID, scope, branchID).
		Preload("Branches").
		Order("version DESC").
		Limit(limit)
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *policyVersionRepo) ListByStatus(ctx context.Context, tx *gorm.DB, status types.PolicyStatus, limit int) ([]*types.PolicyVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 100
	}
	var out []*types.PolicyVersion
	err := transaction.WithContext(ctx).
		Preload("Policy").
		Preload("Branch").
		Preload("Branches").
		Where("status = ?", status).
		Order("submitted_at DESC, created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *policyVersionRepo) CountByStatus(ctx context.Context, tx *gorm.DB, status types.PolicyStatus) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.PolicyVersion{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *policyVersionRepo) CountByPolicyAndStatus(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, status types.PolicyStatus) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.PolicyVersion{}).
		Where("policy_id = ? AND status = ?", policyID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *policyVersionRepo) LastUpdatedAt(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) (*time.Time, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var v types.PolicyVersion
	err := transaction.WithContext(ctx).
		Where("policy_id = ?", policyID).
		Order("updated_at DESC").
		Limit(1).
		Find(&v).Error
	if err != nil {
		return nil, err
	}
	if v.ID == uuid.Nil {
		return nil, nil
	}
	return &v.UpdatedAt, nil
}

// UpdateDraft writes draft fields only when the row is still a DRAFT and the
// caller-supplied token matches the stored updated_at. Zero rows affected
// means either condition failed; the caller disambiguates with a re-read.
func (r *policyVersionRepo) UpdateDraft(ctx context.Context, tx *gorm.DB, id uuid.UUID, expectedUpdatedAt time.Time, updates map[string]interface{}) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	res := transaction.WithContext(ctx).
		Model(&types.PolicyVersion{}).
		Where("id = ? AND status = ? AND updated_at = ?", id, types.StatusDraft, expectedUpdatedAt).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Transition is the compare-and-swap on status: the expected prior status is
// part of the write, so submit can never race approve on the same version.
// A non-nil token pins updated_at as well, so content validated by the
// caller cannot be swapped out between its read and the transition.
func (r *policyVersionRepo) Transition(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to types.PolicyStatus, token *time.Time, updates map[string]interface{}) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	q := transaction.WithContext(ctx).
		Model(&types.PolicyVersion{}).
		Where("id = ? AND status = ?", id, from)
	if token != nil {
		q = q.Where("updated_at = ?", *token)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *policyVersionRepo) DeleteDraft(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("id = ? AND status = ?", id, types.StatusDraft).
		Delete(&types.PolicyVersion{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		if err := transaction.WithContext(ctx).
			Where("policy_version_id = ?", id).
			Delete(&types.PolicyVersionBranch{}).Error; err != nil {
			return 0, err
		}
	}
	return res.RowsAffected, nil
}

func (r *policyVersionRepo) ReplaceBranchLinks(ctx context.Context, tx *gorm.DB, versionID uuid.UUID, branchIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).
		Where("policy_version_id = ?", versionID).
		Delete(&types.PolicyVersionBranch{}).Error; err != nil {
		return err
	}
	if len(branchIDs) == 0 {
		return nil
	}
	now := time.Now()
	seen := make(map[uuid.UUID]bool, len(branchIDs))
	links := make([]types.PolicyVersionBranch, 0, len(branchIDs))
	for _, id := range branchIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		links = append(links, types.PolicyVersionBranch{
			PolicyVersionID: versionID,
			BranchID:        id,
			CreatedAt:       now,
		})
	}
	if len(links) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&links).Error
}
