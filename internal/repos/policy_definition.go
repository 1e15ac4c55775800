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

type PolicyDefinitionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, def *types.PolicyDefinition) error
	Upsert(ctx context.Context, tx *gorm.DB, def *types.PolicyDefinition) error
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.PolicyDefinition, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PolicyDefinition, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.PolicyDefinition, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	UpdateDescription(ctx context.Context, tx *gorm.DB, id uuid.UUID, description string) error
	CodeExists(ctx context.Context, tx *gorm.DB, code string) (bool, error)
}

type policyDefinitionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPolicyDefinitionRepo(db *gorm.DB, baseLog *logger.Logger) PolicyDefinitionRepo {
	return &policyDefinitionRepo{db: db, log: baseLog.With("repo", "PolicyDefinitionRepo")}
}

func (r *policyDefinitionRepo) Create(ctx context.Context, tx *gorm.DB, def *types.PolicyDefinition) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(def).Error
}

func (r *policyDefinitionRepo) Upsert(ctx context.Context, tx *gorm.DB, def *types.PolicyDefinition) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "type", "description", "updated_at"}),
		}).
		Create(def).Error
}

func (r *policyDefinitionRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.PolicyDefinition, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if code == "" {
		return nil, nil
	}
	var def types.PolicyDefinition
	err := transaction.WithContext(ctx).
		Where("code = ?", code).
		Limit(1).
		Find(&def).Error
	if err != nil {
		return nil, err
	}
	if def.ID == uuid.Nil {
		return nil, nil
	}
	return &def, nil
}

func (r *policyDefinitionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PolicyDefinition, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var def types.PolicyDefinition
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&def).Error
	if err != nil {
		return nil, err
	}
	if def.ID == uuid.Nil {
		return nil, nil
	}
	return &def, nil
}

func (r *policyDefinitionRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.PolicyDefinition, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.PolicyDefinition
	if err := transaction.WithContext(ctx).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *policyDefinitionRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.PolicyDefinition{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *policyDefinitionRepo) UpdateDescription(ctx context.Context, tx *gorm.DB, id uuid.UUID, description string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.PolicyDefinition{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"description": description,
			"updated_at":  time.Now(),
		}).Error
}

func (r *policyDefinitionRepo) CodeExists(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.PolicyDefinition{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
