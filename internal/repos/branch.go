package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/types"
)

type BranchRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, branches []*types.Branch) error
	List(ctx context.Context, tx *gorm.DB) ([]*types.Branch, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Branch, error)
	MissingIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]uuid.UUID, error)
}

type branchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBranchRepo(db *gorm.DB, baseLog *logger.Logger) BranchRepo {
	return &branchRepo{db: db, log: baseLog.With("repo", "BranchRepo")}
}

func (r *branchRepo) Upsert(ctx context.Context, tx *gorm.DB, branches []*types.Branch) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(branches) == 0 {
		return nil
	}
	// Code is the stable key of the upstream branch directory, so an existing
	// row keeps its id across re-syncs.
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "city", "updated_at"}),
		}).
		Create(&branches).Error
}

func (r *branchRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Branch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Branch
	if err := transaction.WithContext(ctx).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *branchRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Branch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var b types.Branch
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == uuid.Nil {
		return nil, nil
	}
	return &b, nil
}

func (r *branchRepo) MissingIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Branch{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]bool, len(found))
	for _, id := range found {
		known[id] = true
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
