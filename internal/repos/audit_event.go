package repos

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/types"
)

type AuditEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, event *types.AuditEvent) error
	ListByEntity(ctx context.Context, tx *gorm.DB, entity string, limit int) ([]*types.AuditEvent, error)
	CountByEntitySince(ctx context.Context, tx *gorm.DB, entity string, since time.Time) (int64, error)
}

type auditEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditEventRepo(db *gorm.DB, baseLog *logger.Logger) AuditEventRepo {
	return &auditEventRepo{db: db, log: baseLog.With("repo", "AuditEventRepo")}
}

func (r *auditEventRepo) Create(ctx context.Context, tx *gorm.DB, event *types.AuditEvent) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(event).Error
}

func (r *auditEventRepo) ListByEntity(ctx context.Context, tx *gorm.DB, entity string, limit int) ([]*types.AuditEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 200
	}
	var out []*types.AuditEvent
	if err := transaction.WithContext(ctx).
		Where("entity = ?", entity).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *auditEventRepo) CountByEntitySince(ctx context.Context, tx *gorm.DB, entity string, since time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.AuditEvent{}).
		Where("entity = ? AND created_at >= ?", entity, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
