package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditEvent is the append-only governance trail. Writes are best effort and
// never fail the business operation that produced them.
type AuditEvent struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BranchID    *uuid.UUID     `gorm:"type:uuid;index" json:"branch_id,omitempty"`
	ActorUserID uuid.UUID      `gorm:"type:uuid;not null" json:"actor_user_id"`
	Action      string         `gorm:"not null" json:"action"`
	Entity      string         `gorm:"not null;index" json:"entity"`
	EntityID    string         `gorm:"index" json:"entity_id"`
	Meta        datatypes.JSON `gorm:"type:jsonb" json:"meta,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
}

func (AuditEvent) TableName() string { return "audit_event" }
