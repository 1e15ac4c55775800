package types

import (
	"time"

	"github.com/google/uuid"
)

// Branch mirrors the hospital branch directory. Governance treats branch ids
// as opaque; rows exist locally so rollout targeting can expand and validate.
type Branch struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"not null" json:"name"`
	City      string    `json:"city"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Branch) TableName() string { return "branch" }
