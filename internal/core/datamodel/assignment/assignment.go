package assignment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Assignment struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	ProfileID      uuid.UUID  `gorm:"column:profile_id;type:uuid;not null;index"`
	OrganizationID uuid.UUID  `gorm:"column:organization_id;type:uuid;not null;index"`
	AssignedBy     uuid.UUID  `gorm:"column:assigned_by;type:uuid;not null"`
	AssignedAt     time.Time  `gorm:"column:assigned_at"`
	ExpiresAt      *time.Time `gorm:"column:expires_at"`
	IsActive       bool       `gorm:"column:is_active;default:true"`
	RevokedAt      *time.Time `gorm:"column:revoked_at"`
	RevokedBy      *uuid.UUID `gorm:"column:revoked_by;type:uuid"`
	Notes          *string    `gorm:"column:notes"`
	Metadata       string     `gorm:"column:metadata"`
}

func (Assignment) TableName() string {
	return "profile_assignments"
}

func EncodeMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func DecodeMetadata(raw string) map[string]any {
	metadata := map[string]any{}
	if raw == "" {
		return metadata
	}
	_ = json.Unmarshal([]byte(raw), &metadata)
	return metadata
}
