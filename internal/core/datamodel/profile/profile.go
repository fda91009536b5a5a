package profile

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name            string     `gorm:"column:name;not null"`
	Description     string     `gorm:"column:description;not null"`
	OrganizationID  uuid.UUID  `gorm:"column:organization_id;type:uuid;not null;index"`
	CreatedBy       uuid.UUID  `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       *time.Time `gorm:"column:updated_at"`
	IsActive        bool       `gorm:"column:is_active;default:true"`
	IsSystemProfile bool       `gorm:"column:is_system_profile;default:false"`
	Metadata        string     `gorm:"column:metadata"`
}

func (Profile) TableName() string {
	return "profiles"
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
