package grant

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type FolderGrant struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProfileID       uuid.UUID  `gorm:"column:profile_id;type:uuid;not null;index"`
	FolderPath      string     `gorm:"column:folder_path;not null"`
	PermissionLevel string     `gorm:"column:permission_level;not null"`
	OrganizationID  uuid.UUID  `gorm:"column:organization_id;type:uuid;not null;index"`
	CreatedBy       uuid.UUID  `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       *time.Time `gorm:"column:updated_at"`
	IsActive        bool       `gorm:"column:is_active;default:true"`
	Notes           *string    `gorm:"column:notes"`
	Metadata        string     `gorm:"column:metadata"`
}

func (FolderGrant) TableName() string {
	return "profile_folder_grants"
}

// EncodeMetadata serializes a metadata map for storage; the column holds an
// opaque JSON blob the core never branches on.
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
