package grant

import (
	"github.com/google/uuid"

	"github.com/docuvault/access-management/internal"
)

type CreateGrantDTO struct {
	ProfileID       uuid.UUID      `json:"profile_id"`
	FolderPath      string         `json:"folder_path"`
	PermissionLevel string         `json:"permission_level"`
	OrganizationID  uuid.UUID      `json:"organization_id"`
	Notes           *string        `json:"notes,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

func (dto CreateGrantDTO) Validate() error {
	if dto.ProfileID == uuid.Nil {
		return internal.NewValidationFieldError("profile_id", "profile_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.OrganizationID == uuid.Nil {
		return internal.NewValidationFieldError("organization_id", "organization_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.FolderPath == "" {
		return internal.NewValidationFieldError("folder_path", "folder_path is required", internal.ErrCodeValidationFailed)
	}
	if err := ValidateFolderPath(dto.FolderPath); err != nil {
		return err
	}
	return nil
}

type UpdateGrantDTO struct {
	PermissionLevel *string        `json:"permission_level,omitempty"`
	FolderPath      *string        `json:"folder_path,omitempty"`
	Notes           *string        `json:"notes,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	IsActive        *bool          `json:"is_active,omitempty"`
}

type GrantResponse struct {
	ID              uuid.UUID      `json:"id"`
	ProfileID       uuid.UUID      `json:"profile_id"`
	FolderPath      string         `json:"folder_path"`
	PermissionLevel string         `json:"permission_level"`
	LevelDisplay    string         `json:"permission_level_display"`
	OrganizationID  uuid.UUID      `json:"organization_id"`
	IsActive        bool           `json:"is_active"`
	AllowedActions  []string       `json:"allowed_actions"`
	Depth           int            `json:"depth"`
	Notes           *string        `json:"notes,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

func (g *FolderGrant) ToResponse() GrantResponse {
	return GrantResponse{
		ID:              g.ID,
		ProfileID:       g.ProfileID,
		FolderPath:      g.FolderPath,
		PermissionLevel: string(g.PermissionLevel),
		LevelDisplay:    g.PermissionLevel.DisplayName(),
		OrganizationID:  g.OrganizationID,
		IsActive:        g.IsActive,
		AllowedActions:  g.AllowedActions(),
		Depth:           g.Depth(),
		Notes:           g.Notes,
		Metadata:        g.Metadata,
	}
}
