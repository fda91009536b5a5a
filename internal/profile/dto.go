package profile

import (
	"time"

	"github.com/google/uuid"

	"github.com/docuvault/access-management/internal"
)

type CreateProfileDTO struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

func (dto CreateProfileDTO) Validate() error {
	if err := ValidateProfileName(dto.Name); err != nil {
		return err
	}
	if err := ValidateDescription(dto.Description); err != nil {
		return err
	}
	if dto.OrganizationID == uuid.Nil {
		return internal.NewValidationFieldError("organization_id", "organization_id is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateProfileDTO struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	IsActive    *bool          `json:"is_active,omitempty"`
}

type ProfileResponse struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	OrganizationID  uuid.UUID      `json:"organization_id"`
	CreatedBy       uuid.UUID      `json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       *time.Time     `json:"updated_at,omitempty"`
	IsActive        bool           `json:"is_active"`
	IsSystemProfile bool           `json:"is_system_profile"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

func (p *Profile) ToResponse() ProfileResponse {
	return ProfileResponse{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		OrganizationID:  p.OrganizationID,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		IsActive:        p.IsActive,
		IsSystemProfile: p.IsSystemProfile,
		Metadata:        p.Metadata,
	}
}
