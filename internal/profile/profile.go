package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docuvault/access-management/internal"
	profileDatamodel "github.com/docuvault/access-management/internal/core/datamodel/profile"
)

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
)

// Characters that would collide with folder path syntax if a profile name
// ever ends up embedded in one.
const invalidNameChars = `/\<>:"|?*`

// Profile bundles folder grants so they can be assigned to users as a unit.
// Instances are value objects; mutating helpers return modified copies.
type Profile struct {
	ID              uuid.UUID
	Name            string
	Description     string
	OrganizationID  uuid.UUID
	CreatedBy       uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       *time.Time
	IsActive        bool
	IsSystemProfile bool
	Metadata        map[string]any
}

func ValidateProfileName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return internal.NewValidationFieldError("name", "profile name cannot be empty", internal.ErrCodeInvalidProfileName)
	}
	if trimmed != name {
		return internal.NewValidationFieldError("name", "profile name cannot have leading or trailing whitespace", internal.ErrCodeInvalidProfileName)
	}
	if len(name) > MaxNameLength {
		return internal.NewValidationFieldError("name",
			fmt.Sprintf("profile name cannot exceed %d characters", MaxNameLength), internal.ErrCodeInvalidProfileName)
	}
	if strings.ContainsAny(name, invalidNameChars) {
		return internal.NewValidationFieldError("name",
			fmt.Sprintf("profile name cannot contain any of %s", invalidNameChars), internal.ErrCodeInvalidProfileName)
	}
	return nil
}

func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return internal.NewValidationFieldError("description",
			fmt.Sprintf("description cannot exceed %d characters", MaxDescriptionLength), internal.ErrCodeValidationFailed)
	}
	return nil
}

func NewProfile(name, description string, organizationID, createdBy uuid.UUID, metadata map[string]any) (*Profile, error) {
	if err := ValidateProfileName(name); err != nil {
		return nil, err
	}
	if err := ValidateDescription(description); err != nil {
		return nil, err
	}
	if organizationID == uuid.Nil {
		return nil, internal.NewValidationFieldError("organization_id", "organization_id is required", internal.ErrCodeValidationFailed)
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Profile{
		ID:              uuid.New(),
		Name:            name,
		Description:     description,
		OrganizationID:  organizationID,
		CreatedBy:       createdBy,
		CreatedAt:       time.Now().UTC(),
		IsActive:        true,
		IsSystemProfile: false,
		Metadata:        metadata,
	}, nil
}

// NewSystemProfile builds the organization-managed profile created during
// provisioning. System profiles cannot be modified or deleted afterwards.
func NewSystemProfile(name, description string, organizationID, createdBy uuid.UUID) (*Profile, error) {
	p, err := NewProfile(name, description, organizationID, createdBy, nil)
	if err != nil {
		return nil, err
	}
	p.IsSystemProfile = true
	return p, nil
}

func (p *Profile) clone() *Profile {
	copied := *p
	copied.Metadata = make(map[string]any, len(p.Metadata))
	for k, v := range p.Metadata {
		copied.Metadata[k] = v
	}
	return &copied
}

func (p *Profile) touched() *Profile {
	copied := p.clone()
	now := time.Now().UTC()
	copied.UpdatedAt = &now
	return copied
}

func (p *Profile) WithName(name string) (*Profile, error) {
	if err := ValidateProfileName(name); err != nil {
		return nil, err
	}
	copied := p.touched()
	copied.Name = name
	return copied, nil
}

func (p *Profile) WithDescription(description string) (*Profile, error) {
	if err := ValidateDescription(description); err != nil {
		return nil, err
	}
	copied := p.touched()
	copied.Description = description
	return copied, nil
}

func (p *Profile) MergeMetadata(metadata map[string]any) *Profile {
	copied := p.touched()
	for k, v := range metadata {
		copied.Metadata[k] = v
	}
	return copied
}

func (p *Profile) Deactivate() *Profile {
	copied := p.touched()
	copied.IsActive = false
	return copied
}

func (p *Profile) Activate() *Profile {
	copied := p.touched()
	copied.IsActive = true
	return copied
}

// CanBeModified reports whether update operations may touch this profile,
// with a human-readable reason when they may not.
func (p *Profile) CanBeModified() (bool, string) {
	if p.IsSystemProfile {
		return false, "system profiles cannot be modified"
	}
	return true, ""
}

// CanBeDeleted reports whether the profile itself permits deletion. The
// service layer additionally requires that no active assignments reference it.
func (p *Profile) CanBeDeleted() (bool, string) {
	if p.IsSystemProfile {
		return false, "system profiles cannot be deleted"
	}
	return true, ""
}

func (p *Profile) Validate() (bool, []string) {
	var problems []string
	if p.ID == uuid.Nil {
		problems = append(problems, "profile ID is missing")
	}
	if err := ValidateProfileName(p.Name); err != nil {
		problems = append(problems, err.Error())
	}
	if err := ValidateDescription(p.Description); err != nil {
		problems = append(problems, err.Error())
	}
	if p.OrganizationID == uuid.Nil {
		problems = append(problems, "organization ID is missing")
	}
	return len(problems) == 0, problems
}

func ToDataModel(p *Profile) *profileDatamodel.Profile {
	return &profileDatamodel.Profile{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		OrganizationID:  p.OrganizationID,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		IsActive:        p.IsActive,
		IsSystemProfile: p.IsSystemProfile,
		Metadata:        profileDatamodel.EncodeMetadata(p.Metadata),
	}
}

func FromDataModel(m *profileDatamodel.Profile) *Profile {
	return &Profile{
		ID:              m.ID,
		Name:            m.Name,
		Description:     m.Description,
		OrganizationID:  m.OrganizationID,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		IsActive:        m.IsActive,
		IsSystemProfile: m.IsSystemProfile,
		Metadata:        profileDatamodel.DecodeMetadata(m.Metadata),
	}
}
