package assignment

import (
	"time"

	"github.com/google/uuid"

	"github.com/docuvault/access-management/internal"
)

type CreateAssignmentDTO struct {
	UserID         uuid.UUID      `json:"user_id"`
	ProfileID      uuid.UUID      `json:"profile_id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

func (dto CreateAssignmentDTO) Validate() error {
	if dto.UserID == uuid.Nil {
		return internal.NewValidationFieldError("user_id", "user_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.ProfileID == uuid.Nil {
		return internal.NewValidationFieldError("profile_id", "profile_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.OrganizationID == uuid.Nil {
		return internal.NewValidationFieldError("organization_id", "organization_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.ExpiresAt != nil && !dto.ExpiresAt.After(time.Now().UTC()) {
		return internal.NewValidationFieldError("expires_at", "expiration must be in the future", internal.ErrCodeExpirationNotFuture)
	}
	return nil
}

type RevokeAssignmentDTO struct {
	Reason string `json:"reason"`
}

type ChangeProfileDTO struct {
	ProfileID uuid.UUID `json:"profile_id"`
}

type ExtendAssignmentDTO struct {
	ExpiresAt *time.Time `json:"expires_at"`
}

type AssignmentResponse struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"`
	ProfileID      uuid.UUID      `json:"profile_id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	AssignedBy     uuid.UUID      `json:"assigned_by"`
	AssignedAt     time.Time      `json:"assigned_at"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	IsActive       bool           `json:"is_active"`
	IsValid        bool           `json:"is_valid"`
	IsExpired      bool           `json:"is_expired"`
	ExpiringSoon   bool           `json:"expiring_soon"`
	DaysUntil      *int           `json:"days_until_expiry,omitempty"`
	RevokedAt      *time.Time     `json:"revoked_at,omitempty"`
	RevokedBy      *uuid.UUID     `json:"revoked_by,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

func (a *Assignment) ToResponse() AssignmentResponse {
	return AssignmentResponse{
		ID:             a.ID,
		UserID:         a.UserID,
		ProfileID:      a.ProfileID,
		OrganizationID: a.OrganizationID,
		AssignedBy:     a.AssignedBy,
		AssignedAt:     a.AssignedAt,
		ExpiresAt:      a.ExpiresAt,
		IsActive:       a.IsActive,
		IsValid:        a.IsValid(),
		IsExpired:      a.IsExpired(),
		ExpiringSoon:   a.IsExpiringSoon(ExpiryWarningDays),
		DaysUntil:      a.DaysUntilExpiry(),
		RevokedAt:      a.RevokedAt,
		RevokedBy:      a.RevokedBy,
		Notes:          a.Notes,
		Metadata:       a.Metadata,
	}
}
