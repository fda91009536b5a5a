package assignment

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docuvault/access-management/internal"
	assignmentDatamodel "github.com/docuvault/access-management/internal/core/datamodel/assignment"
)

// DeletionPolicyDays is how long an active assignment must have existed
// before it may be hard-deleted.
const DeletionPolicyDays = 365

// ExpiryWarningDays is the window IsExpiringSoon uses by default.
const ExpiryWarningDays = 7

// Assignment binds a user to a profile, optionally until an expiry instant.
// Instances are value objects; mutating helpers return modified copies.
type Assignment struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	ProfileID      uuid.UUID
	OrganizationID uuid.UUID
	AssignedBy     uuid.UUID
	AssignedAt     time.Time
	ExpiresAt      *time.Time
	IsActive       bool
	RevokedAt      *time.Time
	RevokedBy      *uuid.UUID
	Notes          *string
	Metadata       map[string]any
}

func NewAssignment(userID, profileID, organizationID, assignedBy uuid.UUID, expiresAt *time.Time, notes *string, metadata map[string]any) (*Assignment, error) {
	if userID == uuid.Nil {
		return nil, internal.NewValidationFieldError("user_id", "user_id is required", internal.ErrCodeValidationFailed)
	}
	if profileID == uuid.Nil {
		return nil, internal.NewValidationFieldError("profile_id", "profile_id is required", internal.ErrCodeValidationFailed)
	}
	if organizationID == uuid.Nil {
		return nil, internal.NewValidationFieldError("organization_id", "organization_id is required", internal.ErrCodeValidationFailed)
	}
	now := time.Now().UTC()
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, internal.NewValidationFieldError("expires_at", "expiration must be in the future", internal.ErrCodeExpirationNotFuture)
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Assignment{
		ID:             uuid.New(),
		UserID:         userID,
		ProfileID:      profileID,
		OrganizationID: organizationID,
		AssignedBy:     assignedBy,
		AssignedAt:     now,
		ExpiresAt:      expiresAt,
		IsActive:       true,
		Notes:          notes,
		Metadata:       metadata,
	}, nil
}

func (a *Assignment) clone() *Assignment {
	copied := *a
	copied.Metadata = make(map[string]any, len(a.Metadata))
	for k, v := range a.Metadata {
		copied.Metadata[k] = v
	}
	return &copied
}

// IsExpired reports whether the expiry instant has passed. Assignments with
// no expiry never expire.
func (a *Assignment) IsExpired() bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(time.Now().UTC())
}

// IsValid reports whether the assignment currently conveys access.
func (a *Assignment) IsValid() bool {
	return a.IsActive && !a.IsExpired()
}

func (a *Assignment) IsRevoked() bool {
	return a.RevokedAt != nil
}

// IsExpiringSoon reports whether the assignment is still valid but expires
// within the warning window.
func (a *Assignment) IsExpiringSoon(days int) bool {
	if !a.IsValid() || a.ExpiresAt == nil {
		return false
	}
	return a.ExpiresAt.Before(time.Now().UTC().AddDate(0, 0, days))
}

// DaysUntilExpiry returns the whole days left before expiry, nil when the
// assignment never expires. Expired assignments report zero.
func (a *Assignment) DaysUntilExpiry() *int {
	if a.ExpiresAt == nil {
		return nil
	}
	days := int(time.Until(*a.ExpiresAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return &days
}

// AssignmentDurationDays returns how many whole days the assignment has
// existed since it was granted.
func (a *Assignment) AssignmentDurationDays() int {
	return int(time.Since(a.AssignedAt).Hours() / 24)
}

// Deactivate suspends the assignment without recording any revocation state.
// Deactivating an already inactive assignment is a no-op.
func (a *Assignment) Deactivate() *Assignment {
	copied := a.clone()
	copied.IsActive = false
	return copied
}

// Activate turns the assignment back on in place: revocation state is
// cleared but AssignedAt keeps its original value, so validity windows and
// the deletion policy do not restart. Reactivate is the re-stamping variant.
func (a *Assignment) Activate() *Assignment {
	copied := a.clone()
	copied.IsActive = true
	copied.RevokedAt = nil
	copied.RevokedBy = nil
	return copied
}

// Revoke deactivates the assignment and records who pulled it and why. The
// reason is appended to the notes so the trail survives later edits.
func (a *Assignment) Revoke(revokedBy uuid.UUID, reason string) (*Assignment, error) {
	if a.IsRevoked() {
		return nil, internal.NewPolicyError("assignment is already revoked", internal.ErrCodeAssignmentAlreadyRevoked)
	}

	copied := a.clone()
	now := time.Now().UTC()
	copied.IsActive = false
	copied.RevokedAt = &now
	copied.RevokedBy = &revokedBy

	if reason != "" {
		note := fmt.Sprintf("Revoked: %s", reason)
		if copied.Notes != nil && *copied.Notes != "" {
			note = *copied.Notes + "\n" + note
		}
		copied.Notes = &note
	}
	return copied, nil
}

// Reactivate restores a revoked or deactivated assignment. The grant is
// re-stamped so validity windows and the deletion policy restart from now.
func (a *Assignment) Reactivate(reactivatedBy uuid.UUID) (*Assignment, error) {
	if a.IsExpired() {
		return nil, internal.NewPolicyError("cannot reactivate an expired assignment, extend the expiry first", internal.ErrCodeAssignmentNotModifiable)
	}

	copied := a.clone()
	copied.IsActive = true
	copied.RevokedAt = nil
	copied.RevokedBy = nil
	copied.AssignedBy = reactivatedBy
	copied.AssignedAt = time.Now().UTC()
	return copied, nil
}

// ChangeProfile moves the assignment to another profile. Treated as a fresh
// grant: the timestamp resets and any revocation state is cleared.
func (a *Assignment) ChangeProfile(newProfileID, changedBy uuid.UUID) (*Assignment, error) {
	if newProfileID == uuid.Nil {
		return nil, internal.NewValidationFieldError("profile_id", "profile_id is required", internal.ErrCodeValidationFailed)
	}
	if ok, reason := a.CanBeModified(); !ok {
		return nil, internal.NewPolicyError(reason, internal.ErrCodeAssignmentNotModifiable)
	}

	copied := a.clone()
	copied.ProfileID = newProfileID
	copied.AssignedBy = changedBy
	copied.AssignedAt = time.Now().UTC()
	copied.RevokedAt = nil
	copied.RevokedBy = nil
	return copied, nil
}

// Extend moves the expiry further out, or sets one on an open-ended
// assignment.
func (a *Assignment) Extend(newExpiry time.Time) (*Assignment, error) {
	if !newExpiry.After(time.Now().UTC()) {
		return nil, internal.NewValidationFieldError("expires_at", "expiration must be in the future", internal.ErrCodeExpirationNotFuture)
	}
	if !a.IsActive {
		return nil, internal.NewPolicyError("cannot extend an inactive assignment", internal.ErrCodeAssignmentNotModifiable)
	}

	copied := a.clone()
	copied.ExpiresAt = &newExpiry
	return copied, nil
}

// RemoveExpiration converts the assignment to an open-ended one.
func (a *Assignment) RemoveExpiration() (*Assignment, error) {
	if ok, reason := a.CanBeModified(); !ok {
		return nil, internal.NewPolicyError(reason, internal.ErrCodeAssignmentNotModifiable)
	}

	copied := a.clone()
	copied.ExpiresAt = nil
	return copied, nil
}

func (a *Assignment) MergeMetadata(metadata map[string]any) *Assignment {
	copied := a.clone()
	for k, v := range metadata {
		copied.Metadata[k] = v
	}
	return copied
}

// CanBeModified reports whether edit operations may touch this assignment.
func (a *Assignment) CanBeModified() (bool, string) {
	if !a.IsActive {
		return false, "assignment is inactive"
	}
	if a.IsExpired() {
		return false, "assignment has expired"
	}
	return true, ""
}

// CanBeDeleted applies the retention policy: inactive assignments can go at
// any time, active ones only after a year.
func (a *Assignment) CanBeDeleted() (bool, string) {
	if !a.IsActive {
		return true, ""
	}
	if a.AssignmentDurationDays() > DeletionPolicyDays {
		return true, ""
	}
	return false, fmt.Sprintf("active assignments can only be deleted after %d days, this one is %d days old", DeletionPolicyDays, a.AssignmentDurationDays())
}

func (a *Assignment) Validate() (bool, []string) {
	var problems []string
	now := time.Now().UTC()

	if a.ID == uuid.Nil {
		problems = append(problems, "assignment ID is missing")
	}
	if a.UserID == uuid.Nil {
		problems = append(problems, "user ID is missing")
	}
	if a.ProfileID == uuid.Nil {
		problems = append(problems, "profile ID is missing")
	}
	if a.OrganizationID == uuid.Nil {
		problems = append(problems, "organization ID is missing")
	}
	if a.AssignedAt.After(now) {
		problems = append(problems, "assignment timestamp is in the future")
	}
	if a.ExpiresAt != nil && !a.ExpiresAt.After(a.AssignedAt) {
		problems = append(problems, "expiry precedes the assignment timestamp")
	}
	if (a.RevokedAt == nil) != (a.RevokedBy == nil) {
		problems = append(problems, "revocation timestamp and actor must be set together")
	}
	if a.IsActive && a.RevokedAt != nil {
		problems = append(problems, "revoked assignments cannot be active")
	}
	return len(problems) == 0, problems
}

func ToDataModel(a *Assignment) *assignmentDatamodel.Assignment {
	return &assignmentDatamodel.Assignment{
		ID:             a.ID,
		UserID:         a.UserID,
		ProfileID:      a.ProfileID,
		OrganizationID: a.OrganizationID,
		AssignedBy:     a.AssignedBy,
		AssignedAt:     a.AssignedAt,
		ExpiresAt:      a.ExpiresAt,
		IsActive:       a.IsActive,
		RevokedAt:      a.RevokedAt,
		RevokedBy:      a.RevokedBy,
		Notes:          a.Notes,
		Metadata:       assignmentDatamodel.EncodeMetadata(a.Metadata),
	}
}

func FromDataModel(m *assignmentDatamodel.Assignment) *Assignment {
	return &Assignment{
		ID:             m.ID,
		UserID:         m.UserID,
		ProfileID:      m.ProfileID,
		OrganizationID: m.OrganizationID,
		AssignedBy:     m.AssignedBy,
		AssignedAt:     m.AssignedAt,
		ExpiresAt:      m.ExpiresAt,
		IsActive:       m.IsActive,
		RevokedAt:      m.RevokedAt,
		RevokedBy:      m.RevokedBy,
		Notes:          m.Notes,
		Metadata:       assignmentDatamodel.DecodeMetadata(m.Metadata),
	}
}

func FromDataModelSlice(models []*assignmentDatamodel.Assignment) []*Assignment {
	assignments := make([]*Assignment, 0, len(models))
	for _, m := range models {
		assignments = append(assignments, FromDataModel(m))
	}
	return assignments
}
