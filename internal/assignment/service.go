package assignment

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/docuvault/access-management/internal"
	assignmentDatamodel "github.com/docuvault/access-management/internal/core/datamodel/assignment"
	profileDatamodel "github.com/docuvault/access-management/internal/core/datamodel/profile"
)

type RepositoryAPI interface {
	Create(assignment *assignmentDatamodel.Assignment) error
	GetByID(id uuid.UUID) (*assignmentDatamodel.Assignment, error)
	GetByUserID(userID uuid.UUID) ([]*assignmentDatamodel.Assignment, error)
	GetActiveByUserID(userID uuid.UUID) ([]*assignmentDatamodel.Assignment, error)
	GetByProfileID(profileID uuid.UUID) ([]*assignmentDatamodel.Assignment, error)
	GetByOrganizationID(organizationID uuid.UUID) ([]*assignmentDatamodel.Assignment, error)
	GetActiveByUserAndProfile(userID, profileID uuid.UUID) (*assignmentDatamodel.Assignment, error)
	CountActiveByProfileID(profileID uuid.UUID) (int64, error)
	Update(assignment *assignmentDatamodel.Assignment) error
	Delete(id uuid.UUID) error
}

type ProfileAPI interface {
	GetByID(id uuid.UUID) (*profileDatamodel.Profile, error)
}

type Service struct {
	repo     RepositoryAPI
	profiles ProfileAPI
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, profiles ProfileAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		logger:   logger,
	}
}

// AssignProfile binds a user to a profile. A user can hold at most one active
// assignment per profile.
func (s *Service) AssignProfile(assignedBy uuid.UUID, dto CreateAssignmentDTO) (*AssignmentResponse, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("assignment validation failed", "error", err, "user_id", dto.UserID)
		return nil, err
	}

	profile, err := s.profiles.GetByID(dto.ProfileID)
	if err != nil {
		s.logger.Error("failed to look up profile for assignment", "error", err, "profile_id", dto.ProfileID)
		return nil, err
	}
	if !profile.IsActive {
		return nil, internal.NewPolicyError("cannot assign an inactive profile", internal.ErrCodeProfileInactive)
	}
	if profile.OrganizationID != dto.OrganizationID {
		return nil, internal.NewValidationError("assignment organization does not match profile organization", internal.ErrCodeOrganizationMismatch)
	}

	existing, err := s.repo.GetActiveByUserAndProfile(dto.UserID, dto.ProfileID)
	if err != nil && err != internal.ErrAssignmentNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, internal.NewConflictError(
			"user already holds an active assignment for this profile",
			internal.ErrCodeDuplicateAssignment, []string{existing.ID.String()})
	}

	newAssignment, err := NewAssignment(dto.UserID, dto.ProfileID, dto.OrganizationID, assignedBy, dto.ExpiresAt, dto.Notes, dto.Metadata)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ToDataModel(newAssignment)); err != nil {
		s.logger.Error("failed to create assignment", "error", err, "user_id", dto.UserID, "profile_id", dto.ProfileID)
		return nil, err
	}

	s.logger.Info("profile assigned",
		"assignment_id", newAssignment.ID,
		"user_id", newAssignment.UserID,
		"profile_id", newAssignment.ProfileID,
		"expires_at", newAssignment.ExpiresAt)

	resp := newAssignment.ToResponse()
	return &resp, nil
}

func (s *Service) GetAssignment(id uuid.UUID) (*AssignmentResponse, error) {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	resp := FromDataModel(dm).ToResponse()
	return &resp, nil
}

func (s *Service) GetAssignmentsForUser(userID uuid.UUID, validOnly bool) ([]AssignmentResponse, error) {
	var (
		dms []*assignmentDatamodel.Assignment
		err error
	)
	if validOnly {
		dms, err = s.repo.GetActiveByUserID(userID)
	} else {
		dms, err = s.repo.GetByUserID(userID)
	}
	if err != nil {
		s.logger.Error("failed to list assignments", "error", err, "user_id", userID)
		return nil, err
	}

	responses := make([]AssignmentResponse, 0, len(dms))
	for _, dm := range dms {
		domain := FromDataModel(dm)
		if validOnly && !domain.IsValid() {
			continue
		}
		responses = append(responses, domain.ToResponse())
	}
	return responses, nil
}

func (s *Service) GetAssignmentsForProfile(profileID uuid.UUID) ([]AssignmentResponse, error) {
	dms, err := s.repo.GetByProfileID(profileID)
	if err != nil {
		s.logger.Error("failed to list profile assignments", "error", err, "profile_id", profileID)
		return nil, err
	}

	responses := make([]AssignmentResponse, 0, len(dms))
	for _, dm := range dms {
		responses = append(responses, FromDataModel(dm).ToResponse())
	}
	return responses, nil
}

func (s *Service) GetAssignmentsForOrganization(organizationID uuid.UUID) ([]AssignmentResponse, error) {
	dms, err := s.repo.GetByOrganizationID(organizationID)
	if err != nil {
		s.logger.Error("failed to list organization assignments", "error", err, "organization_id", organizationID)
		return nil, err
	}

	responses := make([]AssignmentResponse, 0, len(dms))
	for _, dm := range dms {
		responses = append(responses, FromDataModel(dm).ToResponse())
	}
	return responses, nil
}

// GetExpiringAssignments returns valid assignments that run out within the
// given number of days.
func (s *Service) GetExpiringAssignments(userID uuid.UUID, days int) ([]AssignmentResponse, error) {
	dms, err := s.repo.GetActiveByUserID(userID)
	if err != nil {
		return nil, err
	}

	var responses []AssignmentResponse
	for _, dm := range dms {
		domain := FromDataModel(dm)
		if domain.IsExpiringSoon(days) {
			responses = append(responses, domain.ToResponse())
		}
	}
	return responses, nil
}

func (s *Service) RevokeAssignment(id, revokedBy uuid.UUID, reason string) (*AssignmentResponse, error) {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	revoked, err := FromDataModel(dm).Revoke(revokedBy, reason)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ToDataModel(revoked)); err != nil {
		s.logger.Error("failed to revoke assignment", "error", err, "assignment_id", id)
		return nil, err
	}

	s.logger.Info("assignment revoked", "assignment_id", id, "revoked_by", revokedBy, "reason", reason)
	resp := revoked.ToResponse()
	return &resp, nil
}

func (s *Service) ReactivateAssignment(id, reactivatedBy uuid.UUID) (*AssignmentResponse, error) {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	current := FromDataModel(dm)

	// Reactivation must not sneak past the one-active-per-profile rule.
	existing, err := s.repo.GetActiveByUserAndProfile(current.UserID, current.ProfileID)
	if err != nil && err != internal.ErrAssignmentNotFound {
		return nil, err
	}
	if existing != nil && existing.ID != current.ID {
		return nil, internal.NewConflictError(
			"user already holds an active assignment for this profile",
			internal.ErrCodeDuplicateAssignment, []string{existing.ID.String()})
	}

	reactivated, err := current.Reactivate(reactivatedBy)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ToDataModel(reactivated)); err != nil {
		s.logger.Error("failed to reactivate assignment", "error", err, "assignment_id", id)
		return nil, err
	}

	s.logger.Info("assignment reactivated", "assignment_id", id, "reactivated_by", reactivatedBy)
	resp := reactivated.ToResponse()
	return &resp, nil
}

// DeactivateAssignment suspends the assignment without the revocation trail
// Revoke leaves. Deactivating an already inactive assignment succeeds and
// changes nothing.
func (s *Service) DeactivateAssignment(id uuid.UUID) (*AssignmentResponse, error) {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	deactivated := FromDataModel(dm).Deactivate()
	if err := s.repo.Update(ToDataModel(deactivated)); err != nil {
		s.logger.Error("failed to deactivate assignment", "error", err, "assignment_id", id)
		return nil, err
	}

	s.logger.Info("assignment deactivated", "assignment_id", id)
	resp := deactivated.ToResponse()
	return &resp, nil
}

// ActivateAssignment turns a suspended assignment back on without touching
// its assignment timestamp.
func (s *Service) ActivateAssignment(id uuid.UUID) (*AssignmentResponse, error) {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	current := FromDataModel(dm)

	// Activation must not sneak past the one-active-per-profile rule.
	existing, err := s.repo.GetActiveByUserAndProfile(current.UserID, current.ProfileID)
	if err != nil && err != internal.ErrAssignmentNotFound {
		return nil, err
	}
	if existing != nil && existing.ID != current.ID {
		return nil, internal.NewConflictError(
			"user already holds an active assignment for this profile",
			internal.ErrCodeDuplicateAssignment, []string{existing.ID.String()})
	}

	activated := current.Activate()
	if err := s.repo.Update(ToDataModel(activated)); err != nil {
		s.logger.Error("failed to activate assignment", "error", err, "assignment_id", id)
		return nil, err
	}

	s.logger.Info("assignment activated", "assignment_id", id)
	resp := activated.ToResponse()
	return &resp, nil
}

func (s *Service) ChangeAssignmentProfile(id, changedBy uuid.UUID, dto ChangeProfileDTO) (*AssignmentResponse, error) {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	current := FromDataModel(dm)

	profile, err := s.profiles.GetByID(dto.ProfileID)
	if err != nil {
		return nil, err
	}
	if !profile.IsActive {
		return nil, internal.NewPolicyError("cannot assign an inactive profile", internal.ErrCodeProfileInactive)
	}
	if profile.OrganizationID != current.OrganizationID {
		return nil, internal.NewValidationError("target profile belongs to another organization", internal.ErrCodeOrganizationMismatch)
	}

	existing, err := s.repo.GetActiveByUserAndProfile(current.UserID, dto.ProfileID)
	if err != nil && err != internal.ErrAssignmentNotFound {
		return nil, err
	}
	if existing != nil && existing.ID != current.ID {
		return nil, internal.NewConflictError(
			"user already holds an active assignment for this profile",
			internal.ErrCodeDuplicateAssignment, []string{existing.ID.String()})
	}

	changed, err := current.ChangeProfile(dto.ProfileID, changedBy)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ToDataModel(changed)); err != nil {
		s.logger.Error("failed to change assignment profile", "error", err, "assignment_id", id)
		return nil, err
	}

	s.logger.Info("assignment moved to new profile", "assignment_id", id, "profile_id", dto.ProfileID, "changed_by", changedBy)
	resp := changed.ToResponse()
	return &resp, nil
}

// ExtendAssignment moves the expiry out, or removes it entirely when the DTO
// carries no instant.
func (s *Service) ExtendAssignment(id uuid.UUID, dto ExtendAssignmentDTO) (*AssignmentResponse, error) {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	current := FromDataModel(dm)

	var extended *Assignment
	if dto.ExpiresAt == nil {
		extended, err = current.RemoveExpiration()
	} else {
		extended, err = current.Extend(*dto.ExpiresAt)
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ToDataModel(extended)); err != nil {
		s.logger.Error("failed to extend assignment", "error", err, "assignment_id", id)
		return nil, err
	}

	s.logger.Info("assignment expiry changed", "assignment_id", id, "expires_at", extended.ExpiresAt)
	resp := extended.ToResponse()
	return &resp, nil
}

// DeleteAssignment hard-deletes an assignment subject to the retention
// policy.
func (s *Service) DeleteAssignment(id uuid.UUID) error {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	current := FromDataModel(dm)

	if ok, reason := current.CanBeDeleted(); !ok {
		return internal.NewPolicyError(reason, internal.ErrCodeAssignmentNotDeletable)
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete assignment", "error", err, "assignment_id", id)
		return err
	}

	s.logger.Info("assignment deleted", "assignment_id", id)
	return nil
}
