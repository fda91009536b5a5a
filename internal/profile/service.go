package profile

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/docuvault/access-management/internal"
	profileDatamodel "github.com/docuvault/access-management/internal/core/datamodel/profile"
)

type RepositoryAPI interface {
	Create(profile *profileDatamodel.Profile) error
	GetByID(id uuid.UUID) (*profileDatamodel.Profile, error)
	GetByName(organizationID uuid.UUID, name string) (*profileDatamodel.Profile, error)
	GetByOrganizationID(organizationID uuid.UUID, includeInactive bool) ([]*profileDatamodel.Profile, error)
	Update(profile *profileDatamodel.Profile) error
	Delete(id uuid.UUID) error
}

// AssignmentCounter reports how many active assignments reference a profile.
// Wired to the assignment repository so profile deletion can be blocked while
// users still depend on it.
type AssignmentCounter interface {
	CountActiveByProfileID(profileID uuid.UUID) (int64, error)
}

// GrantRemover cascades grant cleanup when a profile is deleted.
type GrantRemover interface {
	DeleteByProfileID(profileID uuid.UUID) error
}

type Service struct {
	repo        RepositoryAPI
	assignments AssignmentCounter
	grants      GrantRemover
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, assignments AssignmentCounter, grants GrantRemover, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		assignments: assignments,
		grants:      grants,
		logger:      logger,
	}
}

func (s *Service) CreateProfile(createdBy uuid.UUID, dto CreateProfileDTO) (*ProfileResponse, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("profile validation failed", "error", err, "name", dto.Name)
		return nil, err
	}

	if err := s.ensureNameAvailable(dto.OrganizationID, dto.Name, uuid.Nil); err != nil {
		return nil, err
	}

	newProfile, err := NewProfile(dto.Name, dto.Description, dto.OrganizationID, createdBy, dto.Metadata)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ToDataModel(newProfile)); err != nil {
		s.logger.Error("failed to create profile", "error", err, "name", dto.Name)
		return nil, err
	}

	s.logger.Info("profile created", "profile_id", newProfile.ID, "name", newProfile.Name, "organization_id", newProfile.OrganizationID)
	resp := newProfile.ToResponse()
	return &resp, nil
}

// CreateSystemProfile provisions the organization default profile. It is only
// reachable from the seeder and organization bootstrap, never from the API.
func (s *Service) CreateSystemProfile(createdBy uuid.UUID, organizationID uuid.UUID, name, description string) (*ProfileResponse, error) {
	if err := s.ensureNameAvailable(organizationID, name, uuid.Nil); err != nil {
		return nil, err
	}

	systemProfile, err := NewSystemProfile(name, description, organizationID, createdBy)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ToDataModel(systemProfile)); err != nil {
		s.logger.Error("failed to create system profile", "error", err, "name", name)
		return nil, err
	}

	s.logger.Info("system profile created", "profile_id", systemProfile.ID, "name", name, "organization_id", organizationID)
	resp := systemProfile.ToResponse()
	return &resp, nil
}

func (s *Service) ensureNameAvailable(organizationID uuid.UUID, name string, excludeID uuid.UUID) error {
	existing, err := s.repo.GetByName(organizationID, name)
	if err != nil {
		if err == internal.ErrProfileNotFound {
			return nil
		}
		return err
	}
	if existing != nil && existing.ID != excludeID {
		return internal.NewConflictError(
			fmt.Sprintf("a profile named %q already exists in this organization", name),
			internal.ErrCodeDuplicateProfileName, []string{existing.ID.String()})
	}
	return nil
}

func (s *Service) GetProfile(id uuid.UUID) (*ProfileResponse, error) {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	resp := FromDataModel(dm).ToResponse()
	return &resp, nil
}

func (s *Service) GetProfilesForOrganization(organizationID uuid.UUID, includeInactive bool) ([]ProfileResponse, error) {
	dms, err := s.repo.GetByOrganizationID(organizationID, includeInactive)
	if err != nil {
		s.logger.Error("failed to list profiles", "error", err, "organization_id", organizationID)
		return nil, err
	}

	responses := make([]ProfileResponse, 0, len(dms))
	for _, dm := range dms {
		responses = append(responses, FromDataModel(dm).ToResponse())
	}
	return responses, nil
}

func (s *Service) UpdateProfile(id uuid.UUID, dto UpdateProfileDTO) (*ProfileResponse, error) {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	current := FromDataModel(dm)

	if ok, reason := current.CanBeModified(); !ok {
		return nil, internal.NewPolicyError(reason, internal.ErrCodeSystemProfileImmutable)
	}

	updated := current
	if dto.Name != nil && *dto.Name != current.Name {
		if err := s.ensureNameAvailable(current.OrganizationID, *dto.Name, current.ID); err != nil {
			return nil, err
		}
		updated, err = updated.WithName(*dto.Name)
		if err != nil {
			return nil, err
		}
	}
	if dto.Description != nil {
		updated, err = updated.WithDescription(*dto.Description)
		if err != nil {
			return nil, err
		}
	}
	if len(dto.Metadata) > 0 {
		updated = updated.MergeMetadata(dto.Metadata)
	}
	if dto.IsActive != nil {
		if *dto.IsActive {
			updated = updated.Activate()
		} else {
			updated = updated.Deactivate()
		}
	}

	if err := s.repo.Update(ToDataModel(updated)); err != nil {
		s.logger.Error("failed to update profile", "error", err, "profile_id", id)
		return nil, err
	}

	s.logger.Info("profile updated", "profile_id", id, "name", updated.Name, "is_active", updated.IsActive)
	resp := updated.ToResponse()
	return &resp, nil
}

func (s *Service) DeactivateProfile(id uuid.UUID) (*ProfileResponse, error) {
	inactive := false
	return s.UpdateProfile(id, UpdateProfileDTO{IsActive: &inactive})
}

func (s *Service) ReactivateProfile(id uuid.UUID) (*ProfileResponse, error) {
	active := true
	return s.UpdateProfile(id, UpdateProfileDTO{IsActive: &active})
}

// DeleteProfile removes a profile and cascades its folder grants. Deletion is
// refused for system profiles and while active assignments still reference it.
func (s *Service) DeleteProfile(id uuid.UUID) error {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	current := FromDataModel(dm)

	if ok, reason := current.CanBeDeleted(); !ok {
		return internal.NewPolicyError(reason, internal.ErrCodeSystemProfileImmutable)
	}

	activeAssignments, err := s.assignments.CountActiveByProfileID(id)
	if err != nil {
		s.logger.Error("failed to count assignments for profile", "error", err, "profile_id", id)
		return err
	}
	if activeAssignments > 0 {
		return internal.NewPolicyError(
			fmt.Sprintf("profile still has %d active assignment(s)", activeAssignments),
			internal.ErrCodeProfileHasAssignments)
	}

	if err := s.grants.DeleteByProfileID(id); err != nil {
		s.logger.Error("failed to cascade grant deletion", "error", err, "profile_id", id)
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete profile", "error", err, "profile_id", id)
		return err
	}

	s.logger.Info("profile deleted", "profile_id", id, "name", current.Name)
	return nil
}
