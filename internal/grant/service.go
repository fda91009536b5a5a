package grant

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/docuvault/access-management/internal"
	grantDatamodel "github.com/docuvault/access-management/internal/core/datamodel/grant"
	profileDatamodel "github.com/docuvault/access-management/internal/core/datamodel/profile"
	"github.com/docuvault/access-management/internal/permission"
)

type RepositoryAPI interface {
	Create(grant *grantDatamodel.FolderGrant) error
	GetByID(id uuid.UUID) (*grantDatamodel.FolderGrant, error)
	GetByProfileID(profileID uuid.UUID) ([]*grantDatamodel.FolderGrant, error)
	GetActiveByProfileID(profileID uuid.UUID) ([]*grantDatamodel.FolderGrant, error)
	GetByOrganizationID(organizationID uuid.UUID) ([]*grantDatamodel.FolderGrant, error)
	Update(grant *grantDatamodel.FolderGrant) error
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

// CreateGrant validates the target profile and rejects grants whose folder
// path duplicates or overlaps an active grant on the same profile.
func (s *Service) CreateGrant(createdBy uuid.UUID, dto CreateGrantDTO) (*GrantResponse, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("grant validation failed", "error", err, "profile_id", dto.ProfileID)
		return nil, err
	}

	level, err := permission.ParseLevel(dto.PermissionLevel)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(dto.ProfileID)
	if err != nil {
		s.logger.Error("failed to look up profile for grant", "error", err, "profile_id", dto.ProfileID)
		return nil, err
	}
	if !profile.IsActive {
		return nil, internal.NewPolicyError("cannot grant access through an inactive profile", internal.ErrCodeProfileInactive)
	}
	if profile.OrganizationID != dto.OrganizationID {
		return nil, internal.NewValidationError("grant organization does not match profile organization", internal.ErrCodeOrganizationMismatch)
	}

	newGrant, err := NewFolderGrant(dto.ProfileID, dto.FolderPath, level, dto.OrganizationID, createdBy, dto.Notes, dto.Metadata)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetActiveByProfileID(dto.ProfileID)
	if err != nil {
		s.logger.Error("failed to load existing grants", "error", err, "profile_id", dto.ProfileID)
		return nil, err
	}
	if conflictErr := s.detectConflicts(newGrant, existing); conflictErr != nil {
		return nil, conflictErr
	}

	if err := s.repo.Create(ToDataModel(newGrant)); err != nil {
		s.logger.Error("failed to create grant", "error", err, "profile_id", dto.ProfileID, "folder_path", newGrant.FolderPath)
		return nil, err
	}

	s.logger.Info("grant created",
		"grant_id", newGrant.ID,
		"profile_id", newGrant.ProfileID,
		"folder_path", newGrant.FolderPath,
		"permission_level", newGrant.PermissionLevel)

	resp := newGrant.ToResponse()
	return &resp, nil
}

func (s *Service) detectConflicts(candidate *FolderGrant, stored []*grantDatamodel.FolderGrant) error {
	var conflictingIDs []string
	for _, dm := range stored {
		if dm.ID == candidate.ID {
			continue
		}
		other := FromDataModel(dm)
		if candidate.ConflictsWith(other) {
			conflictingIDs = append(conflictingIDs, other.ID.String())
		}
	}
	if len(conflictingIDs) == 0 {
		return nil
	}
	msg := fmt.Sprintf("folder path %s overlaps %d existing active grant(s) on this profile", candidate.FolderPath, len(conflictingIDs))
	return internal.NewConflictError(msg, internal.ErrCodeGrantConflict, conflictingIDs)
}

func (s *Service) GetGrant(id uuid.UUID) (*GrantResponse, error) {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	resp := FromDataModel(dm).ToResponse()
	return &resp, nil
}

func (s *Service) GetGrantsForProfile(profileID uuid.UUID, activeOnly bool) ([]GrantResponse, error) {
	var (
		dms []*grantDatamodel.FolderGrant
		err error
	)
	if activeOnly {
		dms, err = s.repo.GetActiveByProfileID(profileID)
	} else {
		dms, err = s.repo.GetByProfileID(profileID)
	}
	if err != nil {
		s.logger.Error("failed to list grants", "error", err, "profile_id", profileID)
		return nil, err
	}

	responses := make([]GrantResponse, 0, len(dms))
	for _, dm := range dms {
		responses = append(responses, FromDataModel(dm).ToResponse())
	}
	return responses, nil
}

func (s *Service) GetGrantsForOrganization(organizationID uuid.UUID) ([]GrantResponse, error) {
	dms, err := s.repo.GetByOrganizationID(organizationID)
	if err != nil {
		s.logger.Error("failed to list organization grants", "error", err, "organization_id", organizationID)
		return nil, err
	}

	responses := make([]GrantResponse, 0, len(dms))
	for _, dm := range dms {
		responses = append(responses, FromDataModel(dm).ToResponse())
	}
	return responses, nil
}

// UpdateGrant applies the allowed mutations and re-runs conflict detection
// when the folder path or active flag changes.
func (s *Service) UpdateGrant(id uuid.UUID, dto UpdateGrantDTO) (*GrantResponse, error) {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	current := FromDataModel(dm)

	updated := current
	if dto.PermissionLevel != nil {
		level, err := permission.ParseLevel(*dto.PermissionLevel)
		if err != nil {
			return nil, err
		}
		updated = updated.WithPermissionLevel(level)
	}
	if dto.FolderPath != nil {
		updated, err = updated.WithFolderPath(*dto.FolderPath)
		if err != nil {
			return nil, err
		}
	}
	if dto.Notes != nil {
		updated = updated.WithNotes(*dto.Notes)
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

	if updated.IsActive {
		existing, err := s.repo.GetActiveByProfileID(updated.ProfileID)
		if err != nil {
			return nil, err
		}
		if conflictErr := s.detectConflicts(updated, existing); conflictErr != nil {
			return nil, conflictErr
		}
	}

	if err := s.repo.Update(ToDataModel(updated)); err != nil {
		s.logger.Error("failed to update grant", "error", err, "grant_id", id)
		return nil, err
	}

	s.logger.Info("grant updated", "grant_id", id, "folder_path", updated.FolderPath, "is_active", updated.IsActive)
	resp := updated.ToResponse()
	return &resp, nil
}

func (s *Service) DeactivateGrant(id uuid.UUID) (*GrantResponse, error) {
	inactive := false
	return s.UpdateGrant(id, UpdateGrantDTO{IsActive: &inactive})
}

func (s *Service) ReactivateGrant(id uuid.UUID) (*GrantResponse, error) {
	active := true
	return s.UpdateGrant(id, UpdateGrantDTO{IsActive: &active})
}

func (s *Service) DeleteGrant(id uuid.UUID) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete grant", "error", err, "grant_id", id)
		return err
	}
	s.logger.Info("grant deleted", "grant_id", id)
	return nil
}
