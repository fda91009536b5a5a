package access

import (
	"log/slog"

	"github.com/google/uuid"

	assignmentDatamodel "github.com/docuvault/access-management/internal/core/datamodel/assignment"
	grantDatamodel "github.com/docuvault/access-management/internal/core/datamodel/grant"
	profileDatamodel "github.com/docuvault/access-management/internal/core/datamodel/profile"

	"github.com/docuvault/access-management/internal/assignment"
	"github.com/docuvault/access-management/internal/grant"
	"github.com/docuvault/access-management/internal/profile"
)

type AssignmentAPI interface {
	GetActiveByUserID(userID uuid.UUID) ([]*assignmentDatamodel.Assignment, error)
}

type ProfileAPI interface {
	GetByID(id uuid.UUID) (*profileDatamodel.Profile, error)
	GetByOrganizationID(organizationID uuid.UUID, includeInactive bool) ([]*profileDatamodel.Profile, error)
}

type GrantAPI interface {
	GetByProfileID(profileID uuid.UUID) ([]*grantDatamodel.FolderGrant, error)
	GetActiveByProfileID(profileID uuid.UUID) ([]*grantDatamodel.FolderGrant, error)
}

// Service loads the data a resolver run needs and delegates the evaluation.
type Service struct {
	resolver    *Resolver
	assignments AssignmentAPI
	profiles    ProfileAPI
	grants      GrantAPI
	logger      *slog.Logger
}

func NewService(assignments AssignmentAPI, profiles ProfileAPI, grants GrantAPI, logger *slog.Logger) *Service {
	return &Service{
		resolver:    NewResolver(),
		assignments: assignments,
		profiles:    profiles,
		grants:      grants,
		logger:      logger,
	}
}

// loadBundles materializes the user's valid assignments with their profiles
// and active grants. Assignments whose profile vanished are skipped rather
// than failing the whole evaluation.
func (s *Service) loadBundles(userID uuid.UUID) ([]ProfileGrants, error) {
	assignmentRows, err := s.assignments.GetActiveByUserID(userID)
	if err != nil {
		s.logger.Error("failed to load assignments for access evaluation", "error", err, "user_id", userID)
		return nil, err
	}

	bundles := make([]ProfileGrants, 0, len(assignmentRows))
	for _, row := range assignmentRows {
		domainAssignment := assignment.FromDataModel(row)
		if !domainAssignment.IsValid() {
			continue
		}

		profileRow, err := s.profiles.GetByID(row.ProfileID)
		if err != nil {
			s.logger.Warn("assignment references a missing profile", "assignment_id", row.ID, "profile_id", row.ProfileID)
			continue
		}

		grantRows, err := s.grants.GetActiveByProfileID(row.ProfileID)
		if err != nil {
			s.logger.Error("failed to load grants for profile", "error", err, "profile_id", row.ProfileID)
			return nil, err
		}

		bundles = append(bundles, ProfileGrants{
			Assignment: domainAssignment,
			Profile:    profile.FromDataModel(profileRow),
			Grants:     grant.FromDataModelSlice(grantRows),
		})
	}
	return bundles, nil
}

func (s *Service) CheckAccess(userID uuid.UUID, folderPath, action string) (*Decision, error) {
	bundles, err := s.loadBundles(userID)
	if err != nil {
		return nil, err
	}

	decision, err := s.resolver.CheckAccess(userID, folderPath, action, bundles)
	if err != nil {
		return nil, err
	}

	s.logger.Info("access evaluated",
		"user_id", userID,
		"folder_path", decision.FolderPath,
		"action", action,
		"can_access", decision.CanAccess,
		"permission_level", decision.PermissionLevel)
	return decision, nil
}

func (s *Service) GetUserContext(userID uuid.UUID) (*UserContext, error) {
	bundles, err := s.loadBundles(userID)
	if err != nil {
		return nil, err
	}
	return s.resolver.BuildUserContext(userID, bundles), nil
}

func (s *Service) GetPermissionMatrix(organizationID uuid.UUID, filter MatrixFilter) (*PermissionMatrix, error) {
	profileRows, err := s.profiles.GetByOrganizationID(organizationID, filter.IncludeInactive)
	if err != nil {
		s.logger.Error("failed to load profiles for matrix", "error", err, "organization_id", organizationID)
		return nil, err
	}

	entries := make([]ProfileWithGrants, 0, len(profileRows))
	for _, row := range profileRows {
		var grantRows []*grantDatamodel.FolderGrant
		if filter.IncludeInactive {
			grantRows, err = s.grants.GetByProfileID(row.ID)
		} else {
			grantRows, err = s.grants.GetActiveByProfileID(row.ID)
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, ProfileWithGrants{
			Profile: profile.FromDataModel(row),
			Grants:  grant.FromDataModelSlice(grantRows),
		})
	}

	return s.resolver.BuildMatrix(organizationID, entries, filter), nil
}
