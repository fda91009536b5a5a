package access_test

import (
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docuvault/access-management/internal"
	"github.com/docuvault/access-management/internal/access"
	assignmentDatamodel "github.com/docuvault/access-management/internal/core/datamodel/assignment"
	grantDatamodel "github.com/docuvault/access-management/internal/core/datamodel/grant"
	profileDatamodel "github.com/docuvault/access-management/internal/core/datamodel/profile"
	"github.com/docuvault/access-management/internal/permission"
)

// MockAssignmentAPI implements access.AssignmentAPI for testing
type MockAssignmentAPI struct {
	rows []*assignmentDatamodel.Assignment
}

func (m *MockAssignmentAPI) GetActiveByUserID(userID uuid.UUID) ([]*assignmentDatamodel.Assignment, error) {
	var result []*assignmentDatamodel.Assignment
	for _, row := range m.rows {
		if row.UserID == userID && row.IsActive {
			result = append(result, row)
		}
	}
	return result, nil
}

// MockProfileAPI implements access.ProfileAPI for testing
type MockProfileAPI struct {
	profiles map[uuid.UUID]*profileDatamodel.Profile
}

func (m *MockProfileAPI) GetByID(id uuid.UUID) (*profileDatamodel.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, internal.ErrProfileNotFound
	}
	return p, nil
}

func (m *MockProfileAPI) GetByOrganizationID(organizationID uuid.UUID, includeInactive bool) ([]*profileDatamodel.Profile, error) {
	var result []*profileDatamodel.Profile
	for _, p := range m.profiles {
		if p.OrganizationID != organizationID {
			continue
		}
		if !includeInactive && !p.IsActive {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

// MockGrantAPI implements access.GrantAPI for testing
type MockGrantAPI struct {
	rows []*grantDatamodel.FolderGrant
}

func (m *MockGrantAPI) GetByProfileID(profileID uuid.UUID) ([]*grantDatamodel.FolderGrant, error) {
	var result []*grantDatamodel.FolderGrant
	for _, g := range m.rows {
		if g.ProfileID == profileID {
			result = append(result, g)
		}
	}
	return result, nil
}

func (m *MockGrantAPI) GetActiveByProfileID(profileID uuid.UUID) ([]*grantDatamodel.FolderGrant, error) {
	var result []*grantDatamodel.FolderGrant
	for _, g := range m.rows {
		if g.ProfileID == profileID && g.IsActive {
			result = append(result, g)
		}
	}
	return result, nil
}

var _ = Describe("Access Service", func() {
	var (
		mockAssignments *MockAssignmentAPI
		mockProfiles    *MockProfileAPI
		mockGrants      *MockGrantAPI
		service         *access.Service

		userID    uuid.UUID
		orgID     uuid.UUID
		profileID uuid.UUID
	)

	addProfile := func(name string, active bool) uuid.UUID {
		id := uuid.New()
		mockProfiles.profiles[id] = &profileDatamodel.Profile{
			ID:             id,
			Name:           name,
			OrganizationID: orgID,
			IsActive:       active,
			Metadata:       "{}",
		}
		return id
	}

	addAssignment := func(profileID uuid.UUID, expiresAt *time.Time) {
		mockAssignments.rows = append(mockAssignments.rows, &assignmentDatamodel.Assignment{
			ID:             uuid.New(),
			UserID:         userID,
			ProfileID:      profileID,
			OrganizationID: orgID,
			AssignedBy:     uuid.New(),
			AssignedAt:     time.Now().UTC().Add(-time.Hour),
			ExpiresAt:      expiresAt,
			IsActive:       true,
			Metadata:       "{}",
		})
	}

	addGrant := func(profileID uuid.UUID, folderPath string, level permission.Level) {
		mockGrants.rows = append(mockGrants.rows, &grantDatamodel.FolderGrant{
			ID:              uuid.New(),
			ProfileID:       profileID,
			FolderPath:      folderPath,
			PermissionLevel: string(level),
			OrganizationID:  orgID,
			CreatedBy:       uuid.New(),
			CreatedAt:       time.Now().UTC(),
			IsActive:        true,
			Metadata:        "{}",
		})
	}

	BeforeEach(func() {
		mockAssignments = &MockAssignmentAPI{}
		mockProfiles = &MockProfileAPI{profiles: make(map[uuid.UUID]*profileDatamodel.Profile)}
		mockGrants = &MockGrantAPI{}
		testLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = access.NewService(mockAssignments, mockProfiles, mockGrants, testLogger)

		userID = uuid.New()
		orgID = uuid.New()
		profileID = addProfile("Engineering", true)
	})

	Describe("CheckAccess", func() {
		It("should resolve access end to end", func() {
			addAssignment(profileID, nil)
			addGrant(profileID, "/documents/projects", permission.LevelEdit)

			decision, err := service.CheckAccess(userID, "/documents/projects/2026", "document:update")
			Expect(err).NotTo(HaveOccurred())
			Expect(decision.CanAccess).To(BeTrue())
			Expect(decision.PermissionLevel).To(Equal(permission.LevelEdit))
		})

		It("should deny a user with no assignments", func() {
			decision, err := service.CheckAccess(userID, "/documents/projects", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(decision.CanAccess).To(BeFalse())
		})

		It("should filter out expired assignments the store still flags active", func() {
			past := time.Now().UTC().Add(-time.Minute)
			addAssignment(profileID, &past)
			addGrant(profileID, "/documents/projects", permission.LevelFull)

			decision, err := service.CheckAccess(userID, "/documents/projects", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(decision.CanAccess).To(BeFalse())
		})

		It("should skip assignments whose profile no longer exists", func() {
			addAssignment(uuid.New(), nil)

			decision, err := service.CheckAccess(userID, "/documents/projects", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(decision.CanAccess).To(BeFalse())
		})
	})

	Describe("GetUserContext", func() {
		It("should aggregate across assignments", func() {
			other := addProfile("Management", true)
			addAssignment(profileID, nil)
			addAssignment(other, nil)
			addGrant(profileID, "/documents/projects", permission.LevelRead)
			addGrant(other, "/documents/projects", permission.LevelFull)
			addGrant(other, "/documents/board", permission.LevelRead)

			ctx, err := service.GetUserContext(userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ctx.Profiles).To(ConsistOf("Engineering", "Management"))
			Expect(ctx.Folders).To(HaveLen(2))

			for _, folder := range ctx.Folders {
				if folder.FolderPath == "/documents/projects" {
					Expect(folder.PermissionLevel).To(Equal(permission.LevelFull))
				}
			}
		})
	})

	Describe("GetPermissionMatrix", func() {
		It("should include every active profile in the organization", func() {
			other := addProfile("Management", true)
			addGrant(profileID, "/documents/projects", permission.LevelEdit)
			addGrant(other, "/documents/board", permission.LevelFull)

			matrix, err := service.GetPermissionMatrix(orgID, access.MatrixFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(matrix.ProfileCount).To(Equal(2))
			Expect(matrix.Folders["/documents/projects"]).To(HaveKeyWithValue("Engineering", "edit"))
			Expect(matrix.Folders["/documents/board"]).To(HaveKeyWithValue("Management", "full"))
		})

		It("should honor folder and profile filters", func() {
			other := addProfile("Management", true)
			addGrant(profileID, "/documents/projects", permission.LevelEdit)
			addGrant(other, "/documents/projects", permission.LevelFull)
			addGrant(other, "/documents/board", permission.LevelRead)

			byFolder, err := service.GetPermissionMatrix(orgID, access.MatrixFilter{
				FolderPaths: []string{"/documents/board"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(byFolder.Folders).To(HaveLen(1))
			Expect(byFolder.Folders["/documents/board"]).To(HaveKeyWithValue("Management", "read"))

			byProfile, err := service.GetPermissionMatrix(orgID, access.MatrixFilter{
				ProfileIDs: []uuid.UUID{profileID},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(byProfile.ProfileCount).To(Equal(1))
			Expect(byProfile.Folders["/documents/projects"]).To(HaveKeyWithValue("Engineering", "edit"))
			Expect(byProfile.Folders["/documents/projects"]).NotTo(HaveKey("Management"))
		})
	})
})
