package grant_test

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docuvault/access-management/internal"
	grantDatamodel "github.com/docuvault/access-management/internal/core/datamodel/grant"
	profileDatamodel "github.com/docuvault/access-management/internal/core/datamodel/profile"
	"github.com/docuvault/access-management/internal/grant"
)

// MockRepository implements grant.RepositoryAPI for testing
type MockRepository struct {
	grants     map[uuid.UUID]*grantDatamodel.FolderGrant
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{grants: make(map[uuid.UUID]*grantDatamodel.FolderGrant)}
}

func (m *MockRepository) Create(g *grantDatamodel.FolderGrant) error {
	if m.shouldFail {
		return m.failError
	}
	m.grants[g.ID] = g
	return nil
}

func (m *MockRepository) GetByID(id uuid.UUID) (*grantDatamodel.FolderGrant, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	g, ok := m.grants[id]
	if !ok {
		return nil, internal.ErrGrantNotFound
	}
	return g, nil
}

func (m *MockRepository) GetByProfileID(profileID uuid.UUID) ([]*grantDatamodel.FolderGrant, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var result []*grantDatamodel.FolderGrant
	for _, g := range m.grants {
		if g.ProfileID == profileID {
			result = append(result, g)
		}
	}
	return result, nil
}

func (m *MockRepository) GetActiveByProfileID(profileID uuid.UUID) ([]*grantDatamodel.FolderGrant, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var result []*grantDatamodel.FolderGrant
	for _, g := range m.grants {
		if g.ProfileID == profileID && g.IsActive {
			result = append(result, g)
		}
	}
	return result, nil
}

func (m *MockRepository) GetByOrganizationID(organizationID uuid.UUID) ([]*grantDatamodel.FolderGrant, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var result []*grantDatamodel.FolderGrant
	for _, g := range m.grants {
		if g.OrganizationID == organizationID {
			result = append(result, g)
		}
	}
	return result, nil
}

func (m *MockRepository) Update(g *grantDatamodel.FolderGrant) error {
	if m.shouldFail {
		return m.failError
	}
	m.grants[g.ID] = g
	return nil
}

func (m *MockRepository) Delete(id uuid.UUID) error {
	if m.shouldFail {
		return m.failError
	}
	delete(m.grants, id)
	return nil
}

func (m *MockRepository) SetShouldFail(shouldFail bool, err error) {
	m.shouldFail = shouldFail
	m.failError = err
}

// MockProfileAPI implements grant.ProfileAPI for testing
type MockProfileAPI struct {
	profiles map[uuid.UUID]*profileDatamodel.Profile
}

func NewMockProfileAPI() *MockProfileAPI {
	return &MockProfileAPI{profiles: make(map[uuid.UUID]*profileDatamodel.Profile)}
}

func (m *MockProfileAPI) GetByID(id uuid.UUID) (*profileDatamodel.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, internal.ErrProfileNotFound
	}
	return p, nil
}

func (m *MockProfileAPI) AddProfile(p *profileDatamodel.Profile) {
	m.profiles[p.ID] = p
}

var _ = Describe("Grant Service", func() {
	var (
		mockRepo     *MockRepository
		mockProfiles *MockProfileAPI
		service      *grant.Service
		testLogger   *slog.Logger

		profileID uuid.UUID
		orgID     uuid.UUID
		adminID   uuid.UUID
	)

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		mockProfiles = NewMockProfileAPI()
		testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = grant.NewService(mockRepo, mockProfiles, testLogger)

		profileID = uuid.New()
		orgID = uuid.New()
		adminID = uuid.New()

		mockProfiles.AddProfile(&profileDatamodel.Profile{
			ID:             profileID,
			Name:           "Engineering",
			OrganizationID: orgID,
			CreatedBy:      adminID,
			IsActive:       true,
		})
	})

	createDTO := func(folderPath, level string) grant.CreateGrantDTO {
		return grant.CreateGrantDTO{
			ProfileID:       profileID,
			FolderPath:      folderPath,
			PermissionLevel: level,
			OrganizationID:  orgID,
		}
	}

	Describe("CreateGrant", func() {
		It("should create a grant for an active profile", func() {
			resp, err := service.CreateGrant(adminID, createDTO("/documents/projects/", "edit"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.FolderPath).To(Equal("/documents/projects"))
			Expect(resp.PermissionLevel).To(Equal("edit"))
			Expect(resp.IsActive).To(BeTrue())
			Expect(resp.AllowedActions).To(ContainElement("document:update"))
		})

		It("should reject an unknown permission level", func() {
			_, err := service.CreateGrant(adminID, createDTO("/documents/projects", "owner"))
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidPermissionLevel))
		})

		It("should reject an unknown profile", func() {
			dto := createDTO("/documents/projects", "read")
			dto.ProfileID = uuid.New()
			_, err := service.CreateGrant(adminID, dto)
			Expect(err).To(MatchError(internal.ErrProfileNotFound))
		})

		It("should reject an inactive profile", func() {
			inactiveID := uuid.New()
			mockProfiles.AddProfile(&profileDatamodel.Profile{
				ID:             inactiveID,
				Name:           "Suspended",
				OrganizationID: orgID,
				IsActive:       false,
			})
			dto := createDTO("/documents/projects", "read")
			dto.ProfileID = inactiveID
			_, err := service.CreateGrant(adminID, dto)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeProfileInactive))
		})

		It("should reject an organization mismatch", func() {
			dto := createDTO("/documents/projects", "read")
			dto.OrganizationID = uuid.New()
			_, err := service.CreateGrant(adminID, dto)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeOrganizationMismatch))
		})

		It("should reject overlapping paths on the same profile and name the conflicts", func() {
			first, err := service.CreateGrant(adminID, createDTO("/documents/projects", "read"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateGrant(adminID, createDTO("/documents/projects/2026", "full"))
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeGrantConflict))

			details, ok := appErr.Details.(internal.ConflictDetails)
			Expect(ok).To(BeTrue())
			Expect(details.ConflictingIDs).To(ConsistOf(first.ID.String()))
		})

		It("should allow overlap with a deactivated grant", func() {
			resp, err := service.CreateGrant(adminID, createDTO("/documents/projects", "read"))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.DeactivateGrant(resp.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateGrant(adminID, createDTO("/documents/projects/2026", "full"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should allow disjoint subtrees on the same profile", func() {
			_, err := service.CreateGrant(adminID, createDTO("/documents/projects", "read"))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateGrant(adminID, createDTO("/documents/invoices", "full"))
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("UpdateGrant", func() {
		It("should change the permission level", func() {
			created, err := service.CreateGrant(adminID, createDTO("/documents/projects", "read"))
			Expect(err).NotTo(HaveOccurred())

			level := "full"
			updated, err := service.UpdateGrant(created.ID, grant.UpdateGrantDTO{PermissionLevel: &level})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.PermissionLevel).To(Equal("full"))
			Expect(updated.AllowedActions).To(ContainElement("folder:create"))
		})

		It("should detect conflicts on a moved path", func() {
			_, err := service.CreateGrant(adminID, createDTO("/documents/projects", "read"))
			Expect(err).NotTo(HaveOccurred())
			other, err := service.CreateGrant(adminID, createDTO("/documents/invoices", "read"))
			Expect(err).NotTo(HaveOccurred())

			path := "/documents/projects/2026"
			_, err = service.UpdateGrant(other.ID, grant.UpdateGrantDTO{FolderPath: &path})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeGrantConflict))
		})

		It("should detect conflicts when reactivating into an overlap", func() {
			first, err := service.CreateGrant(adminID, createDTO("/documents/projects", "read"))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.DeactivateGrant(first.ID)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateGrant(adminID, createDTO("/documents/projects/2026", "full"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ReactivateGrant(first.ID)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeGrantConflict))
		})

		It("should return not found for an unknown grant", func() {
			_, err := service.UpdateGrant(uuid.New(), grant.UpdateGrantDTO{})
			Expect(err).To(MatchError(internal.ErrGrantNotFound))
		})
	})

	Describe("GetGrantsForProfile", func() {
		It("should filter to active grants when asked", func() {
			a, err := service.CreateGrant(adminID, createDTO("/documents/projects", "read"))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateGrant(adminID, createDTO("/documents/invoices", "read"))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.DeactivateGrant(a.ID)
			Expect(err).NotTo(HaveOccurred())

			all, err := service.GetGrantsForProfile(profileID, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))

			active, err := service.GetGrantsForProfile(profileID, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(HaveLen(1))
			Expect(active[0].FolderPath).To(Equal("/documents/invoices"))
		})
	})

	Describe("DeleteGrant", func() {
		It("should remove the grant", func() {
			created, err := service.CreateGrant(adminID, createDTO("/documents/projects", "read"))
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeleteGrant(created.ID)).To(Succeed())
			_, err = service.GetGrant(created.ID)
			Expect(err).To(MatchError(internal.ErrGrantNotFound))
		})

		It("should return not found for an unknown grant", func() {
			Expect(service.DeleteGrant(uuid.New())).To(MatchError(internal.ErrGrantNotFound))
		})
	})
})
