package profile_test

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docuvault/access-management/internal"
	profileDatamodel "github.com/docuvault/access-management/internal/core/datamodel/profile"
	"github.com/docuvault/access-management/internal/profile"
)

// MockRepository implements profile.RepositoryAPI for testing
type MockRepository struct {
	profiles   map[uuid.UUID]*profileDatamodel.Profile
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{profiles: make(map[uuid.UUID]*profileDatamodel.Profile)}
}

func (m *MockRepository) Create(p *profileDatamodel.Profile) error {
	if m.shouldFail {
		return m.failError
	}
	m.profiles[p.ID] = p
	return nil
}

func (m *MockRepository) GetByID(id uuid.UUID) (*profileDatamodel.Profile, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, internal.ErrProfileNotFound
	}
	return p, nil
}

func (m *MockRepository) GetByName(organizationID uuid.UUID, name string) (*profileDatamodel.Profile, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	for _, p := range m.profiles {
		if p.OrganizationID == organizationID && p.Name == name {
			return p, nil
		}
	}
	return nil, internal.ErrProfileNotFound
}

func (m *MockRepository) GetByOrganizationID(organizationID uuid.UUID, includeInactive bool) ([]*profileDatamodel.Profile, error) {
	if m.shouldFail {
		return nil, m.failError
	}
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

func (m *MockRepository) Update(p *profileDatamodel.Profile) error {
	if m.shouldFail {
		return m.failError
	}
	m.profiles[p.ID] = p
	return nil
}

func (m *MockRepository) Delete(id uuid.UUID) error {
	if m.shouldFail {
		return m.failError
	}
	delete(m.profiles, id)
	return nil
}

// MockAssignmentCounter implements profile.AssignmentCounter for testing
type MockAssignmentCounter struct {
	counts map[uuid.UUID]int64
}

func NewMockAssignmentCounter() *MockAssignmentCounter {
	return &MockAssignmentCounter{counts: make(map[uuid.UUID]int64)}
}

func (m *MockAssignmentCounter) CountActiveByProfileID(profileID uuid.UUID) (int64, error) {
	return m.counts[profileID], nil
}

// MockGrantRemover implements profile.GrantRemover for testing
type MockGrantRemover struct {
	removed []uuid.UUID
}

func (m *MockGrantRemover) DeleteByProfileID(profileID uuid.UUID) error {
	m.removed = append(m.removed, profileID)
	return nil
}

var _ = Describe("Profile Service", func() {
	var (
		mockRepo    *MockRepository
		mockCounter *MockAssignmentCounter
		mockGrants  *MockGrantRemover
		service     *profile.Service

		orgID   uuid.UUID
		adminID uuid.UUID
	)

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		mockCounter = NewMockAssignmentCounter()
		mockGrants = &MockGrantRemover{}
		testLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = profile.NewService(mockRepo, mockCounter, mockGrants, testLogger)

		orgID = uuid.New()
		adminID = uuid.New()
	})

	createDTO := func(name string) profile.CreateProfileDTO {
		return profile.CreateProfileDTO{
			Name:           name,
			Description:    "test profile",
			OrganizationID: orgID,
		}
	}

	Describe("CreateProfile", func() {
		It("should create a profile", func() {
			resp, err := service.CreateProfile(adminID, createDTO("Engineering"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Name).To(Equal("Engineering"))
			Expect(resp.IsActive).To(BeTrue())
			Expect(resp.IsSystemProfile).To(BeFalse())
		})

		It("should reject a duplicate name within the organization", func() {
			first, err := service.CreateProfile(adminID, createDTO("Engineering"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateProfile(adminID, createDTO("Engineering"))
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateProfileName))

			details, ok := appErr.Details.(internal.ConflictDetails)
			Expect(ok).To(BeTrue())
			Expect(details.ConflictingIDs).To(ConsistOf(first.ID.String()))
		})

		It("should allow the same name in a different organization", func() {
			_, err := service.CreateProfile(adminID, createDTO("Engineering"))
			Expect(err).NotTo(HaveOccurred())

			dto := createDTO("Engineering")
			dto.OrganizationID = uuid.New()
			_, err = service.CreateProfile(adminID, dto)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject an invalid name", func() {
			_, err := service.CreateProfile(adminID, createDTO("bad/name"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("UpdateProfile", func() {
		It("should rename a profile", func() {
			created, err := service.CreateProfile(adminID, createDTO("Engineering"))
			Expect(err).NotTo(HaveOccurred())

			name := "Platform"
			updated, err := service.UpdateProfile(created.ID, profile.UpdateProfileDTO{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Platform"))
			Expect(updated.UpdatedAt).NotTo(BeNil())
		})

		It("should reject renaming onto an existing name", func() {
			_, err := service.CreateProfile(adminID, createDTO("Engineering"))
			Expect(err).NotTo(HaveOccurred())
			other, err := service.CreateProfile(adminID, createDTO("Sales"))
			Expect(err).NotTo(HaveOccurred())

			name := "Engineering"
			_, err = service.UpdateProfile(other.ID, profile.UpdateProfileDTO{Name: &name})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateProfileName))
		})

		It("should refuse to modify a system profile", func() {
			created, err := service.CreateSystemProfile(adminID, orgID, "Default Access", "Baseline access")
			Expect(err).NotTo(HaveOccurred())

			name := "Renamed"
			_, err = service.UpdateProfile(created.ID, profile.UpdateProfileDTO{Name: &name})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeSystemProfileImmutable))
		})
	})

	Describe("DeleteProfile", func() {
		It("should delete a profile and cascade its grants", func() {
			created, err := service.CreateProfile(adminID, createDTO("Engineering"))
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeleteProfile(created.ID)).To(Succeed())
			Expect(mockGrants.removed).To(ConsistOf(created.ID))
			_, err = service.GetProfile(created.ID)
			Expect(err).To(MatchError(internal.ErrProfileNotFound))
		})

		It("should refuse to delete a system profile", func() {
			created, err := service.CreateSystemProfile(adminID, orgID, "Default Access", "Baseline access")
			Expect(err).NotTo(HaveOccurred())

			err = service.DeleteProfile(created.ID)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeSystemProfileImmutable))
		})

		It("should refuse to delete a profile with active assignments", func() {
			created, err := service.CreateProfile(adminID, createDTO("Engineering"))
			Expect(err).NotTo(HaveOccurred())
			mockCounter.counts[created.ID] = 2

			err = service.DeleteProfile(created.ID)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeProfileHasAssignments))
			Expect(mockGrants.removed).To(BeEmpty())
		})
	})

	Describe("GetProfilesForOrganization", func() {
		It("should filter inactive profiles by default", func() {
			first, err := service.CreateProfile(adminID, createDTO("Engineering"))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateProfile(adminID, createDTO("Sales"))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.DeactivateProfile(first.ID)
			Expect(err).NotTo(HaveOccurred())

			active, err := service.GetProfilesForOrganization(orgID, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(HaveLen(1))
			Expect(active[0].Name).To(Equal("Sales"))

			all, err := service.GetProfilesForOrganization(orgID, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
		})
	})
})
