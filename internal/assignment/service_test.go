package assignment_test

import (
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docuvault/access-management/internal"
	"github.com/docuvault/access-management/internal/assignment"
	assignmentDatamodel "github.com/docuvault/access-management/internal/core/datamodel/assignment"
	profileDatamodel "github.com/docuvault/access-management/internal/core/datamodel/profile"
)

// MockRepository implements assignment.RepositoryAPI for testing
type MockRepository struct {
	assignments map[uuid.UUID]*assignmentDatamodel.Assignment
}

func NewMockRepository() *MockRepository {
	return &MockRepository{assignments: make(map[uuid.UUID]*assignmentDatamodel.Assignment)}
}

func (m *MockRepository) Create(a *assignmentDatamodel.Assignment) error {
	m.assignments[a.ID] = a
	return nil
}

func (m *MockRepository) GetByID(id uuid.UUID) (*assignmentDatamodel.Assignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return nil, internal.ErrAssignmentNotFound
	}
	return a, nil
}

func (m *MockRepository) GetByUserID(userID uuid.UUID) ([]*assignmentDatamodel.Assignment, error) {
	var result []*assignmentDatamodel.Assignment
	for _, a := range m.assignments {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *MockRepository) GetActiveByUserID(userID uuid.UUID) ([]*assignmentDatamodel.Assignment, error) {
	var result []*assignmentDatamodel.Assignment
	for _, a := range m.assignments {
		if a.UserID == userID && a.IsActive {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *MockRepository) GetByProfileID(profileID uuid.UUID) ([]*assignmentDatamodel.Assignment, error) {
	var result []*assignmentDatamodel.Assignment
	for _, a := range m.assignments {
		if a.ProfileID == profileID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *MockRepository) GetByOrganizationID(organizationID uuid.UUID) ([]*assignmentDatamodel.Assignment, error) {
	var result []*assignmentDatamodel.Assignment
	for _, a := range m.assignments {
		if a.OrganizationID == organizationID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *MockRepository) GetActiveByUserAndProfile(userID, profileID uuid.UUID) (*assignmentDatamodel.Assignment, error) {
	for _, a := range m.assignments {
		if a.UserID == userID && a.ProfileID == profileID && a.IsActive {
			return a, nil
		}
	}
	return nil, internal.ErrAssignmentNotFound
}

func (m *MockRepository) CountActiveByProfileID(profileID uuid.UUID) (int64, error) {
	var count int64
	for _, a := range m.assignments {
		if a.ProfileID == profileID && a.IsActive {
			count++
		}
	}
	return count, nil
}

func (m *MockRepository) Update(a *assignmentDatamodel.Assignment) error {
	m.assignments[a.ID] = a
	return nil
}

func (m *MockRepository) Delete(id uuid.UUID) error {
	delete(m.assignments, id)
	return nil
}

// MockProfileAPI implements assignment.ProfileAPI for testing
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

var _ = Describe("Assignment Service", func() {
	var (
		mockRepo     *MockRepository
		mockProfiles *MockProfileAPI
		service      *assignment.Service

		userID    uuid.UUID
		profileID uuid.UUID
		orgID     uuid.UUID
		adminID   uuid.UUID
	)

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		mockProfiles = NewMockProfileAPI()
		testLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = assignment.NewService(mockRepo, mockProfiles, testLogger)

		userID = uuid.New()
		profileID = uuid.New()
		orgID = uuid.New()
		adminID = uuid.New()

		mockProfiles.AddProfile(&profileDatamodel.Profile{
			ID:             profileID,
			Name:           "Engineering",
			OrganizationID: orgID,
			IsActive:       true,
		})
	})

	createDTO := func() assignment.CreateAssignmentDTO {
		return assignment.CreateAssignmentDTO{
			UserID:         userID,
			ProfileID:      profileID,
			OrganizationID: orgID,
		}
	}

	Describe("AssignProfile", func() {
		It("should assign a profile to a user", func() {
			resp, err := service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.UserID).To(Equal(userID))
			Expect(resp.IsValid).To(BeTrue())
			Expect(resp.AssignedBy).To(Equal(adminID))
		})

		It("should reject a duplicate active assignment", func() {
			first, err := service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AssignProfile(adminID, createDTO())
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateAssignment))

			details, ok := appErr.Details.(internal.ConflictDetails)
			Expect(ok).To(BeTrue())
			Expect(details.ConflictingIDs).To(ConsistOf(first.ID.String()))
		})

		It("should allow a new assignment once the old one is revoked", func() {
			first, err := service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = service.RevokeAssignment(first.ID, adminID, "rotation")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject an inactive profile", func() {
			inactiveID := uuid.New()
			mockProfiles.AddProfile(&profileDatamodel.Profile{
				ID:             inactiveID,
				OrganizationID: orgID,
				IsActive:       false,
			})
			dto := createDTO()
			dto.ProfileID = inactiveID

			_, err := service.AssignProfile(adminID, dto)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeProfileInactive))
		})

		It("should reject an organization mismatch", func() {
			dto := createDTO()
			dto.OrganizationID = uuid.New()

			_, err := service.AssignProfile(adminID, dto)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeOrganizationMismatch))
		})

		It("should reject a past expiration", func() {
			dto := createDTO()
			past := time.Now().UTC().Add(-time.Hour)
			dto.ExpiresAt = &past

			_, err := service.AssignProfile(adminID, dto)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeExpirationNotFuture))
		})
	})

	Describe("RevokeAssignment", func() {
		It("should revoke and keep the audit trail", func() {
			created, err := service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())

			revoked, err := service.RevokeAssignment(created.ID, adminID, "off the project")
			Expect(err).NotTo(HaveOccurred())
			Expect(revoked.IsActive).To(BeFalse())
			Expect(*revoked.RevokedBy).To(Equal(adminID))
			Expect(*revoked.Notes).To(ContainSubstring("Revoked: off the project"))
		})

		It("should refuse a second revocation", func() {
			created, err := service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = service.RevokeAssignment(created.ID, adminID, "first")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RevokeAssignment(created.ID, adminID, "second")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeAssignmentAlreadyRevoked))
		})
	})

	Describe("ReactivateAssignment", func() {
		It("should restore a revoked assignment", func() {
			created, err := service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = service.RevokeAssignment(created.ID, adminID, "mistake")
			Expect(err).NotTo(HaveOccurred())

			other := uuid.New()
			restored, err := service.ReactivateAssignment(created.ID, other)
			Expect(err).NotTo(HaveOccurred())
			Expect(restored.IsActive).To(BeTrue())
			Expect(restored.RevokedAt).To(BeNil())
			Expect(restored.AssignedBy).To(Equal(other))
		})

		It("should refuse when another active assignment exists for the profile", func() {
			created, err := service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = service.RevokeAssignment(created.ID, adminID, "rotation")
			Expect(err).NotTo(HaveOccurred())
			_, err = service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ReactivateAssignment(created.ID, adminID)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateAssignment))
		})
	})

	Describe("DeactivateAssignment and ActivateAssignment", func() {
		It("should suspend and restore without touching the assignment stamp", func() {
			created, err := service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())

			suspended, err := service.DeactivateAssignment(created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(suspended.IsActive).To(BeFalse())
			Expect(suspended.RevokedAt).To(BeNil())

			restored, err := service.ActivateAssignment(created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(restored.IsActive).To(BeTrue())
			Expect(restored.AssignedAt).To(Equal(created.AssignedAt))
			Expect(restored.AssignedBy).To(Equal(created.AssignedBy))
		})

		It("should accept deactivating an already inactive assignment", func() {
			created, err := service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = service.DeactivateAssignment(created.ID)
			Expect(err).NotTo(HaveOccurred())

			again, err := service.DeactivateAssignment(created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.IsActive).To(BeFalse())
		})

		It("should refuse activation when another active assignment exists for the profile", func() {
			created, err := service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = service.DeactivateAssignment(created.ID)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ActivateAssignment(created.ID)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateAssignment))
		})
	})

	Describe("ChangeAssignmentProfile", func() {
		It("should move the assignment to another profile", func() {
			created, err := service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())

			newProfileID := uuid.New()
			mockProfiles.AddProfile(&profileDatamodel.Profile{
				ID:             newProfileID,
				OrganizationID: orgID,
				IsActive:       true,
			})

			changed, err := service.ChangeAssignmentProfile(created.ID, adminID, assignment.ChangeProfileDTO{ProfileID: newProfileID})
			Expect(err).NotTo(HaveOccurred())
			Expect(changed.ProfileID).To(Equal(newProfileID))
		})

		It("should refuse a cross-organization move", func() {
			created, err := service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())

			foreignID := uuid.New()
			mockProfiles.AddProfile(&profileDatamodel.Profile{
				ID:             foreignID,
				OrganizationID: uuid.New(),
				IsActive:       true,
			})

			_, err = service.ChangeAssignmentProfile(created.ID, adminID, assignment.ChangeProfileDTO{ProfileID: foreignID})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeOrganizationMismatch))
		})
	})

	Describe("ExtendAssignment", func() {
		It("should move the expiry out", func() {
			dto := createDTO()
			soon := time.Now().UTC().AddDate(0, 0, 5)
			dto.ExpiresAt = &soon
			created, err := service.AssignProfile(adminID, dto)
			Expect(err).NotTo(HaveOccurred())

			later := time.Now().UTC().AddDate(0, 0, 90)
			extended, err := service.ExtendAssignment(created.ID, assignment.ExtendAssignmentDTO{ExpiresAt: &later})
			Expect(err).NotTo(HaveOccurred())
			Expect(extended.ExpiringSoon).To(BeFalse())
		})

		It("should remove the expiry when none is given", func() {
			dto := createDTO()
			soon := time.Now().UTC().AddDate(0, 0, 5)
			dto.ExpiresAt = &soon
			created, err := service.AssignProfile(adminID, dto)
			Expect(err).NotTo(HaveOccurred())

			open, err := service.ExtendAssignment(created.ID, assignment.ExtendAssignmentDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(open.ExpiresAt).To(BeNil())
		})
	})

	Describe("GetExpiringAssignments", func() {
		It("should return only assignments inside the window", func() {
			dto := createDTO()
			soon := time.Now().UTC().AddDate(0, 0, 3)
			dto.ExpiresAt = &soon
			_, err := service.AssignProfile(adminID, dto)
			Expect(err).NotTo(HaveOccurred())

			otherProfile := uuid.New()
			mockProfiles.AddProfile(&profileDatamodel.Profile{
				ID:             otherProfile,
				OrganizationID: orgID,
				IsActive:       true,
			})
			far := createDTO()
			far.ProfileID = otherProfile
			later := time.Now().UTC().AddDate(0, 0, 90)
			far.ExpiresAt = &later
			_, err = service.AssignProfile(adminID, far)
			Expect(err).NotTo(HaveOccurred())

			expiring, err := service.GetExpiringAssignments(userID, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(expiring).To(HaveLen(1))
		})
	})

	Describe("DeleteAssignment", func() {
		It("should delete a revoked assignment", func() {
			created, err := service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = service.RevokeAssignment(created.ID, adminID, "gone")
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeleteAssignment(created.ID)).To(Succeed())
			_, err = service.GetAssignment(created.ID)
			Expect(err).To(MatchError(internal.ErrAssignmentNotFound))
		})

		It("should refuse to delete a fresh active assignment", func() {
			created, err := service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())

			err = service.DeleteAssignment(created.ID)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeAssignmentNotDeletable))
		})

		It("should delete an active assignment past the retention window", func() {
			created, err := service.AssignProfile(adminID, createDTO())
			Expect(err).NotTo(HaveOccurred())

			dm, err := mockRepo.GetByID(created.ID)
			Expect(err).NotTo(HaveOccurred())
			dm.AssignedAt = time.Now().UTC().AddDate(0, 0, -(assignment.DeletionPolicyDays + 2))

			Expect(service.DeleteAssignment(created.ID)).To(Succeed())
		})
	})
})
