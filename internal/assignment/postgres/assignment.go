package postgres

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docuvault/access-management/internal"
	assignmentDatamodel "github.com/docuvault/access-management/internal/core/datamodel/assignment"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(assignment *assignmentDatamodel.Assignment) error {
	if err := r.db.Create(assignment).Error; err != nil {
		if isUniqueViolation(err) {
			return internal.NewConflictError(
				"user already holds an active assignment for this profile",
				internal.ErrCodeDuplicateAssignment, nil)
		}
		return err
	}
	return nil
}

func (r *AssignmentRepository) GetByID(id uuid.UUID) (*assignmentDatamodel.Assignment, error) {
	var assignment assignmentDatamodel.Assignment
	err := r.db.Where("id = ?", id).First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAssignmentNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepository) GetByUserID(userID uuid.UUID) ([]*assignmentDatamodel.Assignment, error) {
	var assignments []*assignmentDatamodel.Assignment
	err := r.db.Where("user_id = ?", userID).
		Order("assigned_at DESC").
		Find(&assignments).Error
	return assignments, err
}

func (r *AssignmentRepository) GetActiveByUserID(userID uuid.UUID) ([]*assignmentDatamodel.Assignment, error) {
	var assignments []*assignmentDatamodel.Assignment
	err := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("assigned_at DESC").
		Find(&assignments).Error
	return assignments, err
}

func (r *AssignmentRepository) GetByOrganizationID(organizationID uuid.UUID) ([]*assignmentDatamodel.Assignment, error) {
	var assignments []*assignmentDatamodel.Assignment
	err := r.db.Where("organization_id = ?", organizationID).
		Order("assigned_at DESC").
		Find(&assignments).Error
	return assignments, err
}

func (r *AssignmentRepository) GetByProfileID(profileID uuid.UUID) ([]*assignmentDatamodel.Assignment, error) {
	var assignments []*assignmentDatamodel.Assignment
	err := r.db.Where("profile_id = ?", profileID).
		Order("assigned_at DESC").
		Find(&assignments).Error
	return assignments, err
}

func (r *AssignmentRepository) GetActiveByUserAndProfile(userID, profileID uuid.UUID) (*assignmentDatamodel.Assignment, error) {
	var assignment assignmentDatamodel.Assignment
	err := r.db.Where("user_id = ? AND profile_id = ? AND is_active = ?", userID, profileID, true).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAssignmentNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepository) CountActiveByProfileID(profileID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&assignmentDatamodel.Assignment{}).
		Where("profile_id = ? AND is_active = ?", profileID, true).
		Count(&count).Error
	return count, err
}

func (r *AssignmentRepository) Update(assignment *assignmentDatamodel.Assignment) error {
	if err := r.db.Save(assignment).Error; err != nil {
		if isUniqueViolation(err) {
			return internal.NewConflictError(
				"user already holds an active assignment for this profile",
				internal.ErrCodeDuplicateAssignment, nil)
		}
		return err
	}
	return nil
}

func (r *AssignmentRepository) Delete(id uuid.UUID) error {
	result := r.db.Where("id = ?", id).Delete(&assignmentDatamodel.Assignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrAssignmentNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
