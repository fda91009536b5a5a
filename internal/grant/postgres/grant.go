package postgres

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docuvault/access-management/internal"
	grantDatamodel "github.com/docuvault/access-management/internal/core/datamodel/grant"
)

type GrantRepository struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) *GrantRepository {
	return &GrantRepository{db: db}
}

func (r *GrantRepository) Create(grant *grantDatamodel.FolderGrant) error {
	if err := r.db.Create(grant).Error; err != nil {
		if isUniqueViolation(err) {
			return internal.NewConflictError(
				"an active grant for this folder path already exists on the profile",
				internal.ErrCodeDuplicateGrant, nil)
		}
		return err
	}
	return nil
}

func (r *GrantRepository) GetByID(id uuid.UUID) (*grantDatamodel.FolderGrant, error) {
	var grant grantDatamodel.FolderGrant
	err := r.db.Where("id = ?", id).First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrGrantNotFound
		}
		return nil, err
	}
	return &grant, nil
}

func (r *GrantRepository) GetByProfileID(profileID uuid.UUID) ([]*grantDatamodel.FolderGrant, error) {
	var grants []*grantDatamodel.FolderGrant
	err := r.db.Where("profile_id = ?", profileID).
		Order("folder_path ASC").
		Find(&grants).Error
	return grants, err
}

func (r *GrantRepository) GetActiveByProfileID(profileID uuid.UUID) ([]*grantDatamodel.FolderGrant, error) {
	var grants []*grantDatamodel.FolderGrant
	err := r.db.Where("profile_id = ? AND is_active = ?", profileID, true).
		Order("folder_path ASC").
		Find(&grants).Error
	return grants, err
}

func (r *GrantRepository) GetByOrganizationID(organizationID uuid.UUID) ([]*grantDatamodel.FolderGrant, error) {
	var grants []*grantDatamodel.FolderGrant
	err := r.db.Where("organization_id = ?", organizationID).
		Order("folder_path ASC").
		Find(&grants).Error
	return grants, err
}

func (r *GrantRepository) Update(grant *grantDatamodel.FolderGrant) error {
	now := time.Now()
	grant.UpdatedAt = &now
	if err := r.db.Save(grant).Error; err != nil {
		if isUniqueViolation(err) {
			return internal.NewConflictError(
				"an active grant for this folder path already exists on the profile",
				internal.ErrCodeDuplicateGrant, nil)
		}
		return err
	}
	return nil
}

func (r *GrantRepository) Delete(id uuid.UUID) error {
	result := r.db.Where("id = ?", id).Delete(&grantDatamodel.FolderGrant{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrGrantNotFound
	}
	return nil
}

func (r *GrantRepository) DeleteByProfileID(profileID uuid.UUID) error {
	return r.db.Where("profile_id = ?", profileID).Delete(&grantDatamodel.FolderGrant{}).Error
}

// isUniqueViolation matches both the postgres error class and the sqlite
// message used by the repository test suites.
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
