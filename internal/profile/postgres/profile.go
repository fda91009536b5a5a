package postgres

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docuvault/access-management/internal"
	profileDatamodel "github.com/docuvault/access-management/internal/core/datamodel/profile"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(profile *profileDatamodel.Profile) error {
	return r.db.Create(profile).Error
}

func (r *ProfileRepository) GetByID(id uuid.UUID) (*profileDatamodel.Profile, error) {
	var profile profileDatamodel.Profile
	err := r.db.Where("id = ?", id).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) GetByName(organizationID uuid.UUID, name string) (*profileDatamodel.Profile, error) {
	var profile profileDatamodel.Profile
	err := r.db.Where("organization_id = ? AND name = ?", organizationID, name).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) GetByOrganizationID(organizationID uuid.UUID, includeInactive bool) ([]*profileDatamodel.Profile, error) {
	query := r.db.Where("organization_id = ?", organizationID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var profiles []*profileDatamodel.Profile
	err := query.Order("name ASC").Find(&profiles).Error
	return profiles, err
}

func (r *ProfileRepository) Update(profile *profileDatamodel.Profile) error {
	now := time.Now()
	profile.UpdatedAt = &now
	return r.db.Save(profile).Error
}

func (r *ProfileRepository) Delete(id uuid.UUID) error {
	result := r.db.Where("id = ?", id).Delete(&profileDatamodel.Profile{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrProfileNotFound
	}
	return nil
}
