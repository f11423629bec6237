package repository

import (
	"github.com/trudslev/kofi-members/app/models"
	"gorm.io/gorm"
)

// settingRepository implements the SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository instance
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) GetOptions() (*models.Options, error) {
	return models.LoadOptions(r.db)
}

func (r *settingRepository) SaveOptions(opts *models.Options) error {
	return models.SaveOptions(r.db, opts)
}
