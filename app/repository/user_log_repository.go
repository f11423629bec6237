package repository

import (
	"github.com/trudslev/kofi-members/app/models"
	"gorm.io/gorm"
)

// userLogRepository implements the UserLogRepository interface
type userLogRepository struct {
	db *gorm.DB
}

// NewUserLogRepository creates a new audit log repository instance
func NewUserLogRepository(db *gorm.DB) UserLogRepository {
	return &userLogRepository{db: db}
}

func (r *userLogRepository) Create(entry *models.UserLog) error {
	return r.db.Create(entry).Error
}

// List returns one page of audit entries, newest first. A non-empty search
// term filters on email, action and role.
func (r *userLogRepository) List(offset, limit int, search string) ([]models.UserLog, error) {
	var entries []models.UserLog
	err := r.searchScope(search).
		Order("timestamp DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// Count returns the number of audit entries matching the search term.
func (r *userLogRepository) Count(search string) (int64, error) {
	var count int64
	err := r.searchScope(search).Count(&count).Error
	return count, err
}

// Clear removes all audit entries.
func (r *userLogRepository) Clear() error {
	return r.db.Where("1 = 1").Delete(&models.UserLog{}).Error
}

// TableExists reports whether the audit table has been migrated yet.
func (r *userLogRepository) TableExists() (bool, error) {
	return r.db.Migrator().HasTable(&models.UserLog{}), nil
}

func (r *userLogRepository) searchScope(search string) *gorm.DB {
	query := r.db.Model(&models.UserLog{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("email LIKE ? OR action LIKE ? OR role LIKE ?", like, like, like)
	}
	return query
}
