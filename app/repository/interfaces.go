package repository

import (
	"github.com/trudslev/kofi-members/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Count() (int64, error)
}

// UserLogRepository defines the interface for audit log database operations
type UserLogRepository interface {
	Create(entry *models.UserLog) error
	List(offset, limit int, search string) ([]models.UserLog, error)
	Count(search string) (int64, error)
	Clear() error
	TableExists() (bool, error)
}

// SettingRepository defines the interface for plugin settings storage
type SettingRepository interface {
	GetOptions() (*models.Options, error)
	SaveOptions(opts *models.Options) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	UserLog UserLogRepository
	Setting SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		UserLog: NewUserLogRepository(db),
		Setting: NewSettingRepository(db),
	}
}
