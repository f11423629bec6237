package membership

import (
	"time"

	"github.com/trudslev/kofi-members/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the membership service and the
// expiry checker.
type Repository interface {
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	CreateUser(user *models.User) error
	AddUserRole(userID uint, role string) error
	RemoveUserRole(userID uint, role string) error
	UserHasRole(userID uint, role string) (bool, error)
	UpsertRoleGrant(userID uint, role string, grantedAt time.Time) error
	DeleteRoleGrant(userID uint) error
	ListRoleGrants() ([]models.RoleGrant, error)
	CreateUserLog(entry *models.UserLog) error
	CreateWebhookEvent(event *models.WebhookEvent) error
	MarkWebhookEventProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a membership repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Preload("Roles").Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.Preload("Roles").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *gormRepository) AddUserRole(userID uint, role string) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "role"},
		},
		DoNothing: true,
	}).Create(&models.UserRole{UserID: userID, Role: role}).Error
}

func (r *gormRepository) RemoveUserRole(userID uint, role string) error {
	return r.db.Where("user_id = ? AND role = ?", userID, role).Delete(&models.UserRole{}).Error
}

func (r *gormRepository) UserHasRole(userID uint, role string) (bool, error) {
	var count int64
	err := r.db.Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) UpsertRoleGrant(userID uint, role string, grantedAt time.Time) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"role",
			"granted_at",
			"updated_at",
		}),
	}).Create(&models.RoleGrant{UserID: userID, Role: role, GrantedAt: grantedAt}).Error
}

func (r *gormRepository) DeleteRoleGrant(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.RoleGrant{}).Error
}

func (r *gormRepository) ListRoleGrants() ([]models.RoleGrant, error) {
	var grants []models.RoleGrant
	err := r.db.Order("id ASC").Find(&grants).Error
	return grants, err
}

func (r *gormRepository) CreateUserLog(entry *models.UserLog) error {
	return r.db.Create(entry).Error
}

func (r *gormRepository) CreateWebhookEvent(event *models.WebhookEvent) error {
	return r.db.Create(event).Error
}

func (r *gormRepository) MarkWebhookEventProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
