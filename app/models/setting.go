package models

import (
	"fmt"
	"strconv"

	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Setting is a single key-value configuration record.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TierRole is one ordered tier-to-role pair.
type TierRole struct {
	Tier string `json:"tier"`
	Role string `json:"role"`
}

// Options is the plugin configuration read on every webhook, sweep and
// admin invocation. It is loaded fresh per invocation and passed into the
// handlers explicitly; there is no process-global settings state.
type Options struct {
	VerificationToken string     `json:"verification_token"`
	OnlySubscriptions bool       `json:"only_subscriptions"`
	TierRoleMap       []TierRole `json:"tier_role_map"`
	DefaultRole       string     `json:"default_role"`
	EnableExpiry      bool       `json:"enable_expiry"`
	RoleExpiryDays    int        `json:"role_expiry_days" validate:"gte=0"`
	LogEnabled        bool       `json:"log_enabled"`
	LogLevel          string     `json:"log_level"`
}

// DefaultOptions returns the configuration written on first boot.
func DefaultOptions() *Options {
	return &Options{
		VerificationToken: "",
		OnlySubscriptions: true,
		TierRoleMap:       nil,
		DefaultRole:       "",
		EnableExpiry:      true,
		RoleExpiryDays:    35,
		LogEnabled:        false,
		LogLevel:          "info",
	}
}

// Validate validates the options
func (o *Options) Validate() error {
	validate := validator.New()
	return validate.Struct(o)
}

// LoadOptions reads the configuration record and the ordered tier map from
// the database. Missing keys fall back to their defaults.
func LoadOptions(db *gorm.DB) (*Options, error) {
	opts := DefaultOptions()

	var settings []Setting
	if err := db.Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	for _, setting := range settings {
		switch setting.Key {
		case "verification_token":
			opts.VerificationToken = setting.Value
		case "only_subscriptions":
			opts.OnlySubscriptions = setting.Value == "true"
		case "default_role":
			opts.DefaultRole = setting.Value
		case "enable_expiry":
			opts.EnableExpiry = setting.Value == "true"
		case "role_expiry_days":
			if v, err := strconv.Atoi(setting.Value); err == nil {
				opts.RoleExpiryDays = v
			}
		case "log_enabled":
			opts.LogEnabled = setting.Value == "true"
		case "log_level":
			opts.LogLevel = setting.Value
		}
	}

	var mappings []TierRoleMapping
	if err := db.Order("position ASC").Find(&mappings).Error; err != nil {
		return nil, fmt.Errorf("failed to load tier mappings: %w", err)
	}
	for _, m := range mappings {
		opts.TierRoleMap = append(opts.TierRoleMap, TierRole{Tier: m.Tier, Role: m.Role})
	}

	return opts, nil
}

// SaveOptions persists the configuration record and replaces the tier map
// in a single transaction.
func SaveOptions(db *gorm.DB, opts *Options) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	settingsMap := map[string]string{
		"verification_token": opts.VerificationToken,
		"only_subscriptions": strconv.FormatBool(opts.OnlySubscriptions),
		"default_role":       opts.DefaultRole,
		"enable_expiry":      strconv.FormatBool(opts.EnableExpiry),
		"role_expiry_days":   strconv.Itoa(opts.RoleExpiryDays),
		"log_enabled":        strconv.FormatBool(opts.LogEnabled),
		"log_level":          opts.LogLevel,
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for key, value := range settingsMap {
			var setting Setting
			result := tx.Where("setting_key = ?", key).First(&setting)

			if result.Error != nil {
				if result.Error == gorm.ErrRecordNotFound {
					setting = Setting{
						Key:   key,
						Value: value,
						Type:  getSettingType(key),
					}
					if err := tx.Create(&setting).Error; err != nil {
						return fmt.Errorf("failed to create setting %s: %w", key, err)
					}
				} else {
					return fmt.Errorf("failed to query setting %s: %w", key, result.Error)
				}
			} else {
				setting.Value = value
				if err := tx.Save(&setting).Error; err != nil {
					return fmt.Errorf("failed to update setting %s: %w", key, err)
				}
			}
		}

		// The tier map is replaced wholesale so stored order always matches
		// the submitted order.
		if err := tx.Where("1 = 1").Delete(&TierRoleMapping{}).Error; err != nil {
			return fmt.Errorf("failed to clear tier mappings: %w", err)
		}
		for i, pair := range opts.TierRoleMap {
			m := TierRoleMapping{Tier: pair.Tier, Role: pair.Role, Position: i}
			if err := tx.Create(&m).Error; err != nil {
				return fmt.Errorf("failed to create tier mapping %s: %w", pair.Tier, err)
			}
		}
		return nil
	})
}

// getSettingType returns the type of a setting based on its key
func getSettingType(key string) string {
	switch key {
	case "only_subscriptions", "enable_expiry", "log_enabled":
		return "boolean"
	case "role_expiry_days":
		return "integer"
	default:
		return "string"
	}
}
