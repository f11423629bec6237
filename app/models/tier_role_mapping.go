package models

import "time"

// TierRoleMapping maps a Ko-fi tier name to an internal role key. Rows are
// ordered by Position; resolution walks them in that order and the first
// case-insensitive exact tier match wins.
type TierRoleMapping struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Tier      string    `gorm:"type:varchar(191);not null" json:"tier"`
	Role      string    `gorm:"type:varchar(50);not null" json:"role"`
	Position  int       `gorm:"not null;index" json:"position"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
