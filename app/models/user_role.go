package models

import "time"

// UserRole is a single role held by a user. Roles are additive: granting a
// new role never removes the ones already held.
type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:ux_user_roles_user_role,unique,priority:1;index" json:"user_id"`
	Role      string    `gorm:"type:varchar(50);not null;index:ux_user_roles_user_role,unique,priority:2" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
