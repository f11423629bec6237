package models

import "time"

// RoleGrant records which role a donation most recently granted to a user
// and when. Role and timestamp live in one row so they are written and
// deleted atomically; a grant without a timestamp (or vice versa) cannot
// exist.
type RoleGrant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Role      string    `gorm:"type:varchar(50);not null" json:"role"`
	GrantedAt time.Time `gorm:"not null;index" json:"granted_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ExpiresAt returns the moment the grant lapses for the given expiry
// window. The window counts calendar days, not a fixed number of seconds.
func (g *RoleGrant) ExpiresAt(expiryDays int) time.Time {
	return g.GrantedAt.AddDate(0, 0, expiryDays)
}

// Expired reports whether the grant has lapsed at the given time. A zero
// day window means a grant is expired the moment it lies in the past.
func (g *RoleGrant) Expired(expiryDays int, now time.Time) bool {
	return now.After(g.ExpiresAt(expiryDays))
}
