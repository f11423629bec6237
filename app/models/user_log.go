package models

import (
	"strconv"
	"time"

	"github.com/trudslev/kofi-members/internal/pkg/utils"
)

// Audit log action labels. These are stored verbatim and shown in the
// admin log viewer.
const (
	ActionUserCreated      = "User created"
	ActionRoleAssigned     = "Role assigned"
	ActionRoleRemoved      = "Role removed"
	ActionDonationReceived = "Donation received"
)

// UserLog is one append-only audit row. Rows are never updated; the only
// destructive operation is the admin clearing the whole table.
type UserLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Action    string    `gorm:"type:varchar(50);not null;index" json:"action"`
	Role      *string   `gorm:"type:varchar(50);default:null" json:"role,omitempty"`
	Amount    *float64  `gorm:"type:decimal(10,2);default:null" json:"amount,omitempty"`
	Currency  *string   `gorm:"type:varchar(10);default:null" json:"currency,omitempty"`
	Timestamp time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

// RoleOrEmpty returns the role column for display, empty when unset.
func (l UserLog) RoleOrEmpty() string {
	if l.Role == nil {
		return ""
	}
	return *l.Role
}

// AvatarURL returns the Gravatar for the row's email, sized for the log
// viewer.
func (l UserLog) AvatarURL() string {
	return utils.GetGravatarURL(l.Email, 32)
}

// AmountDisplay formats the amount column for the log viewer, empty when
// the row carries no amount.
func (l UserLog) AmountDisplay() string {
	if l.Amount == nil {
		return ""
	}
	s := strconv.FormatFloat(*l.Amount, 'f', 2, 64)
	if l.Currency != nil && *l.Currency != "" {
		s += " " + *l.Currency
	}
	return s
}
