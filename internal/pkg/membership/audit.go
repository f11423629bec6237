package membership

import (
	"github.com/trudslev/kofi-members/app/models"
)

// AuditLogger appends user-facing actions to the audit table. It is
// distinct from the diagnostic logger: every call writes a row, there is
// no level filtering.
type AuditLogger struct {
	repo Repository
}

// NewAuditLogger creates an audit logger on top of a repository.
func NewAuditLogger(repo Repository) *AuditLogger {
	return &AuditLogger{repo: repo}
}

// LogAction records an arbitrary action row.
func (a *AuditLogger) LogAction(userID uint, email, action string, role *string, amount *float64, currency *string) error {
	return a.repo.CreateUserLog(&models.UserLog{
		UserID:   userID,
		Email:    email,
		Action:   action,
		Role:     role,
		Amount:   amount,
		Currency: currency,
	})
}

// LogUserCreated records that a webhook created a new account.
func (a *AuditLogger) LogUserCreated(userID uint, email string) error {
	return a.LogAction(userID, email, models.ActionUserCreated, nil, nil, nil)
}

// LogRoleAssignment records a role being granted.
func (a *AuditLogger) LogRoleAssignment(userID uint, email, role string) error {
	return a.LogAction(userID, email, models.ActionRoleAssigned, &role, nil, nil)
}

// LogRoleRemoval records a role being revoked by the expiry sweep.
func (a *AuditLogger) LogRoleRemoval(userID uint, email, role string) error {
	return a.LogAction(userID, email, models.ActionRoleRemoved, &role, nil, nil)
}

// LogDonation records an accepted donation.
func (a *AuditLogger) LogDonation(userID uint, email string, amount float64, currency string) error {
	return a.LogAction(userID, email, models.ActionDonationReceived, nil, &amount, &currency)
}
