package expiry

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/trudslev/kofi-members/app/models"
	"github.com/trudslev/kofi-members/internal/pkg/membership"
)

// Checker removes roles whose grants have aged past the configured
// expiry window.
type Checker struct {
	repo  membership.Repository
	audit *membership.AuditLogger
	log   *logrus.Logger
	now   func() time.Time
}

// NewChecker creates an expiry checker.
func NewChecker(repo membership.Repository, log *logrus.Logger) *Checker {
	return &Checker{
		repo:  repo,
		audit: membership.NewAuditLogger(repo),
		log:   log,
		now:   time.Now,
	}
}

// RemoveExpiredRoles walks all role grants and revokes the ones older than
// the expiry window. A zero-day window expires every grant stamped in the
// past; only the feature flag disables the sweep. Per-grant failures are
// logged and the sweep continues; the first error is returned at the end.
func (c *Checker) RemoveExpiredRoles(opts *models.Options) error {
	if !opts.EnableExpiry {
		c.log.Debug("Role expiry disabled, skipping sweep")
		return nil
	}

	grants, err := c.repo.ListRoleGrants()
	if err != nil {
		return err
	}

	now := c.now()
	var firstErr error
	removed := 0
	for _, grant := range grants {
		if !grant.Expired(opts.RoleExpiryDays, now) {
			continue
		}
		if err := c.expireGrant(grant); err != nil {
			c.log.WithFields(logrus.Fields{
				"user_id": grant.UserID,
				"role":    grant.Role,
				"error":   err.Error(),
			}).Error("Failed to expire role grant")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}

	c.log.WithFields(logrus.Fields{
		"checked": len(grants),
		"removed": removed,
	}).Info("Role expiry sweep finished")
	return firstErr
}

// expireGrant revokes one aged grant. When the user no longer holds the
// role, or no longer exists, the grant row is dropped silently without an
// audit entry.
func (c *Checker) expireGrant(grant models.RoleGrant) error {
	user, err := c.repo.GetUserByID(grant.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.repo.DeleteRoleGrant(grant.UserID)
		}
		return err
	}

	hasRole, err := c.repo.UserHasRole(grant.UserID, grant.Role)
	if err != nil {
		return err
	}
	if !hasRole {
		return c.repo.DeleteRoleGrant(grant.UserID)
	}

	if err := c.repo.RemoveUserRole(grant.UserID, grant.Role); err != nil {
		return err
	}
	if err := c.repo.DeleteRoleGrant(grant.UserID); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"user_id": grant.UserID,
		"email":   user.Email,
		"role":    grant.Role,
	}).Info("Expired role removed from user")
	return c.audit.LogRoleRemoval(grant.UserID, user.Email, grant.Role)
}
