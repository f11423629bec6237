package membership

import (
	"strings"

	"github.com/trudslev/kofi-members/app/models"
)

// DisallowedRoles can never be granted through a donation, regardless of
// what the tier map says. The settings sanitizer rejects them on input.
var DisallowedRoles = []string{"administrator"}

// RoleAllowed reports whether a role key may appear in the tier map or as
// the default role.
func RoleAllowed(role string) bool {
	for _, r := range DisallowedRoles {
		if r == role {
			return false
		}
	}
	return true
}

// NormalizeRole lowercases a role key and strips everything outside
// [a-z0-9_-], the canonical key alphabet.
func NormalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	var b strings.Builder
	for _, r := range role {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolveRole walks the tier map in stored order and returns the role of
// the first case-insensitive exact tier match. Without a match the
// configured default role applies; without one the empty string is
// returned and no role is granted.
func ResolveRole(tier string, opts *models.Options) string {
	for _, pair := range opts.TierRoleMap {
		if strings.EqualFold(pair.Tier, tier) {
			if pair.Role != "" {
				return pair.Role
			}
			return opts.DefaultRole
		}
	}
	return opts.DefaultRole
}
