package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/trudslev/kofi-members/app/models"
	"github.com/trudslev/kofi-members/internal/pkg/membership"
	"github.com/trudslev/kofi-members/internal/pkg/metrics/counter"
	"github.com/trudslev/kofi-members/internal/pkg/usercontext"
)

// HandleAdminSettings renders the settings page.
func HandleAdminSettings(c *fiber.Ctx) error {
	csrfToken, _ := c.Locals("csrf").(string)

	opts, err := db().Setting.GetOptions()
	if err != nil {
		opts = models.DefaultOptions()
	}

	stats, err := counter.GetWebhookStats()
	if err != nil {
		diagnosticLogger().WithField("error", err.Error()).Warn("Failed to load webhook stats")
	}

	return c.Render("admin/settings", fiber.Map{
		"Title":    "Members for Ko-fi",
		"CSRF":     csrfToken,
		"Flash":    flash.Get(c),
		"Options":  opts,
		"Stats":    stats,
		"Username": extractUsername(c),
	}, "layouts/main")
}

// HandleAdminSettingsSave validates and persists the submitted settings.
// An invalid submission rejects the whole form and keeps the stored
// settings untouched.
func HandleAdminSettingsSave(c *fiber.Ctx) error {
	log := diagnosticLogger()

	current, err := db().Setting.GetOptions()
	if err != nil {
		current = models.DefaultOptions()
	}

	opts, problem := sanitizeSettingsForm(c, current)
	if problem != "" {
		return flash.WithError(c, fiber.Map{
			"type":    "error",
			"message": problem,
		}).Redirect("/admin/settings")
	}

	if err := db().Setting.SaveOptions(opts); err != nil {
		log.WithField("error", err.Error()).Error("Failed to save settings")
		return flash.WithError(c, fiber.Map{
			"type":    "error",
			"message": "Settings could not be saved.",
		}).Redirect("/admin/settings")
	}

	log.Info("Settings updated")
	return flash.WithSuccess(c, fiber.Map{
		"type":    "success",
		"message": "Settings saved.",
	}).Redirect("/admin/settings")
}

// sanitizeSettingsForm builds a clean Options value from the request. The
// returned problem string is non-empty when the submission must be
// rejected as a whole.
func sanitizeSettingsForm(c *fiber.Ctx, current *models.Options) (*models.Options, string) {
	opts := &models.Options{}

	opts.VerificationToken = strings.TrimSpace(c.FormValue("verification_token"))
	if opts.VerificationToken == "" {
		return nil, "Verification token is required."
	}

	opts.OnlySubscriptions = formCheckbox(c, "only_subscriptions")
	opts.EnableExpiry = formCheckbox(c, "enable_expiry")

	// The expiry window is only editable while expiry is enabled; a
	// disabled form ships no usable value, so the stored one is kept.
	if opts.EnableExpiry {
		raw := strings.TrimSpace(c.FormValue("role_expiry_days"))
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return nil, "Role expiry days must be a non-negative number."
		}
		opts.RoleExpiryDays = days
	} else {
		opts.RoleExpiryDays = current.RoleExpiryDays
	}

	opts.DefaultRole = membership.NormalizeRole(c.FormValue("default_role"))
	if !membership.RoleAllowed(opts.DefaultRole) {
		opts.DefaultRole = ""
	}

	opts.TierRoleMap = parseTierRoleMap(c)

	opts.LogEnabled = formCheckbox(c, "log_enabled")
	opts.LogLevel = strings.ToLower(strings.TrimSpace(c.FormValue("log_level")))
	switch opts.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		opts.LogLevel = "info"
	}

	return opts, ""
}

// parseTierRoleMap reads the tier map from the form. The canonical shape
// is two parallel arrays (tiers[] and roles[]) preserving row order; the
// older associative shape tier_role_map[Tier]=role is still accepted.
// Rows with an empty tier or a disallowed role are dropped.
func parseTierRoleMap(c *fiber.Ctx) []models.TierRole {
	args := c.Context().PostArgs()

	tiers := args.PeekMulti("tiers[]")
	roles := args.PeekMulti("roles[]")
	if len(tiers) > 0 {
		pairs := make([]models.TierRole, 0, len(tiers))
		for i, rawTier := range tiers {
			tier := strings.TrimSpace(string(rawTier))
			if tier == "" {
				continue
			}
			role := ""
			if i < len(roles) {
				role = membership.NormalizeRole(string(roles[i]))
			}
			if role == "" || !membership.RoleAllowed(role) {
				continue
			}
			pairs = append(pairs, models.TierRole{Tier: tier, Role: role})
		}
		return pairs
	}

	// Legacy associative submissions lose duplicate tiers by design of
	// their shape; order follows the submitted field order.
	var pairs []models.TierRole
	seen := map[string]bool{}
	args.VisitAll(func(key, value []byte) {
		k := string(key)
		if !strings.HasPrefix(k, "tier_role_map[") || !strings.HasSuffix(k, "]") {
			return
		}
		tier := strings.TrimSpace(k[len("tier_role_map[") : len(k)-1])
		if tier == "" || seen[tier] {
			return
		}
		role := membership.NormalizeRole(string(value))
		if role == "" || !membership.RoleAllowed(role) {
			return
		}
		seen[tier] = true
		pairs = append(pairs, models.TierRole{Tier: tier, Role: role})
	})
	return pairs
}

func formCheckbox(c *fiber.Ctx, key string) bool {
	switch strings.ToLower(strings.TrimSpace(c.FormValue(key))) {
	case "on", "1", "true", "yes":
		return true
	default:
		return false
	}
}

func extractUsername(c *fiber.Ctx) string {
	return usercontext.GetUserContext(c).Username
}
