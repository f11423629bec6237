package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trudslev/kofi-members/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in web session; redirects to /login if missing.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAdmin ensures a logged-in admin; redirects otherwise.
func RequireAdmin(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	if !usercontext.IsAdmin(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAdminAjax guards the log-viewer endpoints. Permission failures are
// surfaced as a soft JSON error inside a 200 envelope so the browser-side
// handler can show the message in place.
func RequireAdminAjax(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) || !usercontext.IsAdmin(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"data":    "You do not have permission to access this resource.",
		})
	}
	return c.Next()
}
