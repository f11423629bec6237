package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/trudslev/kofi-members/app/controllers"
	"github.com/trudslev/kofi-members/internal/pkg/constants"
	"github.com/trudslev/kofi-members/internal/pkg/env"
	"github.com/trudslev/kofi-members/internal/pkg/middleware"
	"github.com/trudslev/kofi-members/internal/pkg/session"
)

type HttpRouter struct {
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerWebhookRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

// registerWebhookRoutes installs the machine-facing endpoints. Ko-fi posts
// here without a CSRF token; the verification token in the payload is the
// auth mechanism.
func (h HttpRouter) registerWebhookRoutes(app *fiber.App) {
	app.Post(constants.WebhookRoute, controllers.HandleKofiWebhook)

	app.Post(constants.LogoutRoute, middleware.RequireAuth, controllers.HandleAuthLogout)
}

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), constants.WebhookRoute)
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(constants.AdminSettingsRoute, fiber.StatusSeeOther)
	})
	group.Get(constants.LoginRoute, controllers.HandleAuthLogin)
	group.Post(constants.LoginRoute, controllers.HandleAuthLogin)

	group.Get(constants.AdminSettingsRoute, middleware.RequireAdmin, controllers.HandleAdminSettings)
	group.Post(constants.AdminSettingsRoute, middleware.RequireAdmin, controllers.HandleAdminSettingsSave)
	group.Get(constants.AdminLogsRoute, middleware.RequireAdmin, controllers.HandleAdminLogs)

	// Log viewer AJAX endpoints answer permission failures inside the
	// envelope instead of redirecting.
	group.Post(constants.AdminLogsFetch, middleware.RequireAdminAjax, controllers.HandleLogsFetch)
	group.Post(constants.AdminLogsClear, middleware.RequireAdminAjax, controllers.HandleLogsClear)
}
