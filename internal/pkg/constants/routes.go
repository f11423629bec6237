package constants

// Static route constants
const (
	WebhookRoute       = "/webhook/kofi"
	LoginRoute         = "/login"
	LogoutRoute        = "/logout"
	AdminSettingsRoute = "/admin/settings"
	AdminLogsRoute     = "/admin/logs"
	AdminLogsFetch     = "/admin/logs/fetch"
	AdminLogsClear     = "/admin/logs/clear"
)
