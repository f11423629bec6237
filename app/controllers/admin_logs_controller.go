package controllers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/trudslev/kofi-members/app/models"
	"github.com/trudslev/kofi-members/internal/pkg/cache"
)

const (
	logsCountCacheKey = "kofi_members:logs_count"
	logsCountCacheTTL = time.Minute
)

// RowsPerPageChoices are the page sizes the log viewer offers.
var RowsPerPageChoices = []int{10, 25, 50, 100}

const defaultRowsPerPage = 10

// HandleAdminLogs renders the log viewer page with the first page of
// entries.
func HandleAdminLogs(c *fiber.Ctx) error {
	csrfToken, _ := c.Locals("csrf").(string)

	page := 1
	rowsPerPage := defaultRowsPerPage
	view, err := buildLogsView(page, rowsPerPage, "")
	if err != nil {
		return flash.WithError(c, fiber.Map{
			"type":    "error",
			"message": "Logs could not be loaded.",
		}).Redirect("/admin/settings")
	}

	return c.Render("admin/logs", fiber.Map{
		"Title":       "Ko-fi Logs",
		"CSRF":        csrfToken,
		"Flash":       flash.Get(c),
		"Logs":        view.Entries,
		"Total":       view.Total,
		"Page":        view.Page,
		"TotalPages":  view.TotalPages,
		"RowsPerPage": rowsPerPage,
		"RowsChoices": RowsPerPageChoices,
		"Search":      "",
		"Username":    extractUsername(c),
	}, "layouts/main")
}

// HandleLogsFetch serves one page of the log table for the viewer's AJAX
// refresh, pagination, search and page-size switches.
func HandleLogsFetch(c *fiber.Ctx) error {
	log := diagnosticLogger()

	exists, err := db().UserLog.TableExists()
	if err != nil || !exists {
		return jsonError(c, "Logs table does not exist.")
	}

	page := formInt(c, "page", 1)
	rowsPerPage := sanitizeRowsPerPage(formInt(c, "rows_per_page", defaultRowsPerPage))
	search := strings.TrimSpace(c.FormValue("search"))

	view, err := buildLogsView(page, rowsPerPage, search)
	if err != nil {
		log.WithField("error", err.Error()).Error("Failed to load log entries")
		return jsonError(c, "Logs could not be loaded.")
	}

	table, err := renderToString(c, "partials/logs_table", fiber.Map{
		"Logs": view.Entries,
	})
	if err != nil {
		log.WithField("error", err.Error()).Error("Failed to render log table")
		return jsonError(c, "Logs could not be loaded.")
	}

	return jsonSuccess(c, fiber.Map{
		"table":       table,
		"total":       view.Total,
		"page":        view.Page,
		"total_pages": view.TotalPages,
	})
}

// HandleLogsClear empties the audit table.
func HandleLogsClear(c *fiber.Ctx) error {
	log := diagnosticLogger()

	exists, err := db().UserLog.TableExists()
	if err != nil || !exists {
		return jsonError(c, "Logs table does not exist.")
	}

	if err := db().UserLog.Clear(); err != nil {
		log.WithField("error", err.Error()).Error("Failed to clear logs")
		return jsonError(c, "Logs could not be cleared.")
	}

	if err := cache.Delete(logsCountCacheKey); err != nil {
		log.WithField("error", err.Error()).Warn("Failed to drop cached log count")
	}

	log.Info("Audit log cleared")
	return jsonSuccess(c, "Logs cleared.")
}

type logsView struct {
	Entries    []models.UserLog
	Total      int64
	Page       int
	TotalPages int
}

// buildLogsView loads one page of entries plus the matching total. The
// total for an unfiltered view is cached for a minute; searches always
// count live because every term would need its own cache slot.
func buildLogsView(page, rowsPerPage int, search string) (*logsView, error) {
	repo := db().UserLog

	total, err := countLogs(search)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(rowsPerPage) - 1) / int64(rowsPerPage))
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	entries, err := repo.List((page-1)*rowsPerPage, rowsPerPage, search)
	if err != nil {
		return nil, err
	}

	return &logsView{
		Entries:    entries,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

func countLogs(search string) (int64, error) {
	repo := db().UserLog

	if search != "" {
		return repo.Count(search)
	}

	if cached, err := cache.Get(logsCountCacheKey); err == nil && cached != "" {
		if v, err := strconv.ParseInt(cached, 10, 64); err == nil {
			return v, nil
		}
	}

	total, err := repo.Count("")
	if err != nil {
		return 0, err
	}
	if err := cache.Set(logsCountCacheKey, strconv.FormatInt(total, 10), logsCountCacheTTL); err == nil {
		return total, nil
	}
	return total, nil
}

func sanitizeRowsPerPage(v int) int {
	for _, choice := range RowsPerPageChoices {
		if v == choice {
			return v
		}
	}
	return defaultRowsPerPage
}
