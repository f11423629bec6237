package controllers

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/trudslev/kofi-members/app/repository"
	"github.com/trudslev/kofi-members/internal/pkg/logging"

	"github.com/sirupsen/logrus"
)

// jsonSuccess wraps an AJAX payload in the success envelope. Soft errors
// use jsonError; both ship with HTTP 200 so the browser handler reads the
// envelope instead of the status line.
func jsonSuccess(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func jsonError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": false,
		"data":    message,
	})
}

// renderToString renders a view template into a string for embedding in an
// AJAX envelope.
func renderToString(c *fiber.Ctx, name string, bind interface{}) (string, error) {
	views := c.App().Config().Views
	var buf bytes.Buffer
	if err := views.Render(&buf, name, bind); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// diagnosticLogger builds a logger honoring the stored log settings. The
// settings are read fresh so toggling diagnostics applies immediately.
func diagnosticLogger() *logrus.Logger {
	opts, err := repository.GetGlobalRepositories().Setting.GetOptions()
	if err != nil || opts == nil {
		return logging.New(nil)
	}
	return logging.New(opts)
}

// formInt parses a form field as a positive integer with a fallback.
func formInt(c *fiber.Ctx, key string, def int) int {
	raw := strings.TrimSpace(c.FormValue(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func db() *repository.Repositories {
	return repository.GetGlobalRepositories()
}
