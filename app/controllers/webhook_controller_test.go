package controllers

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postWebhookBody(t *testing.T, contentType, body string) string {
	t.Helper()

	var got []byte
	app := fiber.New()
	app.Post("/webhook/kofi", func(c *fiber.Ctx) error {
		got = extractWebhookBody(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("POST", "/webhook/kofi", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	return string(got)
}

func TestExtractWebhookBodyFormField(t *testing.T) {
	payload := `{"verification_token":"tok","email":"a@b.c"}`
	form := url.Values{"data": {payload}}

	got := postWebhookBody(t, "application/x-www-form-urlencoded", form.Encode())
	assert.JSONEq(t, payload, got)
}

func TestExtractWebhookBodyRawJSON(t *testing.T) {
	payload := `{"verification_token":"tok","email":"a@b.c"}`

	got := postWebhookBody(t, "application/json", payload)
	assert.JSONEq(t, payload, got)
}

func TestWebhookEventIDUsesMessageID(t *testing.T) {
	assert.Equal(t, "msg-123", webhookEventID([]byte(`{"message_id":"msg-123"}`)))
	assert.Equal(t, "msg-123", webhookEventID([]byte(`{"message_id":" msg-123 "}`)))
}

func TestWebhookEventIDGeneratesFallback(t *testing.T) {
	a := webhookEventID([]byte(`{}`))
	b := webhookEventID([]byte(`not json`))
	assert.NotEmpty(t, a)
	assert.NotEmpty(t, b)
	assert.NotEqual(t, a, b)
}
