package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trudslev/kofi-members/internal/pkg/database"
	"github.com/trudslev/kofi-members/internal/pkg/membership"
	"github.com/trudslev/kofi-members/internal/pkg/metrics/counter"
)

// HandleKofiWebhook receives a Ko-fi donation notification. Ko-fi posts a
// form body whose "data" field holds the JSON payload; a raw JSON body is
// accepted too for manual testing.
func HandleKofiWebhook(c *fiber.Ctx) error {
	log := diagnosticLogger()

	if err := counter.AddWebhookOutcome(counter.OutcomeReceived); err != nil {
		log.WithField("error", err.Error()).Warn("Failed to count webhook delivery")
	}

	raw := extractWebhookBody(c)
	payload, err := membership.ParseDonation(raw)
	if err != nil {
		log.WithField("error", err.Error()).Warn("Failed to decode webhook payload")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
	}

	opts, err := db().Setting.GetOptions()
	if err != nil {
		log.WithField("error", err.Error()).Error("Failed to load settings")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Settings unavailable"})
	}

	svc := membership.NewServiceFromDB(database.GetDB(), log)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Delivery bookkeeping never gates processing; a failed insert only
	// loses observability.
	tokenValid := opts.VerificationToken != "" && payload.VerificationToken == opts.VerificationToken
	event, eventErr := svc.RecordWebhookEvent(ctx, webhookEventID(raw), string(raw), tokenValid)
	if eventErr != nil {
		log.WithField("error", eventErr.Error()).Warn("Failed to record webhook delivery")
	}

	result, procErr := svc.ProcessDonation(ctx, opts, payload)
	if event != nil {
		if err := svc.MarkWebhookProcessed(ctx, event.ID, procErr); err != nil {
			log.WithField("error", err.Error()).Warn("Failed to mark webhook delivery processed")
		}
	}

	if procErr != nil {
		_ = counter.AddWebhookOutcome(counter.OutcomeFailed)
		switch {
		case errors.Is(procErr, membership.ErrMissingToken):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing verification token"})
		case errors.Is(procErr, membership.ErrInvalidToken):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		case errors.Is(procErr, membership.ErrInvalidEmail):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid email"})
		case errors.Is(procErr, membership.ErrUserCreation):
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "User creation failed"})
		default:
			log.WithField("error", procErr.Error()).Error("Webhook processing failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Webhook processing failed"})
		}
	}

	if result.Skipped {
		_ = counter.AddWebhookOutcome(counter.OutcomeSkipped)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "skipped": true})
	}
	_ = counter.AddWebhookOutcome(counter.OutcomeProcessed)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

// extractWebhookBody returns the JSON document from either the Ko-fi form
// field or a raw JSON request body.
func extractWebhookBody(c *fiber.Ctx) []byte {
	if data := c.FormValue("data"); data != "" {
		return []byte(data)
	}
	return append([]byte(nil), c.BodyRaw()...)
}

// webhookEventID pulls Ko-fi's message_id out of the payload so repeated
// deliveries of the same message share an identifier. Payloads without one
// get a generated id.
func webhookEventID(raw []byte) string {
	var probe struct {
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil {
		if id := strings.TrimSpace(probe.MessageID); id != "" {
			return id
		}
	}
	return uuid.NewString()
}
