package counter

import (
	"context"
	"strconv"

	"github.com/trudslev/kofi-members/internal/pkg/cache"
)

const webhookCountersKey = "webhook:counters"

// Webhook delivery outcomes tracked in Redis.
const (
	OutcomeReceived  = "received"
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// AddWebhookOutcome increments the counter for a delivery outcome. Counter
// failures are reported but callers treat them as non-fatal.
func AddWebhookOutcome(outcome string) error {
	client := cache.GetClient()
	if client == nil {
		return nil
	}
	ctx := context.Background()
	return client.HIncrBy(ctx, webhookCountersKey, outcome, 1).Err()
}

// WebhookStats holds the delivery counters since the last reset.
type WebhookStats struct {
	Received  int64
	Processed int64
	Skipped   int64
	Failed    int64
}

// GetWebhookStats reads the current delivery counters.
func GetWebhookStats() (WebhookStats, error) {
	var stats WebhookStats
	client := cache.GetClient()
	if client == nil {
		return stats, nil
	}
	ctx := context.Background()
	data, err := client.HGetAll(ctx, webhookCountersKey).Result()
	if err != nil {
		return stats, err
	}
	stats.Received = parseCounter(data[OutcomeReceived])
	stats.Processed = parseCounter(data[OutcomeProcessed])
	stats.Skipped = parseCounter(data[OutcomeSkipped])
	stats.Failed = parseCounter(data[OutcomeFailed])
	return stats, nil
}

// ResetWebhookStats drops all delivery counters.
func ResetWebhookStats() error {
	client := cache.GetClient()
	if client == nil {
		return nil
	}
	return client.Del(context.Background(), webhookCountersKey).Err()
}

func parseCounter(raw string) int64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
