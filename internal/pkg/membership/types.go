package membership

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Amount is a donation amount. Ko-fi delivers it as a JSON string
// ("3.00"); older payloads and tests use a bare number. Unparseable
// values collapse to zero rather than failing the whole payload.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*a = 0
		return nil
	}
	*a = Amount(v)
	return nil
}

// DonationPayload is the decoded Ko-fi webhook body.
type DonationPayload struct {
	VerificationToken     string `json:"verification_token"`
	Email                 string `json:"email"`
	TierName              string `json:"tier_name"`
	Amount                Amount `json:"amount"`
	Currency              string `json:"currency"`
	IsSubscriptionPayment bool   `json:"is_subscription_payment"`
}

// ParseDonation decodes a raw payload and applies the USD currency
// default.
func ParseDonation(data []byte) (*DonationPayload, error) {
	var p DonationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Currency) == "" {
		p.Currency = "USD"
	}
	return &p, nil
}

// Result reports what a processed donation did.
type Result struct {
	// Skipped is true when the only-subscriptions gate filtered the
	// payload; the delivery is acknowledged but nothing was changed.
	Skipped     bool
	UserID      uint
	Email       string
	UserCreated bool
	// Role is the granted role key, empty when no tier matched and no
	// default role is configured.
	Role string
}
