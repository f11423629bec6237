package membership

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trudslev/kofi-members/app/models"
)

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Gold Member", "goldmember"},
		{"  subscriber  ", "subscriber"},
		{"gold_member", "gold_member"},
		{"tier-1", "tier-1"},
		{"Ädmin!", "dmin"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeRole(c.in), "input %q", c.in)
	}
}

func TestRoleAllowed(t *testing.T) {
	assert.False(t, RoleAllowed("administrator"))
	assert.True(t, RoleAllowed("editor"))
	assert.True(t, RoleAllowed("subscriber"))
}

func TestResolveRoleFirstMatchWins(t *testing.T) {
	opts := &models.Options{
		TierRoleMap: []models.TierRole{
			{Tier: "Gold", Role: "gold_member"},
			{Tier: "gold", Role: "shadowed"},
		},
	}
	assert.Equal(t, "gold_member", ResolveRole("GOLD", opts))
}

func TestResolveRoleCaseInsensitive(t *testing.T) {
	opts := &models.Options{
		TierRoleMap: []models.TierRole{{Tier: "Silver Tier", Role: "silver"}},
	}
	assert.Equal(t, "silver", ResolveRole("silver tier", opts))
	assert.Equal(t, "", ResolveRole("Silver", opts), "substring tiers must not match")
}

func TestResolveRoleDefaultFallback(t *testing.T) {
	opts := &models.Options{
		TierRoleMap: []models.TierRole{{Tier: "Gold", Role: "gold_member"}},
		DefaultRole: "supporter",
	}
	assert.Equal(t, "supporter", ResolveRole("Unknown", opts))

	opts.DefaultRole = ""
	assert.Equal(t, "", ResolveRole("Unknown", opts))
}

func TestParseDonationAmountShapes(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{`{"amount":"3.00"}`, 3},
		{`{"amount":7.5}`, 7.5},
		{`{"amount":""}`, 0},
		{`{"amount":"garbage"}`, 0},
		{`{"amount":null}`, 0},
		{`{}`, 0},
	}
	for _, c := range cases {
		p, err := ParseDonation([]byte(c.raw))
		require.NoError(t, err, "payload %s", c.raw)
		assert.InDelta(t, c.want, float64(p.Amount), 0.0001, "payload %s", c.raw)
	}
}

func TestParseDonationCurrencyDefault(t *testing.T) {
	p, err := ParseDonation([]byte(`{"email":"a@b.c"}`))
	require.NoError(t, err)
	assert.Equal(t, "USD", p.Currency)

	p, err = ParseDonation([]byte(`{"currency":"EUR"}`))
	require.NoError(t, err)
	assert.Equal(t, "EUR", p.Currency)
}

func TestParseDonationRejectsMalformedJSON(t *testing.T) {
	_, err := ParseDonation([]byte(`{"email":`))
	assert.Error(t, err)
}

func TestDonationPayloadFieldNames(t *testing.T) {
	raw := `{
		"verification_token": "tok",
		"email": "donor@example.com",
		"tier_name": "Gold",
		"amount": "3.00",
		"currency": "EUR",
		"is_subscription_payment": true
	}`
	var p DonationPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, "tok", p.VerificationToken)
	assert.Equal(t, "donor@example.com", p.Email)
	assert.Equal(t, "Gold", p.TierName)
	assert.True(t, p.IsSubscriptionPayment)
}
