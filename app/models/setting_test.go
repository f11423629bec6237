package models

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func settingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Setting{}, &TierRoleMapping{}))
	return db
}

func TestLoadOptionsEmptyDatabaseReturnsDefaults(t *testing.T) {
	db := settingsTestDB(t)

	opts, err := LoadOptions(db)
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)
}

func TestSaveOptionsRoundTripPreservesTierOrder(t *testing.T) {
	db := settingsTestDB(t)

	saved := &Options{
		VerificationToken: "secret-token",
		OnlySubscriptions: false,
		TierRoleMap: []TierRole{
			{Tier: "Platinum", Role: "platinum_member"},
			{Tier: "Gold", Role: "gold_member"},
			{Tier: "Bronze", Role: "bronze_member"},
		},
		DefaultRole:    "supporter",
		EnableExpiry:   true,
		RoleExpiryDays: 14,
		LogEnabled:     true,
		LogLevel:       "debug",
	}
	require.NoError(t, SaveOptions(db, saved))

	loaded, err := LoadOptions(db)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestSaveOptionsReplacesTierMapWholesale(t *testing.T) {
	db := settingsTestDB(t)

	first := DefaultOptions()
	first.TierRoleMap = []TierRole{
		{Tier: "Gold", Role: "gold_member"},
		{Tier: "Silver", Role: "silver_member"},
	}
	require.NoError(t, SaveOptions(db, first))

	// Re-saving with the rows reordered must overwrite the stored order,
	// not merge with it.
	second := DefaultOptions()
	second.TierRoleMap = []TierRole{
		{Tier: "Silver", Role: "silver_member"},
		{Tier: "Gold", Role: "gold_member"},
	}
	require.NoError(t, SaveOptions(db, second))

	loaded, err := LoadOptions(db)
	require.NoError(t, err)
	assert.Equal(t, second.TierRoleMap, loaded.TierRoleMap)
}

func TestSaveOptionsUpdatesExistingKeys(t *testing.T) {
	db := settingsTestDB(t)

	opts := DefaultOptions()
	opts.VerificationToken = "first"
	require.NoError(t, SaveOptions(db, opts))

	opts.VerificationToken = "second"
	opts.RoleExpiryDays = 0
	require.NoError(t, SaveOptions(db, opts))

	loaded, err := LoadOptions(db)
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.VerificationToken)
	assert.Equal(t, 0, loaded.RoleExpiryDays)

	var count int64
	require.NoError(t, db.Model(&Setting{}).Where("setting_key = ?", "verification_token").Count(&count).Error)
	assert.EqualValues(t, 1, count, "re-saving must update the row, not duplicate it")
}

func TestSaveOptionsRejectsNegativeExpiryDays(t *testing.T) {
	db := settingsTestDB(t)

	opts := DefaultOptions()
	opts.RoleExpiryDays = -1
	assert.Error(t, SaveOptions(db, opts))
}
