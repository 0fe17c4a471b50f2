package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/tier"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tapRoomID  = "6f1c2d3e-4a5b-4c6d-8e7f-9a0b1c2d3e4f"
	cellarID   = "0a1b2c3d-4e5f-4a6b-8c7d-8e9f0a1b2c3d"
	venuesTOML = `
[[venues]]
id = "6f1c2d3e-4a5b-4c6d-8e7f-9a0b1c2d3e4f"
name = "The Tap Room"
timezone = "Asia/Taipei"

[venues.margins]
food = "30"
beverage = "80"
default = "50"

[venues.tiers]
inactivity_downgrade_after_days = 60
grace_period_days = 15
reset_policy = "annually"
reset_mode = "recompute_tier"

[[venues.tiers.levels]]
name = "Regular"
min_spend = "0"
multiplier = "1.0"

[[venues.tiers.levels]]
name = "Insider"
min_spend = "1000"
multiplier = "1.5"
perks = [{ name = "Skip-the-Line", description = "Fast-track entry" }]

[[venues.badges]]
id = "loyal-patron"
name = "Loyal Patron"
required_visits = 10
required_spending = "500"
points_reward = 100

[[venues]]
id = "0a1b2c3d-4e5f-4a6b-8c7d-8e9f0a1b2c3d"

[venues.margins]
beverage = "70"
`
)

func TestParseVenues_FullVenue(t *testing.T) {
	// Act
	reg, err := config.ParseVenues(venuesTOML)
	require.NoError(t, err)
	venueID, _ := shared.VenueIDFromString(tapRoomID)

	cfg, err := reg.ConfigFor(venueID)
	require.NoError(t, err)
	settings, err := reg.SettingsFor(venueID)
	require.NoError(t, err)

	// Assert
	require.Len(t, cfg.Levels, 2)
	assert.Equal(t, "Regular", cfg.BaseLevel().Name)
	assert.True(t, cfg.Levels[1].MinSpend.Equal(decimal.NewFromInt(1000)))
	assert.True(t, cfg.Levels[1].Multiplier.Equal(decimal.RequireFromString("1.5")))
	require.Len(t, cfg.Levels[1].Perks, 1)
	assert.Equal(t, 60, *cfg.InactivityDowngradeAfterDays)
	assert.Equal(t, 15, *cfg.GracePeriodDays)
	assert.Equal(t, tier.ResetAnnually, cfg.ResetPolicy)
	assert.Equal(t, tier.ResetModeRecomputeTier, cfg.ResetMode)
	require.Len(t, cfg.Badges, 1)
	assert.True(t, cfg.Badges[0].RequiredSpending.Equal(decimal.NewFromInt(500)))
	assert.Nil(t, cfg.Badges[0].RequiredReferrals)

	assert.Equal(t, "Asia/Taipei", settings.Location.String())
	assert.True(t, settings.Margins.MaxMargin.Equal(decimal.NewFromInt(80)))
	assert.True(t, settings.Margins.MarginFor(points.CategoryFood).Equal(decimal.NewFromInt(30)))
}

func TestParseVenues_MinimalVenueUsesDefaults(t *testing.T) {
	// Act
	reg, err := config.ParseVenues(venuesTOML)
	require.NoError(t, err)
	venueID, _ := shared.VenueIDFromString(cellarID)
	cfg, err := reg.ConfigFor(venueID)
	require.NoError(t, err)
	settings, err := reg.SettingsFor(venueID)
	require.NoError(t, err)

	// Assert
	assert.Len(t, cfg.Levels, 4)
	assert.Equal(t, "Bronze", cfg.BaseLevel().Name)
	assert.Nil(t, cfg.InactivityDowngradeAfterDays)
	assert.Equal(t, "UTC", settings.Location.String())
	assert.True(t, settings.Margins.MaxMargin.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, []string{cellarID, tapRoomID}, reg.VenueIDs())
}

func TestVenueRegistry_UnknownVenue(t *testing.T) {
	// Arrange
	reg, err := config.ParseVenues(venuesTOML)
	require.NoError(t, err)
	unknown := shared.NewVenueID()

	// Act
	_, tierErr := reg.ConfigFor(unknown)
	_, settingsErr := reg.SettingsFor(unknown)

	// Assert
	assert.ErrorIs(t, tierErr, tier.ErrConfigNotFound)
	assert.ErrorIs(t, settingsErr, ports.ErrVenueNotConfigured)
}

func TestParseVenues_Invalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"無效的場館 ID", `[[venues]]
id = "nope"`},
		{"未知的時區", `[[venues]]
id = "` + tapRoomID + `"
timezone = "Mars/Olympus"`},
		{"毛利超過 100", `[[venues]]
id = "` + tapRoomID + `"
[venues.margins]
food = "120"`},
		{"等級門檻未遞增", `[[venues]]
id = "` + tapRoomID + `"
[[venues.tiers.levels]]
name = "A"
min_spend = "100"
[[venues.tiers.levels]]
name = "B"
min_spend = "50"`},
		{"重置策略缺少模式", `[[venues]]
id = "` + tapRoomID + `"
[venues.tiers]
reset_policy = "monthly"`},
		{"重複的場館", `[[venues]]
id = "` + tapRoomID + `"
[[venues]]
id = "` + tapRoomID + `"`},
		{"未知的欄位", `[[venues]]
id = "` + tapRoomID + `"
colour = "red"`},
		{"TOML 語法錯誤", `[[venues]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			_, err := config.ParseVenues(tt.toml)

			// Assert
			assert.Error(t, err)
		})
	}
}

func TestLoadVenues_FromFile(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "venues.toml")
	require.NoError(t, os.WriteFile(path, []byte(venuesTOML), 0o600))

	// Act
	reg, err := config.LoadVenues(path)

	// Assert
	require.NoError(t, err)
	assert.Len(t, reg.VenueIDs(), 2)

	_, err = config.LoadVenues(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
