package tier_test

import (
	"testing"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/tier"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := tier.DefaultConfig(shared.NewVenueID())

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Bronze", cfg.BaseLevel().Name)
	assert.Equal(t, "Silver", cfg.Next("Bronze").Name)
	assert.Nil(t, cfg.Next("Platinum"))
	assert.Nil(t, cfg.Next("Unknown"))
}

func TestConfig_Validate_Rejects(t *testing.T) {
	zero := 0
	negative := -1

	tests := []struct {
		name   string
		mutate func(c *tier.Config)
	}{
		{"沒有等級", func(c *tier.Config) { c.Levels = nil }},
		{"門檻未遞增", func(c *tier.Config) { c.Levels[2].MinSpend = decimal.NewFromInt(500) }},
		{"重複名稱", func(c *tier.Config) { c.Levels[1].Name = "Bronze" }},
		{"空名稱", func(c *tier.Config) { c.Levels[3].Name = "" }},
		{"倍數為零", func(c *tier.Config) { c.Levels[1].Multiplier = decimal.Zero }},
		{"不活躍天數為零", func(c *tier.Config) { c.InactivityDowngradeAfterDays = &zero }},
		{"寬限期為負", func(c *tier.Config) { c.GracePeriodDays = &negative }},
		{"重置策略缺少模式", func(c *tier.Config) { c.ResetPolicy = tier.ResetMonthly }},
		{"未知重置策略", func(c *tier.Config) { c.ResetPolicy = "weekly" }},
		{"徽章無條件值", func(c *tier.Config) {
			c.Badges = []tier.Badge{{ID: "b", RequiredVisits: &zero}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tier.DefaultConfig(shared.NewVenueID())
			tt.mutate(cfg)

			assert.ErrorIs(t, cfg.Validate(), tier.ErrInvalidConfig)
		})
	}
}

// ===== Badge =====

func TestCheckBadgeEarned(t *testing.T) {
	visits := 10
	referrals := 4
	spending := decimal.NewFromInt(1000)
	badge := tier.Badge{ID: "regular", RequiredVisits: &visits, RequiredSpending: &spending, RequiredReferrals: &referrals}

	t.Run("部分達成", func(t *testing.T) {
		p := tier.CheckBadgeEarned(tier.Stats{Visits: 5, Spending: decimal.NewFromInt(2000), Referrals: 1}, badge)

		assert.False(t, p.Earned)
		require.Len(t, p.Criteria, 3)
		assert.InDelta(t, 0.5, p.Criteria[0].Progress, 1e-9)
		assert.InDelta(t, 1.0, p.Criteria[1].Progress, 1e-9, "進度上限 1.0")
		assert.InDelta(t, 0.25, p.Criteria[2].Progress, 1e-9)
		assert.InDelta(t, (0.5+1.0+0.25)/3, p.Overall, 1e-9)
	})

	t.Run("全部達成", func(t *testing.T) {
		p := tier.CheckBadgeEarned(tier.Stats{Visits: 10, Spending: decimal.NewFromInt(1000), Referrals: 9}, badge)

		assert.True(t, p.Earned)
		assert.InDelta(t, 1.0, p.Overall, 1e-9)
	})

	t.Run("沒有條件", func(t *testing.T) {
		p := tier.CheckBadgeEarned(tier.Stats{Visits: 100}, tier.Badge{ID: "empty"})

		assert.False(t, p.Earned)
		assert.Zero(t, p.Overall)
	})
}
