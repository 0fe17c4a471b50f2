package tier

import (
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ResetPolicy 週期性等級重置策略
type ResetPolicy string

const (
	ResetNever     ResetPolicy = "never"
	ResetMonthly   ResetPolicy = "monthly"
	ResetQuarterly ResetPolicy = "quarterly"
	ResetAnnually  ResetPolicy = "annually"
)

// ResetMode 重置時如何處理累計消費，由場館明確設定
type ResetMode string

const (
	// ResetModeZeroSpend 累計消費歸零並回到最低等級
	ResetModeZeroSpend ResetMode = "zero_spend"
	// ResetModeRecomputeTier 保留累計消費，依消費重新計算等級
	ResetModeRecomputeTier ResetMode = "recompute_tier"
)

// Perk 等級權益
type Perk struct {
	Name        string
	Description string
}

// Level 單一等級
type Level struct {
	Name       string
	MinSpend   decimal.Decimal
	Multiplier decimal.Decimal
	Perks      []Perk
}

// Config 場館等級設定（計算期間不可變）
//
// Levels 依 MinSpend 嚴格遞增排列，第一個等級是新會籍的初始等級。
type Config struct {
	VenueID                      shared.VenueID
	Levels                       []Level
	InactivityDowngradeAfterDays *int
	GracePeriodDays              *int
	ResetPolicy                  ResetPolicy
	ResetMode                    ResetMode
	Badges                       []Badge
}

// ConfigProvider 依場館提供等級設定，找不到時返回 ErrConfigNotFound
type ConfigProvider interface {
	ConfigFor(venueID shared.VenueID) (*Config, error)
}

// Validate 檢查設定的一致性
func (c *Config) Validate() error {
	if len(c.Levels) == 0 {
		return ErrInvalidConfig.WithContext("reason", "at least one level is required")
	}
	if c.Levels[0].MinSpend.IsNegative() {
		return ErrInvalidConfig.WithContext("reason", "base level min spend must be >= 0")
	}

	seen := make(map[string]bool, len(c.Levels))
	for i, l := range c.Levels {
		if l.Name == "" {
			return ErrInvalidConfig.WithContext("reason", "level name is empty", "index", i)
		}
		if seen[l.Name] {
			return ErrInvalidConfig.WithContext("reason", "duplicate level", "level", l.Name)
		}
		seen[l.Name] = true
		if !l.Multiplier.IsPositive() {
			return ErrInvalidConfig.WithContext("reason", "multiplier must be > 0", "level", l.Name)
		}
		if i > 0 && !l.MinSpend.GreaterThan(c.Levels[i-1].MinSpend) {
			return ErrInvalidConfig.WithContext("reason", "min spend must be strictly increasing", "level", l.Name)
		}
	}

	if c.InactivityDowngradeAfterDays != nil && *c.InactivityDowngradeAfterDays <= 0 {
		return ErrInvalidConfig.WithContext("reason", "inactivity days must be > 0")
	}
	if c.GracePeriodDays != nil && *c.GracePeriodDays < 0 {
		return ErrInvalidConfig.WithContext("reason", "grace period must be >= 0")
	}

	switch c.ResetPolicy {
	case "", ResetNever:
	case ResetMonthly, ResetQuarterly, ResetAnnually:
		if c.ResetMode != ResetModeZeroSpend && c.ResetMode != ResetModeRecomputeTier {
			return ErrInvalidConfig.WithContext("reason", "reset mode is required when a reset policy is set", "reset_mode", string(c.ResetMode))
		}
	default:
		return ErrInvalidConfig.WithContext("reason", "unknown reset policy", "reset_policy", string(c.ResetPolicy))
	}

	for _, b := range c.Badges {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BaseLevel 最低等級
func (c *Config) BaseLevel() Level {
	return c.Levels[0]
}

// IndexOf 等級在設定中的順序，不存在時返回 -1
func (c *Config) IndexOf(name string) int {
	for i, l := range c.Levels {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// LevelByName 依名稱查找等級
func (c *Config) LevelByName(name string) (Level, bool) {
	if i := c.IndexOf(name); i >= 0 {
		return c.Levels[i], true
	}
	return Level{}, false
}

// Next 下一個等級，已是最高等級時返回 nil
func (c *Config) Next(name string) *Level {
	i := c.IndexOf(name)
	if i < 0 || i+1 >= len(c.Levels) {
		return nil
	}
	next := c.Levels[i+1]
	return &next
}

// ===========================
// 預設設定
// ===========================

func intPtr(v int) *int { return &v }

// DefaultConfig 預設四級設定（Bronze / Silver / Gold / Platinum）
//
// 不活躍降級預設關閉；寬限期 30 天在開啟降級後才有作用。
func DefaultConfig(venueID shared.VenueID) *Config {
	return &Config{
		VenueID: venueID,
		Levels: []Level{
			{
				Name:       "Bronze",
				MinSpend:   decimal.Zero,
				Multiplier: decimal.NewFromFloat(1.0),
				Perks: []Perk{
					{Name: "Points Earning", Description: "Earn 1x points on every purchase"},
				},
			},
			{
				Name:       "Silver",
				MinSpend:   decimal.NewFromInt(500),
				Multiplier: decimal.NewFromFloat(1.2),
				Perks: []Perk{
					{Name: "Bonus Points", Description: "Earn 1.2x points on every purchase"},
					{Name: "Birthday Bonus", Description: "Special birthday reward"},
				},
			},
			{
				Name:       "Gold",
				MinSpend:   decimal.NewFromInt(2000),
				Multiplier: decimal.NewFromFloat(1.5),
				Perks: []Perk{
					{Name: "Premium Points", Description: "Earn 1.5x points on every purchase"},
					{Name: "Birthday Bonus", Description: "Enhanced birthday reward"},
					{Name: "Early Event Access", Description: "Priority booking for events"},
				},
			},
			{
				Name:       "Platinum",
				MinSpend:   decimal.NewFromInt(5000),
				Multiplier: decimal.NewFromFloat(2.0),
				Perks: []Perk{
					{Name: "Maximum Points", Description: "Earn 2x points on every purchase"},
					{Name: "VIP Birthday", Description: "Exclusive birthday celebration"},
					{Name: "Early Event Access", Description: "First access to all events"},
					{Name: "Reserved Seating", Description: "Priority table reservations"},
					{Name: "Skip-the-Line", Description: "Fast-track venue entry"},
				},
			},
		},
		GracePeriodDays: intPtr(30),
		ResetPolicy:     ResetNever,
	}
}
