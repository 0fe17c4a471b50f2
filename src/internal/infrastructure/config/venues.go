package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/tier"
	"github.com/shopspring/decimal"
)

// ===========================
// TOML 檔案格式
// ===========================
//
// 金額與倍數以字串表示，避免浮點誤差：
//
//	[[venues]]
//	id = "6f1c..."
//	timezone = "Asia/Taipei"
//
//	[venues.margins]
//	food = "30"
//	beverage = "80"
//	default = "50"
//
//	[venues.tiers]
//	inactivity_downgrade_after_days = 60
//	grace_period_days = 30
//	reset_policy = "annually"
//	reset_mode = "recompute_tier"
//
//	[[venues.tiers.levels]]
//	name = "Bronze"
//	min_spend = "0"
//	multiplier = "1.0"
//
// 未設定 levels 時使用預設四級（Bronze / Silver / Gold / Platinum）。

type venuesFile struct {
	Venues []venueFile `toml:"venues"`
}

type venueFile struct {
	ID       string      `toml:"id"`
	Name     string      `toml:"name"`
	Timezone string      `toml:"timezone"`
	Margins  marginsFile `toml:"margins"`
	Tiers    tiersFile   `toml:"tiers"`
	Badges   []badgeFile `toml:"badges"`
}

type marginsFile struct {
	Food     string `toml:"food"`
	Beverage string `toml:"beverage"`
	Default  string `toml:"default"`
}

type tiersFile struct {
	InactivityDowngradeAfterDays *int        `toml:"inactivity_downgrade_after_days"`
	GracePeriodDays              *int        `toml:"grace_period_days"`
	ResetPolicy                  string      `toml:"reset_policy"`
	ResetMode                    string      `toml:"reset_mode"`
	Levels                       []levelFile `toml:"levels"`
}

type levelFile struct {
	Name       string     `toml:"name"`
	MinSpend   string     `toml:"min_spend"`
	Multiplier string     `toml:"multiplier"`
	Perks      []perkFile `toml:"perks"`
}

type perkFile struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

type badgeFile struct {
	ID                string  `toml:"id"`
	Name              string  `toml:"name"`
	RequiredVisits    *int    `toml:"required_visits"`
	RequiredSpending  *string `toml:"required_spending"`
	RequiredReferrals *int    `toml:"required_referrals"`
	PointsReward      int     `toml:"points_reward"`
}

// ===========================
// VenueRegistry
// ===========================

// VenueRegistry 載入後不可變的場館設定，同時提供等級設定與毛利/時區設定
type VenueRegistry struct {
	tiers    map[string]*tier.Config
	settings map[string]*ports.VenueSettings
}

var (
	_ tier.ConfigProvider  = (*VenueRegistry)(nil)
	_ ports.VenueDirectory = (*VenueRegistry)(nil)
)

// LoadVenues 讀取並驗證場館設定檔
func LoadVenues(path string) (*VenueRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read venue config: %w", err)
	}
	return ParseVenues(string(data))
}

// ParseVenues 解析 TOML 內容；任一場館設定無效即返回錯誤
func ParseVenues(data string) (*VenueRegistry, error) {
	var file venuesFile
	md, err := toml.Decode(data, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse venue config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown venue config keys: %v", undecoded)
	}

	reg := &VenueRegistry{
		tiers:    make(map[string]*tier.Config, len(file.Venues)),
		settings: make(map[string]*ports.VenueSettings, len(file.Venues)),
	}
	for i, v := range file.Venues {
		cfg, settings, err := v.build()
		if err != nil {
			return nil, fmt.Errorf("venue #%d (%s): %w", i+1, v.ID, err)
		}
		key := cfg.VenueID.String()
		if _, dup := reg.tiers[key]; dup {
			return nil, fmt.Errorf("venue %s is configured twice", key)
		}
		reg.tiers[key] = cfg
		reg.settings[key] = settings
	}
	return reg, nil
}

// ConfigFor 等級設定
func (r *VenueRegistry) ConfigFor(venueID shared.VenueID) (*tier.Config, error) {
	cfg, ok := r.tiers[venueID.String()]
	if !ok {
		return nil, tier.ErrConfigNotFound.WithContext("venue_id", venueID.String())
	}
	return cfg, nil
}

// SettingsFor 毛利與時區設定
func (r *VenueRegistry) SettingsFor(venueID shared.VenueID) (*ports.VenueSettings, error) {
	s, ok := r.settings[venueID.String()]
	if !ok {
		return nil, ports.ErrVenueNotConfigured.WithContext("venue_id", venueID.String())
	}
	return s, nil
}

// VenueIDs 已設定的場館（排序後）
func (r *VenueRegistry) VenueIDs() []string {
	ids := make([]string, 0, len(r.tiers))
	for id := range r.tiers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ===========================
// 轉換
// ===========================

func (v venueFile) build() (*tier.Config, *ports.VenueSettings, error) {
	venueID, err := shared.VenueIDFromString(v.ID)
	if err != nil {
		return nil, nil, err
	}

	loc := time.UTC
	if v.Timezone != "" {
		if loc, err = time.LoadLocation(v.Timezone); err != nil {
			return nil, nil, fmt.Errorf("timezone: %w", err)
		}
	}

	margins, err := v.Margins.build()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := v.Tiers.build(venueID)
	if err != nil {
		return nil, nil, err
	}
	for _, b := range v.Badges {
		badge, err := b.build()
		if err != nil {
			return nil, nil, err
		}
		cfg.Badges = append(cfg.Badges, badge)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, &ports.VenueSettings{VenueID: venueID, Margins: margins, Location: loc}, nil
}

func (m marginsFile) build() (points.VenueMargins, error) {
	food, err := parseDecimal("margins.food", m.Food, decimal.Zero)
	if err != nil {
		return points.VenueMargins{}, err
	}
	beverage, err := parseDecimal("margins.beverage", m.Beverage, decimal.Zero)
	if err != nil {
		return points.VenueMargins{}, err
	}
	def, err := parseDecimal("margins.default", m.Default, decimal.Zero)
	if err != nil {
		return points.VenueMargins{}, err
	}
	for name, d := range map[string]decimal.Decimal{"food": food, "beverage": beverage, "default": def} {
		if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
			return points.VenueMargins{}, fmt.Errorf("margins.%s must be within [0, 100], got %s", name, d)
		}
	}
	return points.VenueMargins{
		FoodMargin:     food,
		BeverageMargin: beverage,
		DefaultMargin:  def,
		MaxMargin:      decimal.Max(food, beverage, def),
	}, nil
}

func (t tiersFile) build(venueID shared.VenueID) (*tier.Config, error) {
	cfg := tier.DefaultConfig(venueID)
	if len(t.Levels) > 0 {
		cfg.Levels = make([]tier.Level, 0, len(t.Levels))
		for _, l := range t.Levels {
			level, err := l.build()
			if err != nil {
				return nil, err
			}
			cfg.Levels = append(cfg.Levels, level)
		}
	}
	if t.InactivityDowngradeAfterDays != nil {
		cfg.InactivityDowngradeAfterDays = t.InactivityDowngradeAfterDays
	}
	if t.GracePeriodDays != nil {
		cfg.GracePeriodDays = t.GracePeriodDays
	}
	if t.ResetPolicy != "" {
		cfg.ResetPolicy = tier.ResetPolicy(t.ResetPolicy)
	}
	if t.ResetMode != "" {
		cfg.ResetMode = tier.ResetMode(t.ResetMode)
	}
	return cfg, nil
}

func (l levelFile) build() (tier.Level, error) {
	minSpend, err := parseDecimal("min_spend", l.MinSpend, decimal.Zero)
	if err != nil {
		return tier.Level{}, err
	}
	multiplier, err := parseDecimal("multiplier", l.Multiplier, decimal.NewFromInt(1))
	if err != nil {
		return tier.Level{}, err
	}
	level := tier.Level{Name: l.Name, MinSpend: minSpend, Multiplier: multiplier}
	for _, p := range l.Perks {
		level.Perks = append(level.Perks, tier.Perk{Name: p.Name, Description: p.Description})
	}
	return level, nil
}

func (b badgeFile) build() (tier.Badge, error) {
	badge := tier.Badge{
		ID:                b.ID,
		Name:              b.Name,
		RequiredVisits:    b.RequiredVisits,
		RequiredReferrals: b.RequiredReferrals,
		PointsReward:      b.PointsReward,
	}
	if b.RequiredSpending != nil {
		d, err := parseDecimal("required_spending", *b.RequiredSpending, decimal.Zero)
		if err != nil {
			return tier.Badge{}, err
		}
		badge.RequiredSpending = &d
	}
	return badge, nil
}

func parseDecimal(field, raw string, def decimal.Decimal) (decimal.Decimal, error) {
	if raw == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}
