package apptest

import (
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/tier"
	"github.com/shopspring/decimal"
)

// Venues 記憶體場館設定（同時提供等級設定與毛利設定）
type Venues struct {
	Tiers    map[string]*tier.Config
	Settings map[string]*ports.VenueSettings
}

// NewVenues 建立空的場館設定
func NewVenues() *Venues {
	return &Venues{
		Tiers:    map[string]*tier.Config{},
		Settings: map[string]*ports.VenueSettings{},
	}
}

// AddDefault 以預設等級、80/30 毛利與 UTC 時區註冊場館
func (v *Venues) AddDefault(venueID shared.VenueID) {
	v.Tiers[venueID.String()] = tier.DefaultConfig(venueID)
	v.Settings[venueID.String()] = &ports.VenueSettings{
		VenueID: venueID,
		Margins: points.VenueMargins{
			FoodMargin:     decimal.NewFromInt(30),
			BeverageMargin: decimal.NewFromInt(80),
			DefaultMargin:  decimal.NewFromInt(50),
			MaxMargin:      decimal.NewFromInt(80),
		},
		Location: time.UTC,
	}
}

func (v *Venues) ConfigFor(venueID shared.VenueID) (*tier.Config, error) {
	cfg, ok := v.Tiers[venueID.String()]
	if !ok {
		return nil, tier.ErrConfigNotFound.WithContext("venue_id", venueID.String())
	}
	return cfg, nil
}

func (v *Venues) SettingsFor(venueID shared.VenueID) (*ports.VenueSettings, error) {
	s, ok := v.Settings[venueID.String()]
	if !ok {
		return nil, ports.ErrVenueNotConfigured.WithContext("venue_id", venueID.String())
	}
	return s, nil
}

var (
	_ tier.ConfigProvider  = (*Venues)(nil)
	_ ports.VenueDirectory = (*Venues)(nil)
)
