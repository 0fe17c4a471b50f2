// Package config 程序設定（環境變數 / .env）與場館設定（TOML）
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config 程序設定
type Config struct {
	DatabasePath string `validate:"required"`

	RemoteBaseURL  string        `validate:"required,url"`
	RemoteAPIToken string        `validate:"-"`
	RemoteTimeout  time.Duration `validate:"gt=0"`
	HealthURL      string        `validate:"required,url"`
	ProbeInterval  time.Duration `validate:"gt=0"`

	SyncMaxAttempts int           `validate:"gte=1"`
	SyncInterval    time.Duration `validate:"gt=0"`

	ExpirationCron       string `validate:"required"`
	TierMaintenanceCron  string `validate:"required"`
	ExpirationWindowDays int    `validate:"gt=0"`
	WarningWindowDays    int    `validate:"gte=0,ltfield=ExpirationWindowDays"`

	VenueConfigPath string `validate:"required"`
	MetricsAddr     string `validate:"omitempty,hostname_port"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`

	PointsBaseRate decimal.Decimal
	ReferralRate   decimal.Decimal
}

// Defaults 未設定環境變數時的值
func Defaults() Config {
	return Config{
		DatabasePath:         "loyalty.db",
		RemoteTimeout:        10 * time.Second,
		ProbeInterval:        30 * time.Second,
		SyncMaxAttempts:      3,
		SyncInterval:         5 * time.Minute,
		ExpirationCron:       "0 3 * * *",
		TierMaintenanceCron:  "30 3 * * *",
		ExpirationWindowDays: 180,
		WarningWindowDays:    30,
		VenueConfigPath:      "venues.toml",
		MetricsAddr:          ":9090",
		LogLevel:             "info",
		LogFormat:            "text",
		PointsBaseRate:       decimal.NewFromFloat(0.10),
		ReferralRate:         decimal.NewFromFloat(0.25),
	}
}

// Load 讀取 .env（不存在時略過）後，以環境變數覆寫預設值並驗證
//
// 已存在的環境變數優先於 .env 內容。
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := Defaults()
	r := &envReader{}

	cfg.DatabasePath = r.str("DATABASE_PATH", cfg.DatabasePath)
	cfg.RemoteBaseURL = r.str("REMOTE_BASE_URL", cfg.RemoteBaseURL)
	cfg.RemoteAPIToken = r.str("REMOTE_API_TOKEN", cfg.RemoteAPIToken)
	cfg.RemoteTimeout = r.dur("REMOTE_TIMEOUT", cfg.RemoteTimeout)
	cfg.HealthURL = r.str("REMOTE_HEALTH_URL", strings.TrimRight(cfg.RemoteBaseURL, "/")+"/healthz")
	cfg.ProbeInterval = r.dur("PROBE_INTERVAL", cfg.ProbeInterval)
	cfg.SyncMaxAttempts = r.integer("SYNC_MAX_ATTEMPTS", cfg.SyncMaxAttempts)
	cfg.SyncInterval = r.dur("SYNC_INTERVAL", cfg.SyncInterval)
	cfg.ExpirationCron = r.str("EXPIRATION_CRON", cfg.ExpirationCron)
	cfg.TierMaintenanceCron = r.str("TIER_MAINTENANCE_CRON", cfg.TierMaintenanceCron)
	cfg.ExpirationWindowDays = r.integer("EXPIRATION_WINDOW_DAYS", cfg.ExpirationWindowDays)
	cfg.WarningWindowDays = r.integer("EXPIRATION_WARNING_DAYS", cfg.WarningWindowDays)
	cfg.VenueConfigPath = r.str("VENUE_CONFIG_PATH", cfg.VenueConfigPath)
	cfg.MetricsAddr = r.str("METRICS_ADDR", cfg.MetricsAddr)
	cfg.LogLevel = strings.ToLower(r.str("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(r.str("LOG_FORMAT", cfg.LogFormat))
	cfg.PointsBaseRate = r.dec("POINTS_BASE_RATE", cfg.PointsBaseRate)
	cfg.ReferralRate = r.dec("REFERRAL_RATE", cfg.ReferralRate)

	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 欄位驗證
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ExpirationWindow 過期視窗
func (c *Config) ExpirationWindow() time.Duration {
	return time.Duration(c.ExpirationWindowDays) * 24 * time.Hour
}

// WarningWindow 提醒視窗
func (c *Config) WarningWindow() time.Duration {
	return time.Duration(c.WarningWindowDays) * 24 * time.Hour
}

// SlogLevel LOG_LEVEL 對應的 slog 等級
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ===========================
// 環境變數解析
// ===========================

type envReader struct {
	errs []error
}

func (r *envReader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *envReader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *envReader) dur(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (r *envReader) dec(key string, def decimal.Decimal) decimal.Decimal {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
