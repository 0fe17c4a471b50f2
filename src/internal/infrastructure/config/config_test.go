package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithRequiredRemote(t *testing.T) {
	// Arrange
	t.Setenv("REMOTE_BASE_URL", "https://api.example.com/")

	// Act
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "loyalty.db", cfg.DatabasePath)
	assert.Equal(t, "https://api.example.com/healthz", cfg.HealthURL)
	assert.Equal(t, 3, cfg.SyncMaxAttempts)
	assert.Equal(t, 180*24*time.Hour, cfg.ExpirationWindow())
	assert.Equal(t, 30*24*time.Hour, cfg.WarningWindow())
	assert.True(t, cfg.PointsBaseRate.Equal(decimal.RequireFromString("0.1")))
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	// Arrange
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "REMOTE_BASE_URL=https://remote.test\n" +
		"SYNC_INTERVAL=90s\n" +
		"SYNC_MAX_ATTEMPTS=5\n" +
		"LOG_LEVEL=DEBUG\n" +
		"REFERRAL_RATE=0.2\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))
	t.Setenv("SYNC_MAX_ATTEMPTS", "7")
	t.Cleanup(func() {
		for _, k := range []string{"REMOTE_BASE_URL", "SYNC_INTERVAL", "LOG_LEVEL", "REFERRAL_RATE"} {
			_ = os.Unsetenv(k)
		}
	})

	// Act
	cfg, err := config.Load(envFile)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "https://remote.test", cfg.RemoteBaseURL)
	assert.Equal(t, 90*time.Second, cfg.SyncInterval)
	assert.Equal(t, 7, cfg.SyncMaxAttempts, "已存在的環境變數優先")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.ReferralRate.Equal(decimal.RequireFromString("0.2")))
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"缺少遠端位址", map[string]string{"REMOTE_BASE_URL": ""}},
		{"無效的 duration", map[string]string{"REMOTE_BASE_URL": "https://r.test", "SYNC_INTERVAL": "soon"}},
		{"無效的整數", map[string]string{"REMOTE_BASE_URL": "https://r.test", "SYNC_MAX_ATTEMPTS": "many"}},
		{"重試次數為 0", map[string]string{"REMOTE_BASE_URL": "https://r.test", "SYNC_MAX_ATTEMPTS": "0"}},
		{"提醒視窗不小於過期視窗", map[string]string{"REMOTE_BASE_URL": "https://r.test", "EXPIRATION_WARNING_DAYS": "200"}},
		{"未知的日誌等級", map[string]string{"REMOTE_BASE_URL": "https://r.test", "LOG_LEVEL": "loud"}},
		{"無效的回饋率", map[string]string{"REMOTE_BASE_URL": "https://r.test", "POINTS_BASE_RATE": "ten"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			// Act
			_, err := config.Load(filepath.Join(t.TempDir(), "none.env"))

			// Assert
			assert.Error(t, err)
		})
	}
}
