// Package persistencetest 倉儲整合測試的輔助函數
package persistencetest

import (
	"testing"

	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 創建測試用的 SQLite in-memory 資料庫並完成遷移
//
// 連線池限制為 1，in-memory 資料庫因此在整個測試中是同一個；
// 測試結束時自動關閉。
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := persistence.Open(":memory:", logger.Silent)
	require.NoError(t, err, "failed to connect to test database")
	require.NoError(t, persistence.Migrate(db), "failed to migrate test database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
