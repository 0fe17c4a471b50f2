// Package persistence 本地資料庫（SQLite + GORM）與事務管理
package persistence

import (
	"fmt"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/expiration"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/streak"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 開啟 SQLite 資料庫
//
// SQLite 同一時間只允許一個寫入者，連線池限制為 1，
// 所有讀寫因此在程序內排隊；事務內的查詢必須使用事務上下文。
func Open(dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// Models 所有資料表模型（遷移順序）
func Models() []interface{} {
	return []interface{}{
		&membership.MembershipGORM{},
		&points.LedgerEntryGORM{},
		&streak.CheckInGORM{},
		&referral.ChainGORM{},
		&referral.DistributionRecordGORM{},
		&referral.DistributionPayoutGORM{},
		&expiration.PointExpirationGORM{},
		&offline.PendingActionGORM{},
	}
}

// Migrate 建立或更新資料表結構
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
