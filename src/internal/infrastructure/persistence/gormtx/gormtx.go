// Package gormtx 倉儲共用的 GORM 輔助函數
package gormtx

import (
	"strings"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"gorm.io/gorm"
)

// txContext persistence 套件的事務上下文（避免循環依賴，只依賴方法）
type txContext interface {
	shared.TransactionContext
	GetDB() *gorm.DB
}

// DB 獲取 GORM DB 實例
//
//   - ctx != nil: 使用事務中的 DB
//   - ctx == nil: 使用預設 DB（auto-commit 模式）
func DB(ctx shared.TransactionContext, fallback *gorm.DB) *gorm.DB {
	if ctx != nil {
		if tx, ok := ctx.(txContext); ok {
			return tx.GetDB()
		}
	}
	return fallback
}

// IsUniqueConstraintError 判斷是否為唯一約束錯誤
//
// 支持的資料庫：
// - PostgreSQL: "duplicate key value violates unique constraint"
// - SQLite: "UNIQUE constraint failed"
// - MySQL: "Duplicate entry"
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate entry")
}

// NullableString 空字串存為 NULL
func NullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue NULL 讀回空字串
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
