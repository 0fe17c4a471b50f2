package persistence

import (
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"gorm.io/gorm"
)

// ===========================
// GORM TransactionContext 實作
// ===========================

// gormTransactionContext GORM 事務上下文實作
//
// 實作 shared.TransactionContext 標記介面，封裝 *gorm.DB，
// 各倉儲透過 GetDB() 取得事務連線（見 gormtx.DB）。
type gormTransactionContext struct {
	db *gorm.DB
}

// NewGORMTransactionContext 創建 GORM 事務上下文
func NewGORMTransactionContext(db *gorm.DB) shared.TransactionContext {
	return &gormTransactionContext{db: db}
}

// GetDB 獲取 GORM DB 連接（僅供 Infrastructure Layer 內部使用）
// 注意：這個方法不在 shared.TransactionContext 介面中
func (ctx *gormTransactionContext) GetDB() *gorm.DB {
	return ctx.db
}
