package persistence

import (
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"gorm.io/gorm"
)

// GORMTransactionManager 以 gorm.DB.Transaction 實作 shared.TransactionManager
//
// fn 返回錯誤時回滾；fn panic 時回滾後重新 panic。
type GORMTransactionManager struct {
	db *gorm.DB
}

var _ shared.TransactionManager = (*GORMTransactionManager)(nil)

// NewGORMTransactionManager 創建事務管理器
func NewGORMTransactionManager(db *gorm.DB) *GORMTransactionManager {
	return &GORMTransactionManager{db: db}
}

// InTransaction 在單一資料庫事務中執行 fn
func (m *GORMTransactionManager) InTransaction(fn func(ctx shared.TransactionContext) error) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMTransactionContext(tx))
	})
}
