package referral

import "github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"

// ===========================
// Repository Interfaces
// ===========================

// ChainRepository 推薦鏈倉儲
//
// Write Operations - ctx 必須 non-nil：
//   - Save(): 重複用戶返回 ErrChainAlreadyExists
//   - Update(): 只更新累計分潤（拓撲不可變）
//
// Read Operations - ctx 可為 nil：
//   - FindByUser(): 找不到返回 ErrChainNotFound
type ChainRepository interface {
	Save(ctx shared.TransactionContext, c *Chain) error

	Update(ctx shared.TransactionContext, c *Chain) error

	FindByUser(ctx shared.TransactionContext, userID shared.UserID) (*Chain, error)

	ExistsByUser(ctx shared.TransactionContext, userID shared.UserID) (bool, error)
}

// DistributionRecordRepository 分潤記錄倉儲
//
//   - Save(): eventKey 重複返回 ErrDistributionAlreadyApplied
//   - FindByEventKey(): 找不到返回 ErrDistributionNotFound
type DistributionRecordRepository interface {
	Save(ctx shared.TransactionContext, r *DistributionRecord) error

	FindByEventKey(ctx shared.TransactionContext, eventKey string) (*DistributionRecord, error)
}
