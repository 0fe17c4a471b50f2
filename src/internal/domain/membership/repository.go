package membership

import (
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

// ===========================
// Repository Interface
// ===========================

// Repository 會籍倉儲接口
//
// 事務管理策略：
//
// Write Operations - ctx 必須 non-nil：
//   - Save(): 新增會籍，(user, venue) 重複時返回 ErrMembershipAlreadyExists
//   - Update(): 以 version 做樂觀鎖，衝突時返回 ErrConcurrentModification
//
// Read Operations - ctx 可為 nil：
//   - FindByID / FindByUserAndVenue: 找不到時返回 ErrMembershipNotFound
//   - FindByUser / FindActive / FindWithBalance: 找不到時返回空切片
//
// 範例（入帳與等級變更在同一事務）：
//
//	txManager.InTransaction(func(ctx shared.TransactionContext) error {
//	    m, err := repo.FindByID(ctx, id)
//	    if err != nil {
//	        return err
//	    }
//	    if err := m.CreditPoints(amount, spend, source, sourceID, now); err != nil {
//	        return err
//	    }
//	    return repo.Update(ctx, m)
//	})
type Repository interface {
	Save(ctx shared.TransactionContext, m *Membership) error

	Update(ctx shared.TransactionContext, m *Membership) error

	FindByID(ctx shared.TransactionContext, id MembershipID) (*Membership, error)

	FindByUserAndVenue(ctx shared.TransactionContext, userID shared.UserID, venueID shared.VenueID) (*Membership, error)

	FindByUser(ctx shared.TransactionContext, userID shared.UserID) ([]*Membership, error)

	// FindActive 所有啟用中的會籍（等級維護任務使用）
	FindActive(ctx shared.TransactionContext) ([]*Membership, error)

	// FindWithBalance 啟用中且餘額 > 0 的會籍（過期排程使用）
	FindWithBalance(ctx shared.TransactionContext) ([]*Membership, error)

	ExistsByUserAndVenue(ctx shared.TransactionContext, userID shared.UserID, venueID shared.VenueID) (bool, error)
}
