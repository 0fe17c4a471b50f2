package expiration

import (
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

// Repository 過期追蹤倉儲
//
// Write Operations - ctx 必須 non-nil：Save / Update
//
// Read Operations - ctx 可為 nil：
//   - FindByID / FindTrackingByMembership: 找不到返回 ErrExpirationNotFound
//   - FindPendingRemoteNotify: 已過期、未通知遠端且嘗試次數 < maxAttempts
//   - FindExpiringByUser: 用戶所有追蹤中的記錄，依過期日排序
type Repository interface {
	Save(ctx shared.TransactionContext, e *PointExpiration) error

	Update(ctx shared.TransactionContext, e *PointExpiration) error

	FindByID(ctx shared.TransactionContext, id ExpirationID) (*PointExpiration, error)

	// FindTrackingByMembership 會籍目前追蹤中（isExpired = false）的記錄
	FindTrackingByMembership(ctx shared.TransactionContext, membershipID membership.MembershipID) (*PointExpiration, error)

	FindPendingRemoteNotify(ctx shared.TransactionContext, maxAttempts int) ([]*PointExpiration, error)

	FindExpiringByUser(ctx shared.TransactionContext, userID shared.UserID) ([]*PointExpiration, error)
}
