package ports

import (
	"context"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ===========================
// 遠端帳本
// ===========================

// EarningEvent 外送給遠端的積分事件
type EarningEvent struct {
	EventKey     string
	MembershipID string
	UserID       string
	VenueID      string
	Source       string
	PointsEarned int
	Spend        decimal.Decimal
	Multiplier   decimal.Decimal
	OccurredAt   time.Time
}

// RemoteChain 遠端返回的推薦鏈（Referrers[0] 為第 1 層，空 ID 表示無推薦人）
type RemoteChain struct {
	UserID    shared.UserID
	Referrers [referral.MaxLevels]shared.UserID
}

// RemoteLedgerAPI 遠端帳本服務
//
// 所有方法在相同的冪等鍵下可安全重送。
type RemoteLedgerAPI interface {
	SubmitEarningEvent(ctx context.Context, event EarningEvent) error

	// FetchReferralChain 用戶沒有推薦鏈時返回 ErrRemoteNotFound
	FetchReferralChain(ctx context.Context, userID shared.UserID) (*RemoteChain, error)

	// SubmitReferralDistribution 返回遠端確認的分潤（推薦人 → 金額）
	SubmitReferralDistribution(ctx context.Context, eventKey string, userID shared.UserID, pointsEarned decimal.Decimal) (map[shared.UserID]decimal.Decimal, error)

	NotifyExpiration(ctx context.Context, idempotencyKey string, membershipID membership.MembershipID, pointsExpired points.PointsAmount) error

	NotifyActivity(ctx context.Context, membershipID membership.MembershipID, at time.Time) error
}

// ===========================
// 遠端 UI 動作
// ===========================

// RemoteActionAPI 離線佇列重送的使用者動作，key 為冪等鍵
type RemoteActionAPI interface {
	CheckIn(ctx context.Context, key string, p offline.CheckInPayload) error
	RSVP(ctx context.Context, key string, p offline.RSVPPayload) error
	JoinVenue(ctx context.Context, key string, p offline.JoinVenuePayload) error
	RedeemReward(ctx context.Context, key string, p offline.RedeemRewardPayload) error
	CreatePost(ctx context.Context, key string, p offline.CreatePostPayload) error
	LikePost(ctx context.Context, key string, p offline.LikePostPayload) error
	AddComment(ctx context.Context, key string, p offline.AddCommentPayload) error
	UpdateProfile(ctx context.Context, key string, p offline.UpdateProfilePayload) error
}

// ===========================
// 通知
// ===========================

// ExpirationNotice 過期提醒或過期通知內容
type ExpirationNotice struct {
	MembershipID   membership.MembershipID
	UserID         shared.UserID
	VenueID        shared.VenueID
	Points         points.PointsAmount
	ExpirationDate time.Time
	DaysLeft       int
}

// NotificationDispatcher 使用者通知（盡力而為）
type NotificationDispatcher interface {
	SendWarning(ctx context.Context, n ExpirationNotice) error
	SendExpired(ctx context.Context, n ExpirationNotice) error
}

// ===========================
// 連線狀態
// ===========================

// ConnectivityMonitor 每次「恢復連線」時送出一個訊號
type ConnectivityMonitor interface {
	Reachable() <-chan struct{}
}

// ===========================
// 並行控制
// ===========================

// MembershipLocker 以鍵序列化同一會籍的變更
type MembershipLocker interface {
	Lock(key string) (unlock func())
}

// ===========================
// 場館設定
// ===========================

// VenueSettings 場館的毛利與時區設定
type VenueSettings struct {
	VenueID  shared.VenueID
	Margins  points.VenueMargins
	Location *time.Location
}

// VenueDirectory 場館設定來源，未設定時返回 ErrVenueNotConfigured
type VenueDirectory interface {
	SettingsFor(venueID shared.VenueID) (*VenueSettings, error)
}

// ===========================
// 外送佇列
// ===========================

// ActionEnqueuer 在呼叫端事務中寫入離線動作（outbox）
type ActionEnqueuer interface {
	EnqueueWithContext(ctx shared.TransactionContext, payload offline.Payload, priority int) (*offline.PendingAction, error)
}

// ===========================
// 活躍重置
// ===========================

// ActivityRecorder 積分賺取或兌換時重置過期視窗
//
// RecordActivity 在呼叫端事務中更新會籍活躍時間並刷新追蹤中的過期記錄（會籍本身由呼叫端保存），
// NotifyActivity 在事務提交後盡力通知遠端。
type ActivityRecorder interface {
	RecordActivity(ctx shared.TransactionContext, m *membership.Membership, now time.Time) error
	NotifyActivity(ctx context.Context, id membership.MembershipID, at time.Time)
}
