package expiration

import (
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

// ExpirationMarker 是 ExpirationID 的標記類型
type ExpirationMarker struct{}

// ExpirationID 過期追蹤記錄 ID
type ExpirationID = shared.EntityID[ExpirationMarker]

// NewExpirationID 生成新的追蹤記錄 ID
func NewExpirationID() ExpirationID {
	return shared.NewEntityID[ExpirationMarker]()
}

// ExpirationIDFromString 從字串解析追蹤記錄 ID
func ExpirationIDFromString(s string) (ExpirationID, error) {
	return shared.EntityIDFromString[ExpirationMarker](s, ErrInvalidExpirationID)
}

// Urgency 過期緊急程度
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
	UrgencyExpired  Urgency = "expired"
)

// ===========================
// PointExpiration 聚合根
// ===========================

// PointExpiration 會籍的積分過期追蹤記錄
//
// 生命週期：
//   - 追蹤中（isExpired = false）：每次排程更新 pointsAtRisk 與過期日
//   - 已過期（isExpired = true）：終態，只剩遠端通知狀態會變更
//
// 同一會籍同時最多只有一筆追蹤中的記錄。
type PointExpiration struct {
	id               ExpirationID
	membershipID     membership.MembershipID
	userID           shared.UserID
	venueID          shared.VenueID
	pointsAtRisk     points.PointsAmount
	lastActivityDate time.Time
	expirationDate   time.Time

	warningSentAt        *time.Time
	userDismissedWarning bool
	remindLaterDate      *time.Time

	isExpired            bool
	expirationExecutedAt *time.Time
	remoteNotifiedAt     *time.Time
	notifyAttempts       int

	createdAt time.Time
	updatedAt time.Time
}

// NewTracking 為即將過期的會籍建立追蹤記錄
func NewTracking(m *membership.Membership, expirationDate, now time.Time) *PointExpiration {
	return &PointExpiration{
		id:               NewExpirationID(),
		membershipID:     m.ID(),
		userID:           m.UserID(),
		venueID:          m.VenueID(),
		pointsAtRisk:     m.PointsBalance(),
		lastActivityDate: m.LastActivityDate(),
		expirationDate:   expirationDate,
		createdAt:        now,
		updatedAt:        now,
	}
}

// MarkExpired 將追蹤記錄轉為已過期（只會發生一次）
func (e *PointExpiration) MarkExpired(expired points.PointsAmount, now time.Time) error {
	if e.isExpired {
		return ErrAlreadyExpired.WithContext("expiration_id", e.id.String())
	}
	e.pointsAtRisk = expired
	e.isExpired = true
	e.expirationExecutedAt = &now
	e.updatedAt = now
	return nil
}

// Refresh 以會籍目前狀態更新追蹤記錄
//
// 過期日改變表示會籍在期間內有活動，提醒狀態重新開始計算。
func (e *PointExpiration) Refresh(pointsAtRisk points.PointsAmount, lastActivity, expirationDate, now time.Time) error {
	if e.isExpired {
		return ErrAlreadyExpired.WithContext("expiration_id", e.id.String())
	}
	if !expirationDate.Equal(e.expirationDate) {
		e.warningSentAt = nil
		e.userDismissedWarning = false
		e.remindLaterDate = nil
	}
	e.pointsAtRisk = pointsAtRisk
	e.lastActivityDate = lastActivity
	e.expirationDate = expirationDate
	e.updatedAt = now
	return nil
}

// ===========================
// 提醒
// ===========================

// ShouldSendWarning 是否需要發送過期提醒
//
// 已過期或使用者已關閉提醒時不發送；已發送過則只在「稍後提醒」時間到了才再發送。
func (e *PointExpiration) ShouldSendWarning(now time.Time) bool {
	if e.isExpired || e.userDismissedWarning {
		return false
	}
	if e.warningSentAt == nil {
		return e.remindLaterDate == nil || !now.Before(*e.remindLaterDate)
	}
	return e.remindLaterDate != nil && !now.Before(*e.remindLaterDate)
}

// MarkWarningSent 記錄已發送提醒，並清除稍後提醒時間
func (e *PointExpiration) MarkWarningSent(now time.Time) {
	e.warningSentAt = &now
	e.remindLaterDate = nil
	e.updatedAt = now
}

// Dismiss 使用者關閉提醒
func (e *PointExpiration) Dismiss(now time.Time) {
	e.userDismissedWarning = true
	e.remindLaterDate = nil
	e.updatedAt = now
}

// RemindLater 使用者選擇 days 天後再提醒
func (e *PointExpiration) RemindLater(days int, now time.Time) error {
	if days <= 0 {
		return ErrInvalidRemindDays.WithContext("days", days)
	}
	at := now.AddDate(0, 0, days)
	e.remindLaterDate = &at
	e.updatedAt = now
	return nil
}

// ===========================
// 遠端通知
// ===========================

// NeedsRemoteNotify 已過期但尚未成功通知遠端，且未超過重試上限
func (e *PointExpiration) NeedsRemoteNotify(maxAttempts int) bool {
	return e.isExpired && e.remoteNotifiedAt == nil && e.notifyAttempts < maxAttempts
}

// RecordNotifyAttempt 記錄一次遠端通知嘗試
func (e *PointExpiration) RecordNotifyAttempt(succeeded bool, now time.Time) {
	e.notifyAttempts++
	if succeeded {
		e.remoteNotifiedAt = &now
	}
	e.updatedAt = now
}

// ===========================
// 查詢方法
// ===========================

// DaysUntilExpiry 距離過期的天數（已過期為 0）
func (e *PointExpiration) DaysUntilExpiry(now time.Time) int {
	if e.isExpired {
		return 0
	}
	return DaysUntil(e.expirationDate, now)
}

// UrgencyAt 依剩餘天數分級
func (e *PointExpiration) UrgencyAt(now time.Time) Urgency {
	if e.isExpired || !now.Before(e.expirationDate) {
		return UrgencyExpired
	}
	days := e.DaysUntilExpiry(now)
	switch {
	case days <= 7:
		return UrgencyCritical
	case days <= 14:
		return UrgencyHigh
	case days <= 30:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

func (e *PointExpiration) ID() ExpirationID                      { return e.id }
func (e *PointExpiration) MembershipID() membership.MembershipID { return e.membershipID }
func (e *PointExpiration) UserID() shared.UserID                 { return e.userID }
func (e *PointExpiration) VenueID() shared.VenueID               { return e.venueID }
func (e *PointExpiration) PointsAtRisk() points.PointsAmount     { return e.pointsAtRisk }
func (e *PointExpiration) LastActivityDate() time.Time           { return e.lastActivityDate }
func (e *PointExpiration) ExpirationDate() time.Time             { return e.expirationDate }
func (e *PointExpiration) WarningSentAt() *time.Time             { return copyTime(e.warningSentAt) }
func (e *PointExpiration) UserDismissedWarning() bool            { return e.userDismissedWarning }
func (e *PointExpiration) RemindLaterDate() *time.Time           { return copyTime(e.remindLaterDate) }
func (e *PointExpiration) IsExpired() bool                       { return e.isExpired }
func (e *PointExpiration) ExpirationExecutedAt() *time.Time      { return copyTime(e.expirationExecutedAt) }
func (e *PointExpiration) RemoteNotifiedAt() *time.Time          { return copyTime(e.remoteNotifiedAt) }
func (e *PointExpiration) NotifyAttempts() int                   { return e.notifyAttempts }
func (e *PointExpiration) CreatedAt() time.Time                  { return e.createdAt }
func (e *PointExpiration) UpdatedAt() time.Time                  { return e.updatedAt }

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ===========================
// 重建
// ===========================

// Snapshot 持久化用的完整狀態
type Snapshot struct {
	ID                   ExpirationID
	MembershipID         membership.MembershipID
	UserID               shared.UserID
	VenueID              shared.VenueID
	PointsAtRisk         points.PointsAmount
	LastActivityDate     time.Time
	ExpirationDate       time.Time
	WarningSentAt        *time.Time
	UserDismissedWarning bool
	RemindLaterDate      *time.Time
	IsExpired            bool
	ExpirationExecutedAt *time.Time
	RemoteNotifiedAt     *time.Time
	NotifyAttempts       int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Reconstruct 從持久化狀態重建（不做業務驗證）
func Reconstruct(s Snapshot) *PointExpiration {
	return &PointExpiration{
		id:                   s.ID,
		membershipID:         s.MembershipID,
		userID:               s.UserID,
		venueID:              s.VenueID,
		pointsAtRisk:         s.PointsAtRisk,
		lastActivityDate:     s.LastActivityDate,
		expirationDate:       s.ExpirationDate,
		warningSentAt:        copyTime(s.WarningSentAt),
		userDismissedWarning: s.UserDismissedWarning,
		remindLaterDate:      copyTime(s.RemindLaterDate),
		isExpired:            s.IsExpired,
		expirationExecutedAt: copyTime(s.ExpirationExecutedAt),
		remoteNotifiedAt:     copyTime(s.RemoteNotifiedAt),
		notifyAttempts:       s.NotifyAttempts,
		createdAt:            s.CreatedAt,
		updatedAt:            s.UpdatedAt,
	}
}

// Snapshot 導出完整狀態
func (e *PointExpiration) Snapshot() Snapshot {
	return Snapshot{
		ID:                   e.id,
		MembershipID:         e.membershipID,
		UserID:               e.userID,
		VenueID:              e.venueID,
		PointsAtRisk:         e.pointsAtRisk,
		LastActivityDate:     e.lastActivityDate,
		ExpirationDate:       e.expirationDate,
		WarningSentAt:        e.WarningSentAt(),
		UserDismissedWarning: e.userDismissedWarning,
		RemindLaterDate:      e.RemindLaterDate(),
		IsExpired:            e.isExpired,
		ExpirationExecutedAt: e.ExpirationExecutedAt(),
		RemoteNotifiedAt:     e.RemoteNotifiedAt(),
		NotifyAttempts:       e.notifyAttempts,
		CreatedAt:            e.createdAt,
		UpdatedAt:            e.updatedAt,
	}
}
