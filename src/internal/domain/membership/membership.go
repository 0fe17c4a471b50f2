package membership

import (
	"fmt"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ===========================
// Membership Aggregate Root
// ===========================

// Membership 場館會籍聚合根
//
// 聚合邊界：
// - 積分餘額（pointsBalance）與累計消費（totalSpent）
// - 目前等級與等級時間戳（tierSince, tierResetAt, tierDowngradedAt）
// - 活躍度（lastActivityDate, nextExpirationDate, visitCount）
//
// 不變量（Invariants）：
//  1. (userID, venueID) 唯一：同一用戶在同一場館只有一個會籍
//  2. pointsBalance >= 0（由 PointsAmount 保證）
//  3. totalSpent 只增不減，唯一例外是 zero_spend 模式的等級重置
//     （降級不動 totalSpent，而是提高 tierSpendOffset，見 QualifyingSpend）
//  4. 已停用（isActive = false）的會籍不能入帳或扣點，且永不硬刪除
//
// 等級的升降由 tier.Engine 決定，聚合只負責套用變更並記錄事件。
type Membership struct {
	id      MembershipID
	userID  shared.UserID
	venueID shared.VenueID

	pointsBalance points.PointsAmount
	totalSpent    decimal.Decimal
	visitCount    int

	tier             string
	tierSince        time.Time
	tierResetAt      *time.Time
	tierDowngradedAt *time.Time
	tierSpendOffset  decimal.Decimal // 降級後不再計入等級的消費

	joinedAt           time.Time
	lastActivityDate   time.Time
	nextExpirationDate *time.Time
	isActive           bool

	updatedAt time.Time
	version   int // 樂觀鎖版本號

	events shared.EventRecorder
}

// NewMembership 創建新會籍（Checked Constructor）
//
// 業務規則：
// 1. userID 與 venueID 不能為空
// 2. 初始等級為場館設定的最低等級（由呼叫端提供）
// 3. 初始餘額 0、累計消費 0，lastActivityDate = joinedAt
func NewMembership(
	userID shared.UserID,
	venueID shared.VenueID,
	baseTier string,
	now time.Time,
) (*Membership, error) {
	if userID.IsEmpty() {
		return nil, shared.ErrInvalidUserID.WithContext("reason", "userID cannot be empty")
	}
	if venueID.IsEmpty() {
		return nil, shared.ErrInvalidVenueID.WithContext("reason", "venueID cannot be empty")
	}
	if baseTier == "" {
		return nil, ErrInvalidTier.WithContext("reason", "base tier cannot be empty")
	}

	m := &Membership{
		id:               NewMembershipID(),
		userID:           userID,
		venueID:          venueID,
		pointsBalance:    points.Zero(),
		totalSpent:       decimal.Zero,
		tierSpendOffset:  decimal.Zero,
		tier:             baseTier,
		tierSince:        now,
		joinedAt:         now,
		lastActivityDate: now,
		isActive:         true,
		updatedAt:        now,
		version:          1,
	}

	m.events.Record(NewMembershipCreatedEvent(m.id, userID, venueID, baseTier, now))
	return m, nil
}

// Snapshot 會籍的完整狀態（持久化層用來重建與映射）
type Snapshot struct {
	ID                 MembershipID
	UserID             shared.UserID
	VenueID            shared.VenueID
	PointsBalance      points.PointsAmount
	TotalSpent         decimal.Decimal
	VisitCount         int
	Tier               string
	TierSince          time.Time
	TierResetAt        *time.Time
	TierDowngradedAt   *time.Time
	TierSpendOffset    decimal.Decimal
	JoinedAt           time.Time
	LastActivityDate   time.Time
	NextExpirationDate *time.Time
	IsActive           bool
	UpdatedAt          time.Time
	Version            int
}

// ReconstructMembership 重建會籍聚合（用於從資料庫載入，不記錄事件）
func ReconstructMembership(s Snapshot) *Membership {
	return &Membership{
		id:                 s.ID,
		userID:             s.UserID,
		venueID:            s.VenueID,
		pointsBalance:      s.PointsBalance,
		totalSpent:         s.TotalSpent,
		visitCount:         s.VisitCount,
		tier:               s.Tier,
		tierSince:          s.TierSince,
		tierResetAt:        copyTime(s.TierResetAt),
		tierDowngradedAt:   copyTime(s.TierDowngradedAt),
		tierSpendOffset:    s.TierSpendOffset,
		joinedAt:           s.JoinedAt,
		lastActivityDate:   s.LastActivityDate,
		nextExpirationDate: copyTime(s.NextExpirationDate),
		isActive:           s.IsActive,
		updatedAt:          s.UpdatedAt,
		version:            s.Version,
	}
}

// Snapshot 匯出目前狀態
func (m *Membership) Snapshot() Snapshot {
	return Snapshot{
		ID:                 m.id,
		UserID:             m.userID,
		VenueID:            m.venueID,
		PointsBalance:      m.pointsBalance,
		TotalSpent:         m.totalSpent,
		VisitCount:         m.visitCount,
		Tier:               m.tier,
		TierSince:          m.tierSince,
		TierResetAt:        copyTime(m.tierResetAt),
		TierDowngradedAt:   copyTime(m.tierDowngradedAt),
		TierSpendOffset:    m.tierSpendOffset,
		JoinedAt:           m.joinedAt,
		LastActivityDate:   m.lastActivityDate,
		NextExpirationDate: copyTime(m.nextExpirationDate),
		IsActive:           m.isActive,
		UpdatedAt:          m.updatedAt,
		Version:            m.version,
	}
}

// ===========================
// 積分行為
// ===========================

// CreditPoints 入帳積分並累加消費金額
//
// spend 為本次消費金額（純打卡為 0），會累加到 totalSpent 供等級計算。
func (m *Membership) CreditPoints(
	amount points.PointsAmount,
	spend decimal.Decimal,
	source points.PointsSource,
	sourceID string,
	now time.Time,
) error {
	if !m.isActive {
		return ErrMembershipInactive.WithContext("membership_id", m.id.String())
	}
	if spend.IsNegative() {
		return ErrInvalidSpend.WithContext("spend", spend.String())
	}

	m.pointsBalance = m.pointsBalance.Add(amount)
	m.totalSpent = m.totalSpent.Add(spend)
	m.touch(now)

	m.events.Record(NewPointsCreditedEvent(m.id, amount, spend, source, sourceID, now))
	return nil
}

// DebitPoints 扣除積分（兌換獎勵）
func (m *Membership) DebitPoints(amount points.PointsAmount, reason string, now time.Time) error {
	if !m.isActive {
		return ErrMembershipInactive.WithContext("membership_id", m.id.String())
	}

	remaining, err := m.pointsBalance.Subtract(amount)
	if err != nil {
		return fmt.Errorf("debit %d points (%s): %w", amount.Value(), reason, err)
	}

	m.pointsBalance = remaining
	m.touch(now)

	m.events.Record(NewPointsDebitedEvent(m.id, amount, reason, now))
	return nil
}

// ExpireAllPoints 將餘額歸零並返回被過期的積分
//
// 餘額已為 0 時不做任何變更（不記錄事件）。
func (m *Membership) ExpireAllPoints(now time.Time) points.PointsAmount {
	expired := m.pointsBalance
	if expired.IsZero() {
		return expired
	}

	m.pointsBalance = points.Zero()
	m.touch(now)

	m.events.Record(NewPointsExpiredEvent(m.id, expired, now))
	return expired
}

// RecordVisit 累加到訪次數（徽章條件使用）
func (m *Membership) RecordVisit(now time.Time) {
	m.visitCount++
	m.touch(now)
}

// RecordActivity 重置活躍時間與過期視窗
//
// nextExpirationDate = now + window；window <= 0 時只清除下次過期日。
func (m *Membership) RecordActivity(now time.Time, window time.Duration) {
	m.lastActivityDate = now
	if window > 0 {
		next := now.Add(window)
		m.nextExpirationDate = &next
	} else {
		m.nextExpirationDate = nil
	}
	m.touch(now)
}

// ScheduleExpiration 補上缺少的下次過期日（不改變活躍時間）
func (m *Membership) ScheduleExpiration(at time.Time, now time.Time) {
	m.nextExpirationDate = &at
	m.touch(now)
}

// ===========================
// 等級行為（由 tier.Engine 呼叫）
// ===========================

// UpgradeTier 升級
func (m *Membership) UpgradeTier(to string, now time.Time) error {
	if to == "" {
		return ErrInvalidTier
	}
	from := m.tier
	if from == to {
		return nil
	}
	m.tier = to
	m.tierSince = now
	m.touch(now)

	m.events.Record(NewTierChangedEvent(EventTypeTierUpgraded, m.id, from, to, now))
	return nil
}

// DowngradeTier 降級，並記錄 tierDowngradedAt 作為下一次不活躍判定的起點
//
// floor 為新等級的最低消費門檻：降級後的計級消費（QualifyingSpend）被壓到 floor，
// 之後必須有新的消費才會再次升級。totalSpent 本身不變。
func (m *Membership) DowngradeTier(to string, floor decimal.Decimal, now time.Time) error {
	if to == "" {
		return ErrInvalidTier
	}
	from := m.tier
	if from == to {
		return nil
	}
	if qualifying := m.QualifyingSpend(); qualifying.GreaterThan(floor) {
		m.tierSpendOffset = m.tierSpendOffset.Add(qualifying.Sub(floor))
	}
	m.tier = to
	m.tierSince = now
	m.tierDowngradedAt = &now
	m.touch(now)

	m.events.Record(NewTierChangedEvent(EventTypeTierDowngraded, m.id, from, to, now))
	return nil
}

// ResetTier 週期性等級重置
//
// zeroSpend 為 true 時累計消費歸零（唯一允許 totalSpent 減少的路徑）；
// 兩種模式都會清除降級造成的 tierSpendOffset。
func (m *Membership) ResetTier(to string, zeroSpend bool, now time.Time) error {
	if to == "" {
		return ErrInvalidTier
	}
	from := m.tier
	if zeroSpend {
		m.totalSpent = decimal.Zero
	}
	m.tierSpendOffset = decimal.Zero
	if from != to {
		m.tier = to
		m.tierSince = now
	}
	m.tierResetAt = &now
	m.touch(now)

	m.events.Record(NewTierChangedEvent(EventTypeTierReset, m.id, from, to, now))
	return nil
}

// Deactivate 停用會籍（軟刪除）
func (m *Membership) Deactivate(now time.Time) {
	if !m.isActive {
		return
	}
	m.isActive = false
	m.touch(now)
}

func (m *Membership) touch(now time.Time) {
	m.updatedAt = now
}

// PullEvents 取出待發布事件
func (m *Membership) PullEvents() []shared.DomainEvent {
	return m.events.PullEvents()
}

// ===========================
// Getters
// ===========================

func (m *Membership) ID() MembershipID                   { return m.id }
func (m *Membership) UserID() shared.UserID              { return m.userID }
func (m *Membership) VenueID() shared.VenueID            { return m.venueID }
func (m *Membership) PointsBalance() points.PointsAmount { return m.pointsBalance }

// QualifyingSpend 計級消費 = totalSpent - tierSpendOffset（不小於 0）
func (m *Membership) QualifyingSpend() decimal.Decimal {
	q := m.totalSpent.Sub(m.tierSpendOffset)
	if q.IsNegative() {
		return decimal.Zero
	}
	return q
}

func (m *Membership) TotalSpent() decimal.Decimal    { return m.totalSpent }
func (m *Membership) VisitCount() int                { return m.visitCount }
func (m *Membership) Tier() string                   { return m.tier }
func (m *Membership) TierSince() time.Time           { return m.tierSince }
func (m *Membership) TierResetAt() *time.Time        { return copyTime(m.tierResetAt) }
func (m *Membership) TierDowngradedAt() *time.Time   { return copyTime(m.tierDowngradedAt) }
func (m *Membership) JoinedAt() time.Time            { return m.joinedAt }
func (m *Membership) LastActivityDate() time.Time    { return m.lastActivityDate }
func (m *Membership) NextExpirationDate() *time.Time { return copyTime(m.nextExpirationDate) }
func (m *Membership) IsActive() bool                 { return m.isActive }
func (m *Membership) UpdatedAt() time.Time           { return m.updatedAt }
func (m *Membership) Version() int                   { return m.version }

// IncrementVersion 由 Repository 在成功更新後呼叫
func (m *Membership) IncrementVersion() {
	m.version++
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
