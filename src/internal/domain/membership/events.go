package membership

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// 事件類型
const (
	EventTypeMembershipCreated = "membership.created"
	EventTypePointsCredited    = "membership.points_credited"
	EventTypePointsDebited     = "membership.points_debited"
	EventTypePointsExpired     = "membership.points_expired"
	EventTypeTierUpgraded      = "membership.tier_upgraded"
	EventTypeTierDowngraded    = "membership.tier_downgraded"
	EventTypeTierReset         = "membership.tier_reset"
)

// baseEvent 實現 shared.DomainEvent 的共用部分
type baseEvent struct {
	eventID      string
	eventType    string
	membershipID MembershipID
	occurredAt   time.Time
}

func newBaseEvent(eventType string, id MembershipID, at time.Time) baseEvent {
	return baseEvent{
		eventID:      uuid.New().String(),
		eventType:    eventType,
		membershipID: id,
		occurredAt:   at,
	}
}

func (e baseEvent) EventID() string            { return e.eventID }
func (e baseEvent) EventType() string          { return e.eventType }
func (e baseEvent) OccurredAt() time.Time      { return e.occurredAt }
func (e baseEvent) AggregateID() string        { return e.membershipID.String() }
func (e baseEvent) MembershipID() MembershipID { return e.membershipID }

var (
	_ shared.DomainEvent = (*MembershipCreatedEvent)(nil)
	_ shared.DomainEvent = (*PointsCreditedEvent)(nil)
	_ shared.DomainEvent = (*PointsDebitedEvent)(nil)
	_ shared.DomainEvent = (*PointsExpiredEvent)(nil)
	_ shared.DomainEvent = (*TierChangedEvent)(nil)
)

// ===========================
// MembershipCreated
// ===========================

// MembershipCreatedEvent 會籍建立事件
type MembershipCreatedEvent struct {
	baseEvent
	UserID  shared.UserID
	VenueID shared.VenueID
	Tier    string
}

// NewMembershipCreatedEvent 創建會籍建立事件
func NewMembershipCreatedEvent(id MembershipID, userID shared.UserID, venueID shared.VenueID, tier string, at time.Time) *MembershipCreatedEvent {
	return &MembershipCreatedEvent{
		baseEvent: newBaseEvent(EventTypeMembershipCreated, id, at),
		UserID:    userID,
		VenueID:   venueID,
		Tier:      tier,
	}
}

// ===========================
// 積分事件
// ===========================

// PointsCreditedEvent 積分入帳事件
type PointsCreditedEvent struct {
	baseEvent
	Amount   points.PointsAmount
	Spend    decimal.Decimal
	Source   points.PointsSource
	SourceID string
}

// NewPointsCreditedEvent 創建積分入帳事件
func NewPointsCreditedEvent(
	id MembershipID,
	amount points.PointsAmount,
	spend decimal.Decimal,
	source points.PointsSource,
	sourceID string,
	at time.Time,
) *PointsCreditedEvent {
	return &PointsCreditedEvent{
		baseEvent: newBaseEvent(EventTypePointsCredited, id, at),
		Amount:    amount,
		Spend:     spend,
		Source:    source,
		SourceID:  sourceID,
	}
}

// PointsDebitedEvent 積分扣除事件
type PointsDebitedEvent struct {
	baseEvent
	Amount points.PointsAmount
	Reason string
}

// NewPointsDebitedEvent 創建積分扣除事件
func NewPointsDebitedEvent(id MembershipID, amount points.PointsAmount, reason string, at time.Time) *PointsDebitedEvent {
	return &PointsDebitedEvent{
		baseEvent: newBaseEvent(EventTypePointsDebited, id, at),
		Amount:    amount,
		Reason:    reason,
	}
}

// PointsExpiredEvent 積分過期事件
type PointsExpiredEvent struct {
	baseEvent
	Amount points.PointsAmount
}

// NewPointsExpiredEvent 創建積分過期事件
func NewPointsExpiredEvent(id MembershipID, amount points.PointsAmount, at time.Time) *PointsExpiredEvent {
	return &PointsExpiredEvent{
		baseEvent: newBaseEvent(EventTypePointsExpired, id, at),
		Amount:    amount,
	}
}

// ===========================
// 等級事件
// ===========================

// TierChangedEvent 等級變更事件（升級、降級、重置共用，以 EventType 區分）
type TierChangedEvent struct {
	baseEvent
	From string
	To   string
}

// NewTierChangedEvent 創建等級變更事件
func NewTierChangedEvent(eventType string, id MembershipID, from, to string, at time.Time) *TierChangedEvent {
	return &TierChangedEvent{
		baseEvent: newBaseEvent(eventType, id, at),
		From:      from,
		To:        to,
	}
}
