package observability

import (
	"log/slog"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

// EventPublisher 將領域事件寫入日誌並更新指標
//
// 事件在事務提交後發布；發布永遠不返回錯誤。
type EventPublisher struct {
	metrics *Metrics
	logger  *slog.Logger
}

var _ shared.EventPublisher = (*EventPublisher)(nil)

// NewEventPublisher 建立發布器，metrics 可為 nil
func NewEventPublisher(metrics *Metrics, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{metrics: metrics, logger: logger}
}

// Publish 發布單一事件
func (p *EventPublisher) Publish(event shared.DomainEvent) error {
	p.logger.Info("domain event",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"aggregate_id", event.AggregateID(),
		"occurred_at", event.OccurredAt(),
	)
	if p.metrics != nil {
		p.record(event)
	}
	return nil
}

// PublishBatch 依序發布
func (p *EventPublisher) PublishBatch(events []shared.DomainEvent) error {
	for _, e := range events {
		if err := p.Publish(e); err != nil {
			return err
		}
	}
	return nil
}

func (p *EventPublisher) record(event shared.DomainEvent) {
	switch e := event.(type) {
	case *membership.MembershipCreatedEvent:
		p.metrics.MembershipsCreated.Inc()
	case *membership.PointsCreditedEvent:
		p.metrics.PointsCredited.WithLabelValues(string(e.Source)).Add(float64(e.Amount.Value()))
	case *membership.PointsDebitedEvent:
		p.metrics.PointsDebited.Add(float64(e.Amount.Value()))
	case *membership.PointsExpiredEvent:
		p.metrics.PointsExpired.Add(float64(e.Amount.Value()))
	case *membership.TierChangedEvent:
		p.metrics.TierChanges.WithLabelValues(tierChangeKind(e.EventType())).Inc()
	}
}

func tierChangeKind(eventType string) string {
	switch eventType {
	case membership.EventTypeTierUpgraded:
		return "upgraded"
	case membership.EventTypeTierDowngraded:
		return "downgraded"
	default:
		return "reset"
	}
}
