package shared

import "time"

// DomainEvent 領域事件基礎介面
type DomainEvent interface {
	EventID() string       // 事件唯一標識
	EventType() string     // 事件類型
	OccurredAt() time.Time // 發生時間
	AggregateID() string   // 聚合根 ID
}

// EventPublisher 事件發布器介面
// 設計原則：介面定義在 Domain Layer（使用者），由 Infrastructure 實作
type EventPublisher interface {
	Publish(event DomainEvent) error
	PublishBatch(events []DomainEvent) error
}

// ===========================
// EventRecorder 聚合根事件暫存
// ===========================

// EventRecorder 嵌入聚合根，保存待發布的領域事件
//
// Pull 模式：聚合根不依賴 EventPublisher，
// Repository 保存成功後由 Application Layer 呼叫 PullEvents 取出並發布。
type EventRecorder struct {
	events []DomainEvent
}

// Record 添加領域事件到待發布列表
func (r *EventRecorder) Record(event DomainEvent) {
	r.events = append(r.events, event)
}

// PullEvents 獲取所有待發布事件並清空列表
func (r *EventRecorder) PullEvents() []DomainEvent {
	events := r.events
	r.events = nil
	if events == nil {
		return []DomainEvent{}
	}
	return events
}
