package membership

import (
	"log/slog"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

// publishEvents 事務提交後發布事件；發布失敗只記錄，不影響已提交的狀態
func publishEvents(publisher shared.EventPublisher, logger *slog.Logger, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.PublishBatch(events); err != nil {
		logger.Warn("publish domain events failed", "count", len(events), "error", err)
	}
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
