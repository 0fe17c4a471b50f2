// Package notification 使用者通知的 slog 實作
//
// 推播服務不在本系統範圍內；通知以結構化日誌輸出，由日誌管線轉送。
package notification

import (
	"context"
	"log/slog"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
)

// LogDispatcher 以結構化日誌發送過期提醒與過期通知
type LogDispatcher struct {
	logger *slog.Logger
}

var _ ports.NotificationDispatcher = (*LogDispatcher)(nil)

// NewLogDispatcher 建立通知器
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger.With("component", "notification")}
}

// SendWarning 即將過期提醒
func (d *LogDispatcher) SendWarning(ctx context.Context, n ports.ExpirationNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.logger.InfoContext(ctx, "points expiring soon",
		append(noticeAttrs(n), "days_left", n.DaysLeft)...,
	)
	return nil
}

// SendExpired 積分已過期通知
func (d *LogDispatcher) SendExpired(ctx context.Context, n ports.ExpirationNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.logger.InfoContext(ctx, "points expired", noticeAttrs(n)...)
	return nil
}

func noticeAttrs(n ports.ExpirationNotice) []any {
	return []any{
		"membership_id", n.MembershipID.String(),
		"user_id", n.UserID.String(),
		"venue_id", n.VenueID.String(),
		"points", n.Points.Value(),
		"expiration_date", n.ExpirationDate.Format("2006-01-02"),
	}
}
