package expiration

import "time"

const (
	// DefaultWindowDays 無活動多少天後積分過期
	DefaultWindowDays = 180
	// DefaultWarningDays 過期前多少天開始提醒
	DefaultWarningDays = 30
	// DefaultRemindLaterDays 使用者選擇「稍後提醒」的預設天數
	DefaultRemindLaterDays = 7
	// DefaultMaxNotifyAttempts 遠端過期通知最多重試次數
	DefaultMaxNotifyAttempts = 5
)

// Status 會籍在某時間點的過期狀態
type Status string

const (
	StatusActive   Status = "active"   // 距離過期超過提醒視窗
	StatusExpiring Status = "expiring" // 在提醒視窗內
	StatusExpired  Status = "expired"  // 已超過過期日
)

// Policy 過期策略
type Policy struct {
	Window        time.Duration
	WarningWindow time.Duration
}

// DefaultPolicy 180 天過期、30 天提醒
func DefaultPolicy() Policy {
	return Policy{
		Window:        DefaultWindowDays * 24 * time.Hour,
		WarningWindow: DefaultWarningDays * 24 * time.Hour,
	}
}

// Validate 檢查視窗設定
func (p Policy) Validate() error {
	if p.Window <= 0 {
		return ErrInvalidPolicy.WithContext("window", p.Window.String())
	}
	if p.WarningWindow < 0 || p.WarningWindow >= p.Window {
		return ErrInvalidPolicy.WithContext("warning_window", p.WarningWindow.String(), "window", p.Window.String())
	}
	return nil
}

// ExpirationDateFrom 由最後活躍時間推算過期日
func (p Policy) ExpirationDateFrom(lastActivity time.Time) time.Time {
	return lastActivity.Add(p.Window)
}

// Classify 判斷過期狀態
//
//   - now > expiresAt: expired
//   - 0 < expiresAt - now <= WarningWindow: expiring
//   - 其他（含 expiresAt == now）: active
func (p Policy) Classify(expiresAt, now time.Time) Status {
	if now.After(expiresAt) {
		return StatusExpired
	}
	remaining := expiresAt.Sub(now)
	if remaining > 0 && remaining <= p.WarningWindow {
		return StatusExpiring
	}
	return StatusActive
}

// DaysUntil 距離過期的完整天數（不足一天捨去，最小為 0）
func DaysUntil(expiresAt, now time.Time) int {
	d := expiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
