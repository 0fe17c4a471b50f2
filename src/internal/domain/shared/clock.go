package shared

import "time"

// Clock 抽象當前時間，讓過期、連續打卡、等級維護等時間規則可測試
//
// 生產環境注入 SystemClock，測試注入 FixedClock。
type Clock interface {
	Now() time.Time
}

// SystemClock 使用系統時間
type SystemClock struct{}

// Now 返回當前 UTC 時間
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock 返回固定時間（測試用），可用 Advance 推進
type FixedClock struct {
	T time.Time
}

// Now 返回固定時間
func (c *FixedClock) Now() time.Time {
	return c.T
}

// Advance 將時間往前推進 d
func (c *FixedClock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}
