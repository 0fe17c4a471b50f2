package ports

// Metrics 佇列與排程的業務指標
//
// 會籍的積分與等級變化由領域事件（shared.EventPublisher）統計。
type Metrics interface {
	ExpirationWarningSent()
	ReferralDistributed(levels int)
	SyncOutcome(outcome string)
	QueueDepth(n int)
}

// NopMetrics 不記錄任何指標
type NopMetrics struct{}

func (NopMetrics) ExpirationWarningSent()  {}
func (NopMetrics) ReferralDistributed(int) {}
func (NopMetrics) SyncOutcome(string)      {}
func (NopMetrics) QueueDepth(int)          {}

var _ Metrics = NopMetrics{}
