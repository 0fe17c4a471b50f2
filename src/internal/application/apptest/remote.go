package apptest

import (
	"context"
	"sync"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ===========================
// RemoteLedger
// ===========================

// RemoteLedger 可設定行為的遠端帳本替身
//
// 未設定的 *Func 使用預設行為：提交成功、推薦鏈不存在、
// 分潤返回空結果、通知成功。
type RemoteLedger struct {
	mu sync.Mutex

	SubmitEarningFunc func(ctx context.Context, e ports.EarningEvent) error
	FetchChainFunc    func(ctx context.Context, userID shared.UserID) (*ports.RemoteChain, error)
	DistributeFunc    func(ctx context.Context, key string, userID shared.UserID, pts decimal.Decimal) (map[shared.UserID]decimal.Decimal, error)
	NotifyExpiredFunc func(ctx context.Context, key string, id membership.MembershipID, pts points.PointsAmount) error
	NotifyActiveFunc  func(ctx context.Context, id membership.MembershipID, at time.Time) error

	EarningEvents      []ports.EarningEvent
	ChainFetches       int
	DistributionCalls  []string
	ExpirationNotified []string
	ActivityNotified   []string
}

var _ ports.RemoteLedgerAPI = (*RemoteLedger)(nil)

func (r *RemoteLedger) SubmitEarningEvent(ctx context.Context, e ports.EarningEvent) error {
	r.mu.Lock()
	r.EarningEvents = append(r.EarningEvents, e)
	fn := r.SubmitEarningFunc
	r.mu.Unlock()
	if fn != nil {
		return fn(ctx, e)
	}
	return nil
}

func (r *RemoteLedger) FetchReferralChain(ctx context.Context, userID shared.UserID) (*ports.RemoteChain, error) {
	r.mu.Lock()
	r.ChainFetches++
	fn := r.FetchChainFunc
	r.mu.Unlock()
	if fn != nil {
		return fn(ctx, userID)
	}
	return nil, ports.ErrRemoteNotFound.WithContext("user_id", userID.String())
}

func (r *RemoteLedger) SubmitReferralDistribution(ctx context.Context, key string, userID shared.UserID, pts decimal.Decimal) (map[shared.UserID]decimal.Decimal, error) {
	r.mu.Lock()
	r.DistributionCalls = append(r.DistributionCalls, key)
	fn := r.DistributeFunc
	r.mu.Unlock()
	if fn != nil {
		return fn(ctx, key, userID, pts)
	}
	return map[shared.UserID]decimal.Decimal{}, nil
}

func (r *RemoteLedger) NotifyExpiration(ctx context.Context, key string, id membership.MembershipID, pts points.PointsAmount) error {
	r.mu.Lock()
	fn := r.NotifyExpiredFunc
	r.mu.Unlock()
	if fn != nil {
		if err := fn(ctx, key, id, pts); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.ExpirationNotified = append(r.ExpirationNotified, id.String())
	r.mu.Unlock()
	return nil
}

func (r *RemoteLedger) NotifyActivity(ctx context.Context, id membership.MembershipID, at time.Time) error {
	r.mu.Lock()
	fn := r.NotifyActiveFunc
	r.mu.Unlock()
	if fn != nil {
		if err := fn(ctx, id, at); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.ActivityNotified = append(r.ActivityNotified, id.String())
	r.mu.Unlock()
	return nil
}

// ===========================
// Notifier
// ===========================

// Notifier 記錄送出的通知
type Notifier struct {
	mu       sync.Mutex
	Err      error
	Warnings []ports.ExpirationNotice
	Expired  []ports.ExpirationNotice
}

var _ ports.NotificationDispatcher = (*Notifier)(nil)

func (n *Notifier) SendWarning(_ context.Context, notice ports.ExpirationNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Warnings = append(n.Warnings, notice)
	return nil
}

func (n *Notifier) SendExpired(_ context.Context, notice ports.ExpirationNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Expired = append(n.Expired, notice)
	return nil
}

// ===========================
// Events
// ===========================

// Publisher 收集已發布的領域事件
type Publisher struct {
	mu     sync.Mutex
	Events []shared.DomainEvent
}

var _ shared.EventPublisher = (*Publisher)(nil)

func (p *Publisher) Publish(e shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, e)
	return nil
}

func (p *Publisher) PublishBatch(events []shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, events...)
	return nil
}

// Types 已發布事件的類型（依序）
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Events))
	for i, e := range p.Events {
		out[i] = e.EventType()
	}
	return out
}

// ===========================
// Metrics
// ===========================

// Metrics 記錄指標呼叫
type Metrics struct {
	mu           sync.Mutex
	Warnings     int
	Distributed  []int
	SyncOutcomes []string
	Depth        int
}

var _ ports.Metrics = (*Metrics)(nil)

func (m *Metrics) ExpirationWarningSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Warnings++
}

func (m *Metrics) ReferralDistributed(levels int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Distributed = append(m.Distributed, levels)
}

func (m *Metrics) SyncOutcome(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SyncOutcomes = append(m.SyncOutcomes, outcome)
}

func (m *Metrics) QueueDepth(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Depth = n
}
