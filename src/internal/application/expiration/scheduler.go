// Package expiration 執行積分過期排程：補上過期日、歸零逾期積分、發送過期提醒
package expiration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/expiration"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

// DefaultRemoteTimeout 單次遠端通知的逾時
const DefaultRemoteTimeout = 10 * time.Second

// Config 排程設定
type Config struct {
	Policy            expiration.Policy
	MaxNotifyAttempts int
	RemoteTimeout     time.Duration
}

// DefaultConfig 180 天過期、30 天提醒、遠端通知最多 5 次
func DefaultConfig() Config {
	return Config{
		Policy:            expiration.DefaultPolicy(),
		MaxNotifyAttempts: expiration.DefaultMaxNotifyAttempts,
		RemoteTimeout:     DefaultRemoteTimeout,
	}
}

// Deps 排程依賴
type Deps struct {
	Memberships membership.Repository
	Ledger      points.LedgerRepository
	Expirations expiration.Repository
	TxManager   shared.TransactionManager
	Locker      ports.MembershipLocker
	Remote      ports.RemoteLedgerAPI
	Notifier    ports.NotificationDispatcher
	Publisher   shared.EventPublisher
	Metrics     ports.Metrics
	Clock       shared.Clock
	Logger      *slog.Logger
}

// Scheduler 積分過期排程
type Scheduler struct {
	Deps
	cfg Config
}

var _ ports.ActivityRecorder = (*Scheduler)(nil)

// NewScheduler 建立排程，設定無效時返回 expiration.ErrInvalidPolicy
func NewScheduler(deps Deps, cfg Config) (*Scheduler, error) {
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxNotifyAttempts <= 0 {
		cfg.MaxNotifyAttempts = expiration.DefaultMaxNotifyAttempts
	}
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = DefaultRemoteTimeout
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = ports.NopMetrics{}
	}
	return &Scheduler{Deps: deps, cfg: cfg}, nil
}

// RunResult 一次排程的統計
type RunResult struct {
	Scanned       int
	Scheduled     int // 補上缺少的過期日
	Expired       int
	PointsExpired int
	Warned        int
	Tracked       int // 在提醒視窗內的會籍
	NotifyRetried int
	Failed        int
}

// outcome 單一會籍在事務內的處理結果（事務提交後才做外部呼叫）
type outcome struct {
	status    expiration.Status
	scheduled bool
	warn      bool
	record    *expiration.PointExpiration
	notice    ports.ExpirationNotice
	events    []shared.DomainEvent
}

// ===========================
// RunOnce
// ===========================

// RunOnce 掃描所有有餘額的啟用會籍
//
// 單一會籍失敗只記錄並計入 Failed，不中斷整批；ctx 取消時返回目前的統計與 ctx.Err()。
func (s *Scheduler) RunOnce(ctx context.Context) (*RunResult, error) {
	members, err := s.Memberships.FindWithBalance(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships with balance: %w", err)
	}

	result := &RunResult{}
	notified := make(map[string]bool)
	for _, m := range members {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scanned++

		out, err := s.processMembership(m.ID())
		if err != nil {
			result.Failed++
			s.Logger.Error("expiration check failed", "membership_id", m.ID().String(), "error", err)
			continue
		}
		if out == nil {
			continue
		}
		if out.scheduled {
			result.Scheduled++
		}
		s.publish(out.events)

		switch out.status {
		case expiration.StatusExpired:
			result.Expired++
			result.PointsExpired += out.notice.Points.Value()
			notified[out.record.ID().String()] = true
			s.notifyRemote(ctx, out.record)
			s.sendExpired(ctx, out.notice)
		case expiration.StatusExpiring:
			result.Tracked++
			if out.warn {
				result.Warned++
				s.sendWarning(ctx, out.notice)
			}
		}
	}

	retried, err := s.retryRemoteNotify(ctx, notified)
	result.NotifyRetried = retried
	if err != nil {
		return result, err
	}

	s.Logger.Info("expiration run finished",
		"scanned", result.Scanned,
		"expired", result.Expired,
		"points_expired", result.PointsExpired,
		"warned", result.Warned,
		"failed", result.Failed,
	)
	return result, nil
}

// processMembership 在會籍鎖與事務內判斷並套用過期狀態
func (s *Scheduler) processMembership(id membership.MembershipID) (*outcome, error) {
	unlock := s.Locker.Lock(id.String())
	defer unlock()

	var out *outcome
	err := s.TxManager.InTransaction(func(ctx shared.TransactionContext) error {
		m, err := s.Memberships.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to reload membership: %w", err)
		}
		if !m.IsActive() || m.PointsBalance().IsZero() {
			return nil
		}

		now := s.Clock.Now()
		o := &outcome{}

		next := m.NextExpirationDate()
		if next == nil {
			at := s.cfg.Policy.ExpirationDateFrom(m.LastActivityDate())
			m.ScheduleExpiration(at, now)
			next = &at
			o.scheduled = true
		}

		o.status = s.cfg.Policy.Classify(*next, now)
		switch o.status {
		case expiration.StatusExpired:
			if err := s.expire(ctx, m, *next, now, o); err != nil {
				return err
			}
		case expiration.StatusExpiring:
			if err := s.track(ctx, m, *next, now, o); err != nil {
				return err
			}
		}

		if o.scheduled || o.status == expiration.StatusExpired {
			if err := s.Memberships.Update(ctx, m); err != nil {
				return fmt.Errorf("failed to update membership: %w", err)
			}
		}
		o.events = m.PullEvents()
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// expire 歸零餘額、寫帳本、結束追蹤記錄並重新開始活躍視窗
func (s *Scheduler) expire(ctx shared.TransactionContext, m *membership.Membership, expiresAt, now time.Time, o *outcome) error {
	record, isNew, err := s.trackingFor(ctx, m, expiresAt, now)
	if err != nil {
		return err
	}

	before := m.PointsBalance()
	expired := m.ExpireAllPoints(now)

	entry, err := points.NewLedgerEntry(
		m.UserID(), m.VenueID(),
		points.EntryTypeExpire, expired, before,
		points.PointsSourceExpiration, record.ID().String(), now,
	)
	if err != nil {
		return fmt.Errorf("failed to build ledger entry: %w", err)
	}
	if err := s.Ledger.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := record.MarkExpired(expired, now); err != nil {
		return err
	}
	if err := s.saveTracking(ctx, record, isNew); err != nil {
		return err
	}

	m.RecordActivity(now, s.cfg.Policy.Window)

	o.record = record
	o.notice = ports.ExpirationNotice{
		MembershipID:   m.ID(),
		UserID:         m.UserID(),
		VenueID:        m.VenueID(),
		Points:         expired,
		ExpirationDate: expiresAt,
	}
	return nil
}

// track 更新追蹤記錄；需要提醒時先標記已發送再於事務外發送
func (s *Scheduler) track(ctx shared.TransactionContext, m *membership.Membership, expiresAt, now time.Time, o *outcome) error {
	record, isNew, err := s.trackingFor(ctx, m, expiresAt, now)
	if err != nil {
		return err
	}
	if !isNew {
		if err := record.Refresh(m.PointsBalance(), m.LastActivityDate(), expiresAt, now); err != nil {
			return err
		}
	}

	if record.ShouldSendWarning(now) {
		record.MarkWarningSent(now)
		o.warn = true
	}
	if err := s.saveTracking(ctx, record, isNew); err != nil {
		return err
	}

	o.record = record
	o.notice = ports.ExpirationNotice{
		MembershipID:   m.ID(),
		UserID:         m.UserID(),
		VenueID:        m.VenueID(),
		Points:         m.PointsBalance(),
		ExpirationDate: expiresAt,
		DaysLeft:       record.DaysUntilExpiry(now),
	}
	return nil
}

func (s *Scheduler) trackingFor(ctx shared.TransactionContext, m *membership.Membership, expiresAt, now time.Time) (*expiration.PointExpiration, bool, error) {
	record, err := s.Expirations.FindTrackingByMembership(ctx, m.ID())
	if err == nil {
		return record, false, nil
	}
	if !errors.Is(err, expiration.ErrExpirationNotFound) {
		return nil, false, fmt.Errorf("failed to load expiration tracking: %w", err)
	}
	return expiration.NewTracking(m, expiresAt, now), true, nil
}

func (s *Scheduler) saveTracking(ctx shared.TransactionContext, record *expiration.PointExpiration, isNew bool) error {
	var err error
	if isNew {
		err = s.Expirations.Save(ctx, record)
	} else {
		err = s.Expirations.Update(ctx, record)
	}
	if err != nil {
		return fmt.Errorf("failed to save expiration tracking: %w", err)
	}
	return nil
}

// ===========================
// 外部通知（盡力而為）
// ===========================

// notifyRemote 通知遠端並記錄嘗試；失敗時留待下次排程重試
func (s *Scheduler) notifyRemote(ctx context.Context, record *expiration.PointExpiration) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.RemoteTimeout)
	err := s.Remote.NotifyExpiration(callCtx, "expire:"+record.ID().String(), record.MembershipID(), record.PointsAtRisk())
	cancel()
	if err != nil {
		s.Logger.Warn("remote expiration notify failed",
			"membership_id", record.MembershipID().String(),
			"attempt", record.NotifyAttempts()+1,
			"retryable", ports.IsRetryable(err),
			"error", err,
		)
	}

	record.RecordNotifyAttempt(err == nil, s.Clock.Now())
	txErr := s.TxManager.InTransaction(func(tx shared.TransactionContext) error {
		return s.Expirations.Update(tx, record)
	})
	if txErr != nil {
		s.Logger.Error("record notify attempt failed", "expiration_id", record.ID().String(), "error", txErr)
	}
}

// retryRemoteNotify 重送先前失敗的遠端過期通知（略過本次剛通知過的記錄）
func (s *Scheduler) retryRemoteNotify(ctx context.Context, skip map[string]bool) (int, error) {
	pending, err := s.Expirations.FindPendingRemoteNotify(nil, s.cfg.MaxNotifyAttempts)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending expiration notifications: %w", err)
	}
	retried := 0
	for _, record := range pending {
		if skip[record.ID().String()] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return retried, err
		}
		s.notifyRemote(ctx, record)
		retried++
	}
	return retried, nil
}

func (s *Scheduler) sendWarning(ctx context.Context, n ports.ExpirationNotice) {
	s.Metrics.ExpirationWarningSent()
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWarning(ctx, n); err != nil {
		s.Logger.Warn("expiration warning not delivered", "membership_id", n.MembershipID.String(), "error", err)
	}
}

func (s *Scheduler) sendExpired(ctx context.Context, n ports.ExpirationNotice) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendExpired(ctx, n); err != nil {
		s.Logger.Warn("expiration notice not delivered", "membership_id", n.MembershipID.String(), "error", err)
	}
}

func (s *Scheduler) publish(events []shared.DomainEvent) {
	if s.Publisher == nil || len(events) == 0 {
		return
	}
	if err := s.Publisher.PublishBatch(events); err != nil {
		s.Logger.Warn("publish domain events failed", "count", len(events), "error", err)
	}
}
