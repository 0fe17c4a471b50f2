// Package offline 管理離線動作佇列：本地持久化、依序同步到遠端、重試與人工處理
package offline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

// DefaultHandlerTimeout 單一動作的同步逾時
const DefaultHandlerTimeout = 15 * time.Second

// Handler 把單一動作送到遠端
type Handler interface {
	Handle(ctx context.Context, a *offline.PendingAction) error
}

// Config 佇列設定
type Config struct {
	MaxAttempts    int
	HandlerTimeout time.Duration
	SyncInterval   time.Duration // 0 表示只在恢復連線時同步
}

// DefaultConfig 最多 3 次、每次 15 秒、每 5 分鐘補同步
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    offline.DefaultMaxAttempts,
		HandlerTimeout: DefaultHandlerTimeout,
		SyncInterval:   5 * time.Minute,
	}
}

// Queue 離線動作佇列
//
// 同一時間只會有一個同步流程（single-flight），流程內依序處理。
type Queue struct {
	repo      offline.Repository
	txManager shared.TransactionManager
	handler   Handler
	metrics   ports.Metrics
	clock     shared.Clock
	logger    *slog.Logger
	cfg       Config

	syncing atomic.Bool
}

var _ ports.ActionEnqueuer = (*Queue)(nil)

// NewQueue 建立佇列
func NewQueue(
	repo offline.Repository,
	txManager shared.TransactionManager,
	handler Handler,
	metrics ports.Metrics,
	clock shared.Clock,
	logger *slog.Logger,
	cfg Config,
) *Queue {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = offline.DefaultMaxAttempts
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = DefaultHandlerTimeout
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		repo:      repo,
		txManager: txManager,
		handler:   handler,
		metrics:   metrics,
		clock:     clock,
		logger:    logger,
		cfg:       cfg,
	}
}

// ===========================
// 排入佇列
// ===========================

// Enqueue 驗證並寫入本地佇列（不觸發同步）
//
// 無效的 payload 立即返回 offline.ErrInvalidPayload，不會寫入。
func (q *Queue) Enqueue(payload offline.Payload, priority int) (*offline.PendingAction, error) {
	var action *offline.PendingAction
	err := q.txManager.InTransaction(func(tx shared.TransactionContext) error {
		var err error
		action, err = q.EnqueueWithContext(tx, payload, priority)
		return err
	})
	if err != nil {
		return nil, err
	}
	q.logger.Debug("action enqueued",
		"action_id", action.ID().String(),
		"action_type", string(action.Type()),
		"priority", priority,
	)
	return action, nil
}

// EnqueueWithContext 在呼叫端事務中寫入（與業務變更一起提交）
func (q *Queue) EnqueueWithContext(tx shared.TransactionContext, payload offline.Payload, priority int) (*offline.PendingAction, error) {
	action, err := offline.NewPendingAction(payload, priority, q.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := q.repo.Save(tx, action); err != nil {
		return nil, fmt.Errorf("failed to save pending action: %w", err)
	}
	return action, nil
}

// ===========================
// 同步
// ===========================

// SyncResult 一次同步的統計
type SyncResult struct {
	Attempted   int
	Succeeded   int
	Failed      int // 可重試的失敗
	Fatal       int // 驗證失敗，不再自動重試
	Resumed     int // 上次中斷時停在 syncing 的動作
	Interrupted bool
}

// SyncPendingActions 依同步順序處理所有可同步的動作
//
// 已有同步在執行時立即返回 ErrSyncInProgress。ctx 取消時，
// 正在處理的動作退回 pending（不消耗重試次數），返回目前統計與 ctx.Err()。
func (q *Queue) SyncPendingActions(ctx context.Context) (*SyncResult, error) {
	if !q.syncing.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer q.syncing.Store(false)

	actions, err := q.repo.FindByStatus(nil, offline.StatusPending, offline.StatusSyncing, offline.StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending actions: %w", err)
	}

	result := &SyncResult{}
	for _, a := range actions {
		if !a.CanSync(q.cfg.MaxAttempts) {
			continue
		}
		if err := ctx.Err(); err != nil {
			result.Interrupted = true
			break
		}
		if err := q.syncOne(ctx, a, result); err != nil {
			return result, err
		}
	}

	q.reportDepth()
	if result.Interrupted {
		return result, ctx.Err()
	}
	if result.Attempted > 0 {
		q.logger.Info("offline sync finished",
			"attempted", result.Attempted,
			"succeeded", result.Succeeded,
			"failed", result.Failed,
			"fatal", result.Fatal,
		)
	}
	return result, nil
}

// syncOne 處理單一動作；只有持久化失敗會中斷整個流程
func (q *Queue) syncOne(ctx context.Context, a *offline.PendingAction, result *SyncResult) error {
	if a.Status() == offline.StatusSyncing {
		// 程序在同步途中結束，重新開始這次嘗試
		if err := a.ReturnToPending(); err != nil {
			return err
		}
		result.Resumed++
	}
	if err := a.MarkSyncing(q.clock.Now()); err != nil {
		return err
	}
	if err := q.update(a); err != nil {
		return err
	}
	result.Attempted++

	callCtx, cancel := context.WithTimeout(ctx, q.cfg.HandlerTimeout)
	handleErr := q.handler.Handle(callCtx, a)
	cancel()

	log := q.logger.With(
		"action_id", a.ID().String(),
		"action_type", string(a.Type()),
		"attempt", a.AttemptCount()+1,
	)

	switch {
	case handleErr == nil:
		if err := a.MarkCompleted(); err != nil {
			return err
		}
		if err := q.txManager.InTransaction(func(tx shared.TransactionContext) error {
			return q.repo.Delete(tx, a.ID())
		}); err != nil {
			return fmt.Errorf("failed to delete completed action: %w", err)
		}
		result.Succeeded++
		q.metrics.SyncOutcome("succeeded")
		log.Debug("action synced")
		return nil

	case ctx.Err() != nil:
		if err := a.ReturnToPending(); err != nil {
			return err
		}
		if err := q.update(a); err != nil {
			return err
		}
		result.Interrupted = true
		q.metrics.SyncOutcome("interrupted")
		log.Info("sync interrupted, action returned to pending")
		return nil

	default:
		fatal := ports.IsFatal(handleErr)
		if err := a.MarkFailed(handleErr.Error(), fatal); err != nil {
			return err
		}
		if err := q.update(a); err != nil {
			return err
		}
		if fatal {
			result.Fatal++
			q.metrics.SyncOutcome("fatal")
			log.Warn("action rejected, needs attention", "error", handleErr)
		} else {
			result.Failed++
			q.metrics.SyncOutcome("failed")
			log.Warn("action sync failed",
				"retryable", ports.IsRetryable(handleErr),
				"needs_attention", a.NeedsAttention(q.cfg.MaxAttempts),
				"error", handleErr,
			)
		}
		return nil
	}
}

// Run 在每次恢復連線與每個 SyncInterval 時同步，直到 ctx 結束
func (q *Queue) Run(ctx context.Context, monitor ports.ConnectivityMonitor) error {
	var reachable <-chan struct{}
	if monitor != nil {
		reachable = monitor.Reachable()
	}
	var tick <-chan time.Time
	if q.cfg.SyncInterval > 0 {
		ticker := time.NewTicker(q.cfg.SyncInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-reachable:
			if !ok {
				reachable = nil
				continue
			}
			q.trySync(ctx, "reachable")
		case <-tick:
			q.trySync(ctx, "interval")
		}
	}
}

func (q *Queue) trySync(ctx context.Context, trigger string) {
	_, err := q.SyncPendingActions(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, ErrSyncInProgress):
		q.logger.Debug("sync already running", "trigger", trigger)
	default:
		q.logger.Error("offline sync failed", "trigger", trigger, "error", err)
	}
}

// ===========================
// 查詢與人工處理
// ===========================

// PendingActions 仍會自動同步的動作（同步順序）
func (q *Queue) PendingActions() ([]*offline.PendingAction, error) {
	all, err := q.repo.FindByStatus(nil, offline.StatusPending, offline.StatusSyncing, offline.StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending actions: %w", err)
	}
	out := make([]*offline.PendingAction, 0, len(all))
	for _, a := range all {
		if a.CanSync(q.cfg.MaxAttempts) {
			out = append(out, a)
		}
	}
	return out, nil
}

// NeedsAttention 已失敗且不再自動重試的動作
func (q *Queue) NeedsAttention() ([]*offline.PendingAction, error) {
	failed, err := q.repo.FindByStatus(nil, offline.StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed actions: %w", err)
	}
	out := make([]*offline.PendingAction, 0, len(failed))
	for _, a := range failed {
		if a.NeedsAttention(q.cfg.MaxAttempts) {
			out = append(out, a)
		}
	}
	return out, nil
}

// PendingCount 尚未完成的動作數（含需要處理的失敗動作）
func (q *Queue) PendingCount() (int, error) {
	n, err := q.repo.CountByStatus(nil, offline.StatusPending, offline.StatusSyncing, offline.StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending actions: %w", err)
	}
	return int(n), nil
}

// Retry 使用者要求重試失敗的動作（重置重試次數）
func (q *Queue) Retry(actionID string) error {
	return q.modify(actionID, func(a *offline.PendingAction) error {
		return a.ResetForRetry()
	})
}

// Discard 使用者放棄一個未在同步中的動作
func (q *Queue) Discard(actionID string) error {
	id, err := offline.ActionIDFromString(actionID)
	if err != nil {
		return err
	}
	err = q.txManager.InTransaction(func(tx shared.TransactionContext) error {
		a, err := q.repo.FindByID(tx, id)
		if err != nil {
			return err
		}
		if a.Status() == offline.StatusSyncing {
			return offline.ErrInvalidTransition.WithContext("action_id", actionID, "from", string(a.Status()), "to", "discarded")
		}
		return q.repo.Delete(tx, id)
	})
	if err != nil {
		return err
	}
	q.logger.Info("action discarded", "action_id", actionID)
	q.reportDepth()
	return nil
}

func (q *Queue) modify(actionID string, apply func(*offline.PendingAction) error) error {
	id, err := offline.ActionIDFromString(actionID)
	if err != nil {
		return err
	}
	return q.txManager.InTransaction(func(tx shared.TransactionContext) error {
		a, err := q.repo.FindByID(tx, id)
		if err != nil {
			return err
		}
		if err := apply(a); err != nil {
			return err
		}
		return q.repo.Update(tx, a)
	})
}

func (q *Queue) update(a *offline.PendingAction) error {
	err := q.txManager.InTransaction(func(tx shared.TransactionContext) error {
		return q.repo.Update(tx, a)
	})
	if err != nil {
		return fmt.Errorf("failed to update action %s: %w", a.ID().String(), err)
	}
	return nil
}

func (q *Queue) reportDepth() {
	if n, err := q.PendingCount(); err == nil {
		q.metrics.QueueDepth(n)
	}
}
