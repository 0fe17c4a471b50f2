package offline

import (
	"sort"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

// DefaultMaxAttempts 每個動作的預設重試上限
const DefaultMaxAttempts = 3

// ActionMarker 是 ActionID 的標記類型
type ActionMarker struct{}

// ActionID 離線動作 ID
type ActionID = shared.EntityID[ActionMarker]

// NewActionID 生成新的動作 ID
func NewActionID() ActionID {
	return shared.NewEntityID[ActionMarker]()
}

// ActionIDFromString 從字串解析動作 ID
func ActionIDFromString(s string) (ActionID, error) {
	return shared.EntityIDFromString[ActionMarker](s, ErrInvalidActionID)
}

// Status 離線動作狀態
type Status string

const (
	StatusPending   Status = "pending"
	StatusSyncing   Status = "syncing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ===========================
// PendingAction 聚合根
// ===========================

// PendingAction 等待同步到遠端的離線動作
//
// 狀態機：
//
//	pending ──MarkSyncing──▶ syncing ──MarkCompleted──▶ completed（隨即刪除）
//	   ▲                        │
//	   └──ReturnToPending───────┤（取消或重啟時，不消耗重試次數）
//	                            └──MarkFailed──▶ failed ──MarkSyncing──▶ syncing（仍有重試額度時）
type PendingAction struct {
	id             ActionID
	payload        Payload
	priority       int
	status         Status
	attemptCount   int
	lastError      string
	lastAttemptAt  *time.Time
	fatal          bool
	idempotencyKey string
	createdAt      time.Time
	seq            int64 // 插入序號，由倉儲指定
}

// NewPendingAction 建立離線動作，內容在此驗證
func NewPendingAction(payload Payload, priority int, now time.Time) (*PendingAction, error) {
	if err := ValidatePayload(payload); err != nil {
		return nil, err
	}

	id := NewActionID()
	key := id.String()
	if k, ok := payload.(interface{ IdempotencyKey() string }); ok && k.IdempotencyKey() != "" {
		key = k.IdempotencyKey()
	}

	return &PendingAction{
		id:             id,
		payload:        payload,
		priority:       priority,
		status:         StatusPending,
		idempotencyKey: key,
		createdAt:      now,
	}, nil
}

// ===========================
// 狀態轉換
// ===========================

// MarkSyncing 開始同步
func (a *PendingAction) MarkSyncing(now time.Time) error {
	if a.status != StatusPending && a.status != StatusFailed {
		return a.transitionError(StatusSyncing)
	}
	a.status = StatusSyncing
	a.lastAttemptAt = &now
	return nil
}

// MarkCompleted 同步成功
func (a *PendingAction) MarkCompleted() error {
	if a.status != StatusSyncing {
		return a.transitionError(StatusCompleted)
	}
	a.status = StatusCompleted
	a.lastError = ""
	return nil
}

// MarkFailed 同步失敗，消耗一次重試；fatal 表示驗證類錯誤，不再自動重試
func (a *PendingAction) MarkFailed(reason string, fatal bool) error {
	if a.status != StatusSyncing {
		return a.transitionError(StatusFailed)
	}
	a.status = StatusFailed
	a.attemptCount++
	a.lastError = reason
	a.fatal = a.fatal || fatal
	return nil
}

// ReturnToPending 同步中斷（取消或程序重啟），退回 pending 且不計入重試次數
func (a *PendingAction) ReturnToPending() error {
	if a.status != StatusSyncing {
		return a.transitionError(StatusPending)
	}
	a.status = StatusPending
	return nil
}

// ResetForRetry 使用者手動重試失敗的動作
func (a *PendingAction) ResetForRetry() error {
	if a.status != StatusFailed {
		return a.transitionError(StatusPending)
	}
	a.status = StatusPending
	a.attemptCount = 0
	a.fatal = false
	a.lastError = ""
	return nil
}

func (a *PendingAction) transitionError(to Status) error {
	return ErrInvalidTransition.WithContext(
		"action_id", a.id.String(),
		"from", string(a.status),
		"to", string(to),
	)
}

// ===========================
// 查詢方法
// ===========================

// CanSync 是否可以在自動同步中處理
func (a *PendingAction) CanSync(maxAttempts int) bool {
	switch a.status {
	case StatusPending, StatusSyncing:
		return true
	case StatusFailed:
		return !a.fatal && a.attemptCount < maxAttempts
	default:
		return false
	}
}

// NeedsAttention 已失敗且不會再自動重試，需要使用者處理
func (a *PendingAction) NeedsAttention(maxAttempts int) bool {
	return a.status == StatusFailed && (a.fatal || a.attemptCount >= maxAttempts)
}

func (a *PendingAction) ID() ActionID           { return a.id }
func (a *PendingAction) Type() ActionType       { return a.payload.ActionType() }
func (a *PendingAction) Payload() Payload       { return a.payload }
func (a *PendingAction) Priority() int          { return a.priority }
func (a *PendingAction) Status() Status         { return a.status }
func (a *PendingAction) AttemptCount() int      { return a.attemptCount }
func (a *PendingAction) LastError() string      { return a.lastError }
func (a *PendingAction) IsFatal() bool          { return a.fatal }
func (a *PendingAction) IdempotencyKey() string { return a.idempotencyKey }
func (a *PendingAction) CreatedAt() time.Time   { return a.createdAt }
func (a *PendingAction) Seq() int64             { return a.seq }
func (a *PendingAction) LastAttemptAt() *time.Time {
	if a.lastAttemptAt == nil {
		return nil
	}
	t := *a.lastAttemptAt
	return &t
}

// AssignSeq 由倉儲在首次保存時指定插入序號
func (a *PendingAction) AssignSeq(seq int64) {
	a.seq = seq
}

// ===========================
// 重建
// ===========================

// Snapshot 持久化用的完整狀態
type Snapshot struct {
	ID             ActionID
	Payload        Payload
	Priority       int
	Status         Status
	AttemptCount   int
	LastError      string
	LastAttemptAt  *time.Time
	Fatal          bool
	IdempotencyKey string
	CreatedAt      time.Time
	Seq            int64
}

// Reconstruct 從持久化狀態重建（不做業務驗證）
func Reconstruct(s Snapshot) *PendingAction {
	return &PendingAction{
		id:             s.ID,
		payload:        s.Payload,
		priority:       s.Priority,
		status:         s.Status,
		attemptCount:   s.AttemptCount,
		lastError:      s.LastError,
		lastAttemptAt:  s.LastAttemptAt,
		fatal:          s.Fatal,
		idempotencyKey: s.IdempotencyKey,
		createdAt:      s.CreatedAt,
		seq:            s.Seq,
	}
}

// Snapshot 導出完整狀態
func (a *PendingAction) Snapshot() Snapshot {
	return Snapshot{
		ID:             a.id,
		Payload:        a.payload,
		Priority:       a.priority,
		Status:         a.status,
		AttemptCount:   a.attemptCount,
		LastError:      a.lastError,
		LastAttemptAt:  a.LastAttemptAt(),
		Fatal:          a.fatal,
		IdempotencyKey: a.idempotencyKey,
		CreatedAt:      a.createdAt,
		Seq:            a.seq,
	}
}

// ===========================
// 排序
// ===========================

// SyncOrderLess 同步順序：priority 高者優先，其次 createdAt 早者，最後插入序號
func SyncOrderLess(a, b *PendingAction) bool {
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	if !a.createdAt.Equal(b.createdAt) {
		return a.createdAt.Before(b.createdAt)
	}
	return a.seq < b.seq
}

// SortForSync 依同步順序原地排序
func SortForSync(actions []*PendingAction) {
	sort.SliceStable(actions, func(i, j int) bool {
		return SyncOrderLess(actions[i], actions[j])
	})
}
