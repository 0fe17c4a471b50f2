package offline

import (
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/gormtx"
)

// PendingActionGORM 離線動作資料表模型
//
// payload 以 JSON 文字保存，讀取時依 action_type 解碼回具體類型。
// seq 為插入序號，同 priority、同 createdAt 時決定順序。
type PendingActionGORM struct {
	ActionID       string     `gorm:"column:action_id;type:varchar(36);primaryKey"`
	ActionType     string     `gorm:"column:action_type;type:varchar(32);not null"`
	Payload        string     `gorm:"column:payload;type:text;not null"`
	Priority       int        `gorm:"column:priority;not null;default:0;index:idx_action_sync_order,priority:2"`
	Status         string     `gorm:"column:status;type:varchar(16);not null;index:idx_action_sync_order,priority:1"`
	AttemptCount   int        `gorm:"column:attempt_count;not null;default:0"`
	LastError      *string    `gorm:"column:last_error;type:text"`
	LastAttemptAt  *time.Time `gorm:"column:last_attempt_at"`
	Fatal          bool       `gorm:"column:fatal;not null;default:false"`
	IdempotencyKey string     `gorm:"column:idempotency_key;type:varchar(128);not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null"`
	Seq            int64      `gorm:"column:seq;not null;uniqueIndex"`
}

// TableName 指定資料表名稱
func (PendingActionGORM) TableName() string {
	return "pending_actions"
}

func (g *PendingActionGORM) toDomain() (*offline.PendingAction, error) {
	id, err := offline.ActionIDFromString(g.ActionID)
	if err != nil {
		return nil, err
	}
	payload, err := offline.DecodePayload(offline.ActionType(g.ActionType), []byte(g.Payload))
	if err != nil {
		return nil, err
	}
	return offline.Reconstruct(offline.Snapshot{
		ID:             id,
		Payload:        payload,
		Priority:       g.Priority,
		Status:         offline.Status(g.Status),
		AttemptCount:   g.AttemptCount,
		LastError:      gormtx.StringValue(g.LastError),
		LastAttemptAt:  g.LastAttemptAt,
		Fatal:          g.Fatal,
		IdempotencyKey: g.IdempotencyKey,
		CreatedAt:      g.CreatedAt,
		Seq:            g.Seq,
	}), nil
}

func toGORM(a *offline.PendingAction) (*PendingActionGORM, error) {
	data, err := offline.EncodePayload(a.Payload())
	if err != nil {
		return nil, err
	}
	s := a.Snapshot()
	return &PendingActionGORM{
		ActionID:       s.ID.String(),
		ActionType:     string(a.Type()),
		Payload:        string(data),
		Priority:       s.Priority,
		Status:         string(s.Status),
		AttemptCount:   s.AttemptCount,
		LastError:      gormtx.NullableString(s.LastError),
		LastAttemptAt:  s.LastAttemptAt,
		Fatal:          s.Fatal,
		IdempotencyKey: s.IdempotencyKey,
		CreatedAt:      s.CreatedAt,
		Seq:            s.Seq,
	}, nil
}
