package apptest

import (
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

// Enqueuer 直接寫入 ActionRepo 的排隊器（不觸發同步）
type Enqueuer struct {
	Repo *ActionRepo
	Now  func() time.Time
}

var _ ports.ActionEnqueuer = (*Enqueuer)(nil)

// NewEnqueuer 建立 Enqueuer
func NewEnqueuer(s *Store, clock shared.Clock) *Enqueuer {
	return &Enqueuer{Repo: NewActionRepo(s), Now: clock.Now}
}

func (e *Enqueuer) EnqueueWithContext(ctx shared.TransactionContext, payload offline.Payload, priority int) (*offline.PendingAction, error) {
	a, err := offline.NewPendingAction(payload, priority, e.Now())
	if err != nil {
		return nil, err
	}
	if err := e.Repo.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Pending 佇列中所有 pending 動作（同步順序）
func (e *Enqueuer) Pending() []*offline.PendingAction {
	out, _ := e.Repo.FindByStatus(nil, offline.StatusPending)
	return out
}
