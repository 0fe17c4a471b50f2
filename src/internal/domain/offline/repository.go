package offline

import "github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"

// Repository 離線動作倉儲（本地持久化）
//
//   - Save(): 指定插入序號（AssignSeq）後寫入
//   - Update(): 更新狀態與重試資訊
//   - Delete(): 同步成功後刪除
//   - FindByID(): 找不到返回 ErrActionNotFound
//   - FindByStatus(): 依同步順序（priority desc, createdAt asc, seq asc）返回
//   - CountByStatus(): 各狀態數量
type Repository interface {
	Save(ctx shared.TransactionContext, a *PendingAction) error

	Update(ctx shared.TransactionContext, a *PendingAction) error

	Delete(ctx shared.TransactionContext, id ActionID) error

	FindByID(ctx shared.TransactionContext, id ActionID) (*PendingAction, error)

	FindByStatus(ctx shared.TransactionContext, statuses ...Status) ([]*PendingAction, error)

	CountByStatus(ctx shared.TransactionContext, statuses ...Status) (int64, error)
}
