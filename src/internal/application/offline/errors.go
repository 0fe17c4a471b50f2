package offline

import "github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"

// ErrCodeSyncInProgress 同步已在進行中
const ErrCodeSyncInProgress shared.ErrorCode = "SYNC_IN_PROGRESS"

// ErrSyncInProgress 另一個同步流程正在執行（呼叫端應直接略過，不需重試）
var ErrSyncInProgress = &shared.DomainError{
	Code:    ErrCodeSyncInProgress,
	Message: "離線動作同步已在進行中",
}
