package offline

import "github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"

const (
	ErrCodeInvalidActionID   shared.ErrorCode = "OFFLINE_ACTION_ID_INVALID"
	ErrCodeActionNotFound    shared.ErrorCode = "OFFLINE_ACTION_NOT_FOUND"
	ErrCodeInvalidPayload    shared.ErrorCode = "OFFLINE_PAYLOAD_INVALID"
	ErrCodeUnknownActionType shared.ErrorCode = "OFFLINE_ACTION_TYPE_UNKNOWN"
	ErrCodeInvalidTransition shared.ErrorCode = "OFFLINE_STATUS_TRANSITION_INVALID"
)

var (
	ErrInvalidActionID = &shared.DomainError{
		Code:    ErrCodeInvalidActionID,
		Message: "無效的離線動作 ID",
	}

	ErrActionNotFound = &shared.DomainError{
		Code:    ErrCodeActionNotFound,
		Message: "離線動作不存在",
	}

	// ErrInvalidPayload 內容格式錯誤，屬於驗證錯誤（不重試）
	ErrInvalidPayload = &shared.DomainError{
		Code:    ErrCodeInvalidPayload,
		Message: "離線動作內容無效",
	}

	ErrUnknownActionType = &shared.DomainError{
		Code:    ErrCodeUnknownActionType,
		Message: "未知的離線動作類型",
	}

	ErrInvalidTransition = &shared.DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: "離線動作狀態轉換無效",
	}
)
