package tier

import "github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"

const (
	ErrCodeConfigNotFound shared.ErrorCode = "TIER_CONFIG_NOT_FOUND"
	ErrCodeInvalidConfig  shared.ErrorCode = "TIER_CONFIG_INVALID"
	ErrCodeUnknownTier    shared.ErrorCode = "TIER_UNKNOWN"
)

var (
	// ErrConfigNotFound 場館沒有等級設定（不會退回任何預設等級）
	ErrConfigNotFound = &shared.DomainError{
		Code:    ErrCodeConfigNotFound,
		Message: "找不到場館的等級設定",
	}

	// ErrInvalidConfig 等級設定不合法
	ErrInvalidConfig = &shared.DomainError{
		Code:    ErrCodeInvalidConfig,
		Message: "等級設定無效",
	}

	// ErrUnknownTier 會籍目前的等級不在設定中
	ErrUnknownTier = &shared.DomainError{
		Code:    ErrCodeUnknownTier,
		Message: "等級不存在於場館設定",
	}
)
