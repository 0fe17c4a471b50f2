package ports

import (
	"context"
	"errors"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

const (
	ErrCodeRemoteUnavailable  shared.ErrorCode = "REMOTE_UNAVAILABLE"
	ErrCodeRemoteRejected     shared.ErrorCode = "REMOTE_REJECTED"
	ErrCodeRemoteNotFound     shared.ErrorCode = "REMOTE_NOT_FOUND"
	ErrCodeVenueNotConfigured shared.ErrorCode = "VENUE_NOT_CONFIGURED"
)

var (
	// ErrRemoteUnavailable 網路錯誤、逾時或 5xx，可重試
	ErrRemoteUnavailable = &shared.DomainError{
		Code:    ErrCodeRemoteUnavailable,
		Message: "遠端服務暫時無法使用",
	}

	// ErrRemoteRejected 遠端以 4xx 拒絕請求，屬於驗證錯誤
	ErrRemoteRejected = &shared.DomainError{
		Code:    ErrCodeRemoteRejected,
		Message: "遠端服務拒絕請求",
	}

	ErrRemoteNotFound = &shared.DomainError{
		Code:    ErrCodeRemoteNotFound,
		Message: "遠端資源不存在",
	}

	ErrVenueNotConfigured = &shared.DomainError{
		Code:    ErrCodeVenueNotConfigured,
		Message: "場館尚未設定",
	}
)

// IsRetryable 暫時性錯誤（下次同步再試）
//
// context.Canceled 不算：取消代表呼叫端中斷，不消耗重試次數。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRemoteUnavailable) || errors.Is(err, context.DeadlineExceeded)
}

// IsFatal 驗證類錯誤（重試也不會成功）
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRemoteRejected) ||
		errors.Is(err, offline.ErrInvalidPayload) ||
		errors.Is(err, points.ErrInvalidAmount)
}
