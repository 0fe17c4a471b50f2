package expiration

import "github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"

const (
	ErrCodeInvalidExpirationID shared.ErrorCode = "EXPIRATION_ID_INVALID"
	ErrCodeExpirationNotFound  shared.ErrorCode = "EXPIRATION_NOT_FOUND"
	ErrCodeAlreadyExpired      shared.ErrorCode = "EXPIRATION_ALREADY_EXECUTED"
	ErrCodeInvalidRemindDays   shared.ErrorCode = "EXPIRATION_REMIND_DAYS_INVALID"
	ErrCodeInvalidPolicy       shared.ErrorCode = "EXPIRATION_POLICY_INVALID"
)

var (
	ErrInvalidExpirationID = &shared.DomainError{
		Code:    ErrCodeInvalidExpirationID,
		Message: "無效的過期追蹤 ID",
	}

	ErrExpirationNotFound = &shared.DomainError{
		Code:    ErrCodeExpirationNotFound,
		Message: "過期追蹤記錄不存在",
	}

	// ErrAlreadyExpired 已執行過期的記錄是終態，不能再更新
	ErrAlreadyExpired = &shared.DomainError{
		Code:    ErrCodeAlreadyExpired,
		Message: "積分已過期，記錄不可再變更",
	}

	ErrInvalidRemindDays = &shared.DomainError{
		Code:    ErrCodeInvalidRemindDays,
		Message: "稍後提醒天數必須大於 0",
	}

	ErrInvalidPolicy = &shared.DomainError{
		Code:    ErrCodeInvalidPolicy,
		Message: "過期策略設定無效",
	}
)
