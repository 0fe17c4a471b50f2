package referral

import "github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"

// ===========================
// 錯誤代碼定義
// ===========================

const (
	ErrCodeChainNotFound              shared.ErrorCode = "REFERRAL_CHAIN_NOT_FOUND"
	ErrCodeChainAlreadyExists         shared.ErrorCode = "REFERRAL_CHAIN_ALREADY_EXISTS"
	ErrCodeSelfReferral               shared.ErrorCode = "REFERRAL_SELF"
	ErrCodeDuplicateReferrer          shared.ErrorCode = "REFERRAL_DUPLICATE_REFERRER"
	ErrCodeInvalidLevel               shared.ErrorCode = "REFERRAL_LEVEL_INVALID"
	ErrCodeInvalidRewardRate          shared.ErrorCode = "REFERRAL_RATE_INVALID"
	ErrCodeInvalidPointsEarned        shared.ErrorCode = "REFERRAL_POINTS_INVALID"
	ErrCodeDistributionMismatch       shared.ErrorCode = "REFERRAL_DISTRIBUTION_MISMATCH"
	ErrCodeDistributionNotFound       shared.ErrorCode = "REFERRAL_DISTRIBUTION_NOT_FOUND"
	ErrCodeDistributionAlreadyApplied shared.ErrorCode = "REFERRAL_DISTRIBUTION_ALREADY_APPLIED"
	ErrCodeInvalidEventKey            shared.ErrorCode = "REFERRAL_EVENT_KEY_INVALID"
)

// ===========================
// 預定義錯誤
// ===========================

// 推薦鏈錯誤
var (
	ErrChainNotFound = &shared.DomainError{
		Code:    ErrCodeChainNotFound,
		Message: "推薦鏈不存在",
	}

	ErrChainAlreadyExists = &shared.DomainError{
		Code:    ErrCodeChainAlreadyExists,
		Message: "用戶已有推薦鏈",
	}

	ErrSelfReferral = &shared.DomainError{
		Code:    ErrCodeSelfReferral,
		Message: "不能推薦自己",
	}

	ErrDuplicateReferrer = &shared.DomainError{
		Code:    ErrCodeDuplicateReferrer,
		Message: "推薦鏈中的推薦人不能重複",
	}

	ErrInvalidLevel = &shared.DomainError{
		Code:    ErrCodeInvalidLevel,
		Message: "推薦層級必須介於 1 與 5 之間",
	}
)

// 分潤錯誤
var (
	ErrInvalidRewardRate = &shared.DomainError{
		Code:    ErrCodeInvalidRewardRate,
		Message: "分潤比例必須介於 0 與 1 之間",
	}

	ErrInvalidPointsEarned = &shared.DomainError{
		Code:    ErrCodeInvalidPointsEarned,
		Message: "獲得積分不能為負數",
	}

	// ErrDistributionMismatch 遠端確認的分潤對象不在用戶的推薦鏈中
	ErrDistributionMismatch = &shared.DomainError{
		Code:    ErrCodeDistributionMismatch,
		Message: "遠端分潤結果與推薦鏈不一致",
	}

	ErrDistributionNotFound = &shared.DomainError{
		Code:    ErrCodeDistributionNotFound,
		Message: "分潤記錄不存在",
	}

	ErrDistributionAlreadyApplied = &shared.DomainError{
		Code:    ErrCodeDistributionAlreadyApplied,
		Message: "此積分事件的分潤已處理",
	}

	ErrInvalidEventKey = &shared.DomainError{
		Code:    ErrCodeInvalidEventKey,
		Message: "積分事件鍵不能為空",
	}
)
