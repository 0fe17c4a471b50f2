package membership

import "github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"

// ===========================
// Membership Domain 錯誤代碼
// ===========================

const (
	ErrCodeInvalidMembershipID     shared.ErrorCode = "MEMBERSHIP_ID_INVALID"
	ErrCodeMembershipNotFound      shared.ErrorCode = "MEMBERSHIP_NOT_FOUND"
	ErrCodeMembershipAlreadyExists shared.ErrorCode = "MEMBERSHIP_ALREADY_EXISTS"
	ErrCodeMembershipInactive      shared.ErrorCode = "MEMBERSHIP_INACTIVE"
	ErrCodeInvalidSpend            shared.ErrorCode = "MEMBERSHIP_SPEND_INVALID"
	ErrCodeInvalidTier             shared.ErrorCode = "MEMBERSHIP_TIER_INVALID"
	ErrCodeConcurrentModification  shared.ErrorCode = "MEMBERSHIP_CONCURRENT_MODIFICATION"
)

// ===========================
// Membership Domain 錯誤實例
// ===========================

var (
	// ErrInvalidMembershipID 會籍 ID 格式無效
	ErrInvalidMembershipID = &shared.DomainError{
		Code:    ErrCodeInvalidMembershipID,
		Message: "會籍 ID 格式無效",
	}

	// ErrMembershipNotFound 會籍不存在
	ErrMembershipNotFound = &shared.DomainError{
		Code:    ErrCodeMembershipNotFound,
		Message: "會籍不存在",
	}

	// ErrMembershipAlreadyExists 同一用戶在同一場館只能有一個會籍
	ErrMembershipAlreadyExists = &shared.DomainError{
		Code:    ErrCodeMembershipAlreadyExists,
		Message: "會籍已存在",
	}

	// ErrMembershipInactive 已停用的會籍不能再入帳或扣點
	ErrMembershipInactive = &shared.DomainError{
		Code:    ErrCodeMembershipInactive,
		Message: "會籍已停用",
	}

	// ErrInvalidSpend 消費金額不能為負數
	ErrInvalidSpend = &shared.DomainError{
		Code:    ErrCodeInvalidSpend,
		Message: "消費金額不能為負數",
	}

	// ErrInvalidTier 等級名稱不能為空
	ErrInvalidTier = &shared.DomainError{
		Code:    ErrCodeInvalidTier,
		Message: "等級名稱無效",
	}

	// ErrConcurrentModification 樂觀鎖版本衝突
	//
	// 觸發條件：
	// - Update 時資料庫中的 version 與聚合載入時不同
	ErrConcurrentModification = &shared.DomainError{
		Code:    ErrCodeConcurrentModification,
		Message: "會籍已被其他操作修改，請重試",
	}
)
