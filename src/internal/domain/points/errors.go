package points

import "github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"

// ===========================
// 錯誤代碼定義
// ===========================

// 錯誤代碼常量
const (
	// 積分數量相關
	ErrCodeNegativePointsAmount shared.ErrorCode = "POINTS_NEGATIVE"
	ErrCodeInsufficientPoints   shared.ErrorCode = "POINTS_INSUFFICIENT"

	// 計算輸入相關
	ErrCodeInvalidAmount     shared.ErrorCode = "POINTS_AMOUNT_INVALID"
	ErrCodeInvalidMultiplier shared.ErrorCode = "POINTS_MULTIPLIER_INVALID"
	ErrCodeInvalidBaseRate   shared.ErrorCode = "POINTS_BASE_RATE_INVALID"

	// 帳本相關
	ErrCodeInvalidLedgerEntryID shared.ErrorCode = "LEDGER_ENTRY_ID_INVALID"
	ErrCodeDuplicateSource      shared.ErrorCode = "LEDGER_SOURCE_DUPLICATE"
)

// ===========================
// 預定義錯誤
// ===========================

// 積分數量相關錯誤
var (
	ErrNegativePointsAmount = &shared.DomainError{
		Code:    ErrCodeNegativePointsAmount,
		Message: "積分數量不能為負數",
	}

	ErrInsufficientPoints = &shared.DomainError{
		Code:    ErrCodeInsufficientPoints,
		Message: "積分餘額不足",
	}
)

// 計算輸入錯誤（驗證錯誤：只在輸入確實無效時返回）
var (
	ErrInvalidAmount = &shared.DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: "消費金額不能為負數",
	}

	ErrInvalidMultiplier = &shared.DomainError{
		Code:    ErrCodeInvalidMultiplier,
		Message: "加成倍數不能為負數",
	}

	ErrInvalidBaseRate = &shared.DomainError{
		Code:    ErrCodeInvalidBaseRate,
		Message: "基礎回饋率必須介於 0 與 1 之間",
	}
)

var (
	ErrInvalidLedgerEntryID = &shared.DomainError{
		Code:    ErrCodeInvalidLedgerEntryID,
		Message: "無效的積分帳本 ID",
	}

	// ErrDuplicateSource 同一來源事件已入帳
	ErrDuplicateSource = &shared.DomainError{
		Code:    ErrCodeDuplicateSource,
		Message: "此來源事件已入帳",
	}
)
