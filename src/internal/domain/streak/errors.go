package streak

import "github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"

const (
	ErrCodeInvalidCheckInID      shared.ErrorCode = "CHECK_IN_ID_INVALID"
	ErrCodeAlreadyCheckedInToday shared.ErrorCode = "CHECK_IN_ALREADY_TODAY"
	ErrCodeInvalidCheckIn        shared.ErrorCode = "CHECK_IN_INVALID"
)

var (
	ErrInvalidCheckInID = &shared.DomainError{
		Code:    ErrCodeInvalidCheckInID,
		Message: "無效的打卡 ID",
	}

	ErrAlreadyCheckedInToday = &shared.DomainError{
		Code:    ErrCodeAlreadyCheckedInToday,
		Message: "今天已在此場館打卡",
	}

	ErrInvalidCheckIn = &shared.DomainError{
		Code:    ErrCodeInvalidCheckIn,
		Message: "打卡資料無效",
	}
)
