package points

import "github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"

// LedgerEntryMarker 是 LedgerEntryID 的標記類型
type LedgerEntryMarker struct{}

// LedgerEntryID 積分帳本記錄的唯一標識符
type LedgerEntryID = shared.EntityID[LedgerEntryMarker]

// NewLedgerEntryID 生成新的帳本記錄 ID
func NewLedgerEntryID() LedgerEntryID {
	return shared.NewEntityID[LedgerEntryMarker]()
}

// LedgerEntryIDFromString 從字串解析帳本記錄 ID
func LedgerEntryIDFromString(s string) (LedgerEntryID, error) {
	return shared.EntityIDFromString[LedgerEntryMarker](s, ErrInvalidLedgerEntryID)
}
