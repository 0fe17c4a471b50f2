package points

import (
	"fmt"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

// EntryType 帳本記錄類型
type EntryType string

const (
	EntryTypeEarn   EntryType = "earn"
	EntryTypeRedeem EntryType = "redeem"
	EntryTypeExpire EntryType = "expire"
)

// ===========================
// LedgerEntry 積分帳本記錄
// ===========================

// LedgerEntry 每一次餘額變動的稽核記錄（不可變）
//
// 會籍以 (userID, venueID) 唯一識別，因此帳本直接以這兩個 ID 關聯。
type LedgerEntry struct {
	id            LedgerEntryID
	userID        shared.UserID
	venueID       shared.VenueID
	entryType     EntryType
	amount        PointsAmount
	balanceBefore PointsAmount
	balanceAfter  PointsAmount
	source        PointsSource
	sourceID      string
	createdAt     time.Time
}

// NewLedgerEntry 建立帳本記錄，balanceAfter 由類型與金額推導
func NewLedgerEntry(
	userID shared.UserID,
	venueID shared.VenueID,
	entryType EntryType,
	amount PointsAmount,
	balanceBefore PointsAmount,
	source PointsSource,
	sourceID string,
	createdAt time.Time,
) (*LedgerEntry, error) {
	if !source.IsValid() {
		return nil, fmt.Errorf("unknown points source %q", source)
	}

	var after PointsAmount
	switch entryType {
	case EntryTypeEarn:
		after = balanceBefore.Add(amount)
	case EntryTypeRedeem, EntryTypeExpire:
		var err error
		after, err = balanceBefore.Subtract(amount)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown ledger entry type %q", entryType)
	}

	return &LedgerEntry{
		id:            NewLedgerEntryID(),
		userID:        userID,
		venueID:       venueID,
		entryType:     entryType,
		amount:        amount,
		balanceBefore: balanceBefore,
		balanceAfter:  after,
		source:        source,
		sourceID:      sourceID,
		createdAt:     createdAt,
	}, nil
}

// ReconstructLedgerEntry 從持久化層重建（不做驗證）
func ReconstructLedgerEntry(
	id LedgerEntryID,
	userID shared.UserID,
	venueID shared.VenueID,
	entryType EntryType,
	amount, balanceBefore, balanceAfter PointsAmount,
	source PointsSource,
	sourceID string,
	createdAt time.Time,
) *LedgerEntry {
	return &LedgerEntry{
		id:            id,
		userID:        userID,
		venueID:       venueID,
		entryType:     entryType,
		amount:        amount,
		balanceBefore: balanceBefore,
		balanceAfter:  balanceAfter,
		source:        source,
		sourceID:      sourceID,
		createdAt:     createdAt,
	}
}

func (e *LedgerEntry) ID() LedgerEntryID           { return e.id }
func (e *LedgerEntry) UserID() shared.UserID       { return e.userID }
func (e *LedgerEntry) VenueID() shared.VenueID     { return e.venueID }
func (e *LedgerEntry) Type() EntryType             { return e.entryType }
func (e *LedgerEntry) Amount() PointsAmount        { return e.amount }
func (e *LedgerEntry) BalanceBefore() PointsAmount { return e.balanceBefore }
func (e *LedgerEntry) BalanceAfter() PointsAmount  { return e.balanceAfter }
func (e *LedgerEntry) Source() PointsSource        { return e.source }
func (e *LedgerEntry) SourceID() string            { return e.sourceID }
func (e *LedgerEntry) CreatedAt() time.Time        { return e.createdAt }

// LedgerRepository 帳本倉儲介面
type LedgerRepository interface {
	// Append 寫入一筆記錄（ctx 必須為 non-nil）
	Append(ctx shared.TransactionContext, entry *LedgerEntry) error

	// FindByMember 依時間倒序列出會籍的帳本記錄，limit <= 0 表示不限
	FindByMember(
		ctx shared.TransactionContext,
		userID shared.UserID,
		venueID shared.VenueID,
		limit int,
	) ([]*LedgerEntry, error)

	// ExistsBySource 同一來源（如訂單編號）是否已入帳，用於拒絕重複事件
	ExistsBySource(ctx shared.TransactionContext, source PointsSource, sourceID string) (bool, error)
}
