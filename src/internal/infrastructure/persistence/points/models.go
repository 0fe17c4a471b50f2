package points

import (
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

// ===========================
// GORM Models
// ===========================

// LedgerEntryGORM 積分帳本資料表模型（只新增，不更新）
//
// 資料庫約束：
// - entry_id: 主鍵（UUID）
// - (user_id, venue_id, created_at): 查詢索引
// - (source, source_id): 重複入帳檢查索引
type LedgerEntryGORM struct {
	EntryID string `gorm:"column:entry_id;type:varchar(36);primaryKey"`
	UserID  string `gorm:"column:user_id;type:varchar(36);not null;index:idx_ledger_member,priority:1"`
	VenueID string `gorm:"column:venue_id;type:varchar(36);not null;index:idx_ledger_member,priority:2"`

	EntryType     string `gorm:"column:entry_type;type:varchar(16);not null"`
	Amount        int    `gorm:"column:amount;not null;check:amount >= 0"`
	BalanceBefore int    `gorm:"column:balance_before;not null"`
	BalanceAfter  int    `gorm:"column:balance_after;not null"`

	Source   string `gorm:"column:source;type:varchar(32);not null;index:idx_ledger_source,priority:1"`
	SourceID string `gorm:"column:source_id;type:varchar(128);not null;index:idx_ledger_source,priority:2"`

	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_ledger_member,priority:3"`
}

// TableName 指定資料表名稱
func (LedgerEntryGORM) TableName() string {
	return "points_ledger"
}

// ===========================
// Mapper Functions
// ===========================

func (g *LedgerEntryGORM) toDomain() (*points.LedgerEntry, error) {
	id, err := points.LedgerEntryIDFromString(g.EntryID)
	if err != nil {
		return nil, err
	}
	userID, err := shared.UserIDFromString(g.UserID)
	if err != nil {
		return nil, err
	}
	venueID, err := shared.VenueIDFromString(g.VenueID)
	if err != nil {
		return nil, err
	}
	amount, err := points.NewPointsAmount(g.Amount)
	if err != nil {
		return nil, err
	}
	before, err := points.NewPointsAmount(g.BalanceBefore)
	if err != nil {
		return nil, err
	}
	after, err := points.NewPointsAmount(g.BalanceAfter)
	if err != nil {
		return nil, err
	}

	return points.ReconstructLedgerEntry(
		id,
		userID,
		venueID,
		points.EntryType(g.EntryType),
		amount, before, after,
		points.PointsSource(g.Source),
		g.SourceID,
		g.CreatedAt,
	), nil
}

func toGORM(e *points.LedgerEntry) *LedgerEntryGORM {
	return &LedgerEntryGORM{
		EntryID:       e.ID().String(),
		UserID:        e.UserID().String(),
		VenueID:       e.VenueID().String(),
		EntryType:     string(e.Type()),
		Amount:        e.Amount().Value(),
		BalanceBefore: e.BalanceBefore().Value(),
		BalanceAfter:  e.BalanceAfter().Value(),
		Source:        string(e.Source()),
		SourceID:      e.SourceID(),
		CreatedAt:     e.CreatedAt(),
	}
}
