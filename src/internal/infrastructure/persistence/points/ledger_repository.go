// Package points 積分帳本的 GORM 倉儲實現
package points

import (
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/gormtx"
	"gorm.io/gorm"
)

// LedgerRepositoryImpl 積分帳本倉儲實現（GORM）
type LedgerRepositoryImpl struct {
	db *gorm.DB
}

var _ points.LedgerRepository = (*LedgerRepositoryImpl)(nil)

// NewLedgerRepository 創建帳本倉儲
func NewLedgerRepository(db *gorm.DB) *LedgerRepositoryImpl {
	return &LedgerRepositoryImpl{db: db}
}

// Append 寫入一筆記錄
func (r *LedgerRepositoryImpl) Append(ctx shared.TransactionContext, entry *points.LedgerEntry) error {
	return gormtx.DB(ctx, r.db).Create(toGORM(entry)).Error
}

// FindByMember 依時間倒序列出會籍的帳本記錄
func (r *LedgerRepositoryImpl) FindByMember(
	ctx shared.TransactionContext,
	userID shared.UserID,
	venueID shared.VenueID,
	limit int,
) ([]*points.LedgerEntry, error) {
	query := gormtx.DB(ctx, r.db).
		Where("user_id = ? AND venue_id = ?", userID.String(), venueID.String()).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []LedgerEntryGORM
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*points.LedgerEntry, 0, len(models))
	for i := range models {
		e, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ExistsBySource 同一來源是否已入帳
func (r *LedgerRepositoryImpl) ExistsBySource(ctx shared.TransactionContext, source points.PointsSource, sourceID string) (bool, error) {
	var count int64
	err := gormtx.DB(ctx, r.db).Model(&LedgerEntryGORM{}).
		Where("source = ? AND source_id = ?", string(source), sourceID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
