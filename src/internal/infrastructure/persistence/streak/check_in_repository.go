// Package streak 打卡記錄的 GORM 倉儲實現
package streak

import (
	"errors"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/streak"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/gormtx"
	"gorm.io/gorm"
)

// CheckInRepositoryImpl 打卡倉儲實現（GORM）
type CheckInRepositoryImpl struct {
	db *gorm.DB
}

var _ streak.Repository = (*CheckInRepositoryImpl)(nil)

// NewCheckInRepository 創建打卡倉儲
func NewCheckInRepository(db *gorm.DB) *CheckInRepositoryImpl {
	return &CheckInRepositoryImpl{db: db}
}

// Save 新增打卡記錄
func (r *CheckInRepositoryImpl) Save(ctx shared.TransactionContext, c *streak.CheckIn) error {
	return gormtx.DB(ctx, r.db).Create(toGORM(c)).Error
}

// FindLatest 最近一次打卡，沒有時返回 nil, nil
func (r *CheckInRepositoryImpl) FindLatest(ctx shared.TransactionContext, userID shared.UserID, venueID shared.VenueID) (*streak.CheckIn, error) {
	var model CheckInGORM
	err := gormtx.DB(ctx, r.db).
		Where("user_id = ? AND venue_id = ?", userID.String(), venueID.String()).
		Order("check_in_time DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.toDomain()
}

// FindByUser 依時間倒序列出用戶的打卡記錄
func (r *CheckInRepositoryImpl) FindByUser(ctx shared.TransactionContext, userID shared.UserID, limit int) ([]*streak.CheckIn, error) {
	query := gormtx.DB(ctx, r.db).
		Where("user_id = ?", userID.String()).
		Order("check_in_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []CheckInGORM
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*streak.CheckIn, 0, len(models))
	for i := range models {
		c, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
