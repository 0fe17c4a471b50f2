// Package referral 推薦鏈與分潤記錄的 GORM 倉儲實現
package referral

import (
	"errors"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/gormtx"
	"gorm.io/gorm"
)

// ChainRepositoryImpl 推薦鏈倉儲實現（GORM）
type ChainRepositoryImpl struct {
	db *gorm.DB
}

var _ referral.ChainRepository = (*ChainRepositoryImpl)(nil)

// NewChainRepository 創建推薦鏈倉儲
func NewChainRepository(db *gorm.DB) *ChainRepositoryImpl {
	return &ChainRepositoryImpl{db: db}
}

// Save 新增推薦鏈；用戶已有推薦鏈時返回 ErrChainAlreadyExists
func (r *ChainRepositoryImpl) Save(ctx shared.TransactionContext, c *referral.Chain) error {
	if err := gormtx.DB(ctx, r.db).Create(chainToGORM(c)).Error; err != nil {
		if gormtx.IsUniqueConstraintError(err) {
			return referral.ErrChainAlreadyExists.WithContext("user_id", c.UserID().String())
		}
		return err
	}
	return nil
}

// Update 覆寫推薦鏈（累計分潤）
func (r *ChainRepositoryImpl) Update(ctx shared.TransactionContext, c *referral.Chain) error {
	model := chainToGORM(c)
	result := gormtx.DB(ctx, r.db).Model(&ChainGORM{}).
		Where("user_id = ?", model.UserID).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return referral.ErrChainNotFound.WithContext("user_id", model.UserID)
	}
	return nil
}

// FindByUser 用戶的推薦鏈，找不到返回 ErrChainNotFound
func (r *ChainRepositoryImpl) FindByUser(ctx shared.TransactionContext, userID shared.UserID) (*referral.Chain, error) {
	var model ChainGORM
	if err := gormtx.DB(ctx, r.db).Where("user_id = ?", userID.String()).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, referral.ErrChainNotFound.WithContext("user_id", userID.String())
		}
		return nil, err
	}
	return model.toDomain()
}

// ExistsByUser 用戶是否已有推薦鏈
func (r *ChainRepositoryImpl) ExistsByUser(ctx shared.TransactionContext, userID shared.UserID) (bool, error) {
	var count int64
	if err := gormtx.DB(ctx, r.db).Model(&ChainGORM{}).Where("user_id = ?", userID.String()).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountDirectReferrals 以 userID 為第 1 層推薦人的用戶數（徽章條件使用）
func (r *ChainRepositoryImpl) CountDirectReferrals(ctx shared.TransactionContext, userID shared.UserID) (int, error) {
	var count int64
	if err := gormtx.DB(ctx, r.db).Model(&ChainGORM{}).Where("referrer_1 = ?", userID.String()).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}
