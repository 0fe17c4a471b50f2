// Package expiration 過期追蹤的 GORM 倉儲實現
package expiration

import (
	"errors"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/expiration"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/gormtx"
	"gorm.io/gorm"
)

// ExpirationRepositoryImpl 過期追蹤倉儲實現（GORM）
type ExpirationRepositoryImpl struct {
	db *gorm.DB
}

var _ expiration.Repository = (*ExpirationRepositoryImpl)(nil)

// NewExpirationRepository 創建過期追蹤倉儲
func NewExpirationRepository(db *gorm.DB) *ExpirationRepositoryImpl {
	return &ExpirationRepositoryImpl{db: db}
}

// Save 新增追蹤記錄
func (r *ExpirationRepositoryImpl) Save(ctx shared.TransactionContext, e *expiration.PointExpiration) error {
	return gormtx.DB(ctx, r.db).Create(toGORM(e)).Error
}

// Update 覆寫追蹤記錄
func (r *ExpirationRepositoryImpl) Update(ctx shared.TransactionContext, e *expiration.PointExpiration) error {
	model := toGORM(e)
	result := gormtx.DB(ctx, r.db).Model(&PointExpirationGORM{}).
		Where("expiration_id = ?", model.ExpirationID).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return expiration.ErrExpirationNotFound.WithContext("expiration_id", model.ExpirationID)
	}
	return nil
}

// FindByID 根據 ID 查找
func (r *ExpirationRepositoryImpl) FindByID(ctx shared.TransactionContext, id expiration.ExpirationID) (*expiration.PointExpiration, error) {
	var model PointExpirationGORM
	if err := gormtx.DB(ctx, r.db).Where("expiration_id = ?", id.String()).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, expiration.ErrExpirationNotFound.WithContext("expiration_id", id.String())
		}
		return nil, err
	}
	return model.toDomain()
}

// FindTrackingByMembership 會籍目前追蹤中的記錄
func (r *ExpirationRepositoryImpl) FindTrackingByMembership(ctx shared.TransactionContext, membershipID membership.MembershipID) (*expiration.PointExpiration, error) {
	var model PointExpirationGORM
	err := gormtx.DB(ctx, r.db).
		Where("membership_id = ? AND is_expired = ?", membershipID.String(), false).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, expiration.ErrExpirationNotFound.WithContext("membership_id", membershipID.String())
		}
		return nil, err
	}
	return model.toDomain()
}

// FindPendingRemoteNotify 已過期但尚未成功通知遠端的記錄
func (r *ExpirationRepositoryImpl) FindPendingRemoteNotify(ctx shared.TransactionContext, maxAttempts int) ([]*expiration.PointExpiration, error) {
	var models []PointExpirationGORM
	err := gormtx.DB(ctx, r.db).
		Where("is_expired = ? AND remote_notified_at IS NULL AND notify_attempts < ?", true, maxAttempts).
		Order("expiration_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(models)
}

// FindExpiringByUser 用戶所有追蹤中的記錄（依過期日排序）
func (r *ExpirationRepositoryImpl) FindExpiringByUser(ctx shared.TransactionContext, userID shared.UserID) ([]*expiration.PointExpiration, error) {
	var models []PointExpirationGORM
	err := gormtx.DB(ctx, r.db).
		Where("user_id = ? AND is_expired = ?", userID.String(), false).
		Order("expiration_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(models)
}
