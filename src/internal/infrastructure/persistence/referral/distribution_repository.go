package referral

import (
	"errors"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/gormtx"
	"gorm.io/gorm"
)

// DistributionRecordRepositoryImpl 分潤記錄倉儲實現（GORM）
type DistributionRecordRepositoryImpl struct {
	db *gorm.DB
}

var _ referral.DistributionRecordRepository = (*DistributionRecordRepositoryImpl)(nil)

// NewDistributionRecordRepository 創建分潤記錄倉儲
func NewDistributionRecordRepository(db *gorm.DB) *DistributionRecordRepositoryImpl {
	return &DistributionRecordRepositoryImpl{db: db}
}

// Save 新增分潤記錄與明細；eventKey 重複返回 ErrDistributionAlreadyApplied
func (r *DistributionRecordRepositoryImpl) Save(ctx shared.TransactionContext, rec *referral.DistributionRecord) error {
	if err := gormtx.DB(ctx, r.db).Create(recordToGORM(rec)).Error; err != nil {
		if gormtx.IsUniqueConstraintError(err) {
			return referral.ErrDistributionAlreadyApplied.WithContext("event_key", rec.EventKey())
		}
		return err
	}
	return nil
}

// FindByEventKey 依事件鍵查詢，找不到返回 ErrDistributionNotFound
func (r *DistributionRecordRepositoryImpl) FindByEventKey(ctx shared.TransactionContext, eventKey string) (*referral.DistributionRecord, error) {
	var model DistributionRecordGORM
	err := gormtx.DB(ctx, r.db).
		Preload("Payouts").
		Where("event_key = ?", eventKey).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, referral.ErrDistributionNotFound.WithContext("event_key", eventKey)
		}
		return nil, err
	}
	return model.toDomain()
}
