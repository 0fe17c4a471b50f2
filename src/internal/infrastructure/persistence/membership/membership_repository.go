// Package membership 會籍的 GORM 倉儲實現
package membership

import (
	"errors"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/gormtx"
	"gorm.io/gorm"
)

// ===========================
// MembershipRepositoryImpl
// ===========================

// MembershipRepositoryImpl 會籍倉儲實現（GORM）
//
// 將 GORM 錯誤轉換為 Domain 錯誤；Update 以 version 欄位做樂觀鎖。
type MembershipRepositoryImpl struct {
	db *gorm.DB
}

var _ membership.Repository = (*MembershipRepositoryImpl)(nil)

// NewMembershipRepository 創建新的會籍倉儲實例
func NewMembershipRepository(db *gorm.DB) *MembershipRepositoryImpl {
	return &MembershipRepositoryImpl{db: db}
}

// Save 新增會籍
//
// 錯誤處理：
// - UNIQUE constraint 違反（user_id + venue_id 重複）→ ErrMembershipAlreadyExists
func (r *MembershipRepositoryImpl) Save(ctx shared.TransactionContext, m *membership.Membership) error {
	db := gormtx.DB(ctx, r.db)

	if err := db.Create(toGORM(m)).Error; err != nil {
		if gormtx.IsUniqueConstraintError(err) {
			return membership.ErrMembershipAlreadyExists.WithContext(
				"user_id", m.UserID().String(),
				"venue_id", m.VenueID().String(),
			)
		}
		return err
	}
	return nil
}

// Update 更新會籍（樂觀鎖）
//
// 實作邏輯：
// 1. UPDATE ... WHERE membership_id = ? AND version = ?
// 2. 影響 0 筆：記錄不存在 → ErrMembershipNotFound，否則 → ErrConcurrentModification
// 3. 成功後遞增聚合的 version
//
// 使用 Select("*") 讓零值欄位（如餘額歸零）也會被寫入。
func (r *MembershipRepositoryImpl) Update(ctx shared.TransactionContext, m *membership.Membership) error {
	db := gormtx.DB(ctx, r.db)

	model := toGORM(m)
	expected := model.Version
	model.Version = expected + 1

	result := db.Model(&MembershipGORM{}).
		Where("membership_id = ? AND version = ?", model.MembershipID, expected).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&MembershipGORM{}).Where("membership_id = ?", model.MembershipID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return membership.ErrMembershipNotFound.WithContext("membership_id", model.MembershipID)
		}
		return membership.ErrConcurrentModification.WithContext(
			"membership_id", model.MembershipID,
			"expected_version", expected,
		)
	}

	m.IncrementVersion()
	return nil
}

// FindByID 根據會籍 ID 查找
func (r *MembershipRepositoryImpl) FindByID(ctx shared.TransactionContext, id membership.MembershipID) (*membership.Membership, error) {
	db := gormtx.DB(ctx, r.db)

	var model MembershipGORM
	if err := db.Where("membership_id = ?", id.String()).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, membership.ErrMembershipNotFound.WithContext("membership_id", id.String())
		}
		return nil, err
	}
	return model.toDomain()
}

// FindByUserAndVenue 根據用戶與場館查找
func (r *MembershipRepositoryImpl) FindByUserAndVenue(ctx shared.TransactionContext, userID shared.UserID, venueID shared.VenueID) (*membership.Membership, error) {
	db := gormtx.DB(ctx, r.db)

	var model MembershipGORM
	err := db.Where("user_id = ? AND venue_id = ?", userID.String(), venueID.String()).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, membership.ErrMembershipNotFound.WithContext(
				"user_id", userID.String(),
				"venue_id", venueID.String(),
			)
		}
		return nil, err
	}
	return model.toDomain()
}

// FindByUser 用戶的所有會籍（依加入時間排序）
func (r *MembershipRepositoryImpl) FindByUser(ctx shared.TransactionContext, userID shared.UserID) ([]*membership.Membership, error) {
	return r.findWhere(ctx, "user_id = ?", userID.String())
}

// FindActive 所有啟用中的會籍
func (r *MembershipRepositoryImpl) FindActive(ctx shared.TransactionContext) ([]*membership.Membership, error) {
	return r.findWhere(ctx, "is_active = ?", true)
}

// FindWithBalance 啟用中且餘額 > 0 的會籍
func (r *MembershipRepositoryImpl) FindWithBalance(ctx shared.TransactionContext) ([]*membership.Membership, error) {
	return r.findWhere(ctx, "is_active = ? AND points_balance > 0", true)
}

// ExistsByUserAndVenue 檢查會籍是否存在
func (r *MembershipRepositoryImpl) ExistsByUserAndVenue(ctx shared.TransactionContext, userID shared.UserID, venueID shared.VenueID) (bool, error) {
	db := gormtx.DB(ctx, r.db)

	var count int64
	err := db.Model(&MembershipGORM{}).
		Where("user_id = ? AND venue_id = ?", userID.String(), venueID.String()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MembershipRepositoryImpl) findWhere(ctx shared.TransactionContext, query string, args ...interface{}) ([]*membership.Membership, error) {
	db := gormtx.DB(ctx, r.db)

	var models []MembershipGORM
	if err := db.Where(query, args...).Order("joined_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainList(models)
}
