// Package offline 離線動作佇列的 GORM 倉儲實現
package offline

import (
	"errors"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/gormtx"
	"gorm.io/gorm"
)

// ActionRepositoryImpl 離線動作倉儲實現（GORM）
type ActionRepositoryImpl struct {
	db *gorm.DB
}

var _ offline.Repository = (*ActionRepositoryImpl)(nil)

// NewActionRepository 創建離線動作倉儲
func NewActionRepository(db *gorm.DB) *ActionRepositoryImpl {
	return &ActionRepositoryImpl{db: db}
}

// Save 指定插入序號後寫入
//
// 序號取 MAX(seq) + 1；寫入只發生在事務內（單一寫入者），唯一索引防止重複。
func (r *ActionRepositoryImpl) Save(ctx shared.TransactionContext, a *offline.PendingAction) error {
	db := gormtx.DB(ctx, r.db)

	var maxSeq int64
	if err := db.Model(&PendingActionGORM{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
		return err
	}
	a.AssignSeq(maxSeq + 1)

	model, err := toGORM(a)
	if err != nil {
		return err
	}
	return db.Create(model).Error
}

// Update 更新狀態與重試資訊
func (r *ActionRepositoryImpl) Update(ctx shared.TransactionContext, a *offline.PendingAction) error {
	model, err := toGORM(a)
	if err != nil {
		return err
	}
	result := gormtx.DB(ctx, r.db).Model(&PendingActionGORM{}).
		Where("action_id = ?", model.ActionID).
		Select("status", "attempt_count", "last_error", "last_attempt_at", "fatal").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return offline.ErrActionNotFound.WithContext("action_id", model.ActionID)
	}
	return nil
}

// Delete 刪除動作
func (r *ActionRepositoryImpl) Delete(ctx shared.TransactionContext, id offline.ActionID) error {
	result := gormtx.DB(ctx, r.db).Where("action_id = ?", id.String()).Delete(&PendingActionGORM{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return offline.ErrActionNotFound.WithContext("action_id", id.String())
	}
	return nil
}

// FindByID 根據 ID 查找
func (r *ActionRepositoryImpl) FindByID(ctx shared.TransactionContext, id offline.ActionID) (*offline.PendingAction, error) {
	var model PendingActionGORM
	if err := gormtx.DB(ctx, r.db).Where("action_id = ?", id.String()).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, offline.ErrActionNotFound.WithContext("action_id", id.String())
		}
		return nil, err
	}
	return model.toDomain()
}

// FindByStatus 依同步順序返回；未指定狀態時返回全部
func (r *ActionRepositoryImpl) FindByStatus(ctx shared.TransactionContext, statuses ...offline.Status) ([]*offline.PendingAction, error) {
	var models []PendingActionGORM
	err := r.whereStatus(gormtx.DB(ctx, r.db), statuses).
		Order("priority DESC").
		Order("created_at ASC").
		Order("seq ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make([]*offline.PendingAction, 0, len(models))
	for i := range models {
		a, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// CountByStatus 指定狀態的數量；未指定狀態時計算全部
func (r *ActionRepositoryImpl) CountByStatus(ctx shared.TransactionContext, statuses ...offline.Status) (int64, error) {
	var count int64
	err := r.whereStatus(gormtx.DB(ctx, r.db).Model(&PendingActionGORM{}), statuses).Count(&count).Error
	return count, err
}

func (r *ActionRepositoryImpl) whereStatus(db *gorm.DB, statuses []offline.Status) *gorm.DB {
	if len(statuses) == 0 {
		return db
	}
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return db.Where("status IN ?", values)
}
