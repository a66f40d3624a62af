package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/internal/model"
)

// BlockRepository 拉黑数据访问接口
type BlockRepository interface {
	Create(ctx context.Context, block *model.UserBlock) error
	Delete(ctx context.Context, blockerID, blockedID string) (int64, error)
	Exists(ctx context.Context, blockerID, blockedID string) (bool, error)
	IsBlockedEither(ctx context.Context, a, b string) (bool, error)
	ListByBlocker(ctx context.Context, blockerID string) ([]model.UserBlock, error)
	ListRelatedIDs(ctx context.Context, userID string) ([]string, error)
}

type blockRepo struct {
	db *gorm.DB
}

// NewBlockRepo 创建 BlockRepository 实例
func NewBlockRepo(db *gorm.DB) BlockRepository {
	return &blockRepo{db: db}
}

func (r *blockRepo) Create(ctx context.Context, block *model.UserBlock) error {
	return r.db.WithContext(ctx).Create(block).Error
}

func (r *blockRepo) Delete(ctx context.Context, blockerID, blockedID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&model.UserBlock{})
	return res.RowsAffected, res.Error
}

func (r *blockRepo) Exists(ctx context.Context, blockerID, blockedID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserBlock{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&count).Error
	return count > 0, err
}

func (r *blockRepo) IsBlockedEither(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

func (r *blockRepo) ListByBlocker(ctx context.Context, blockerID string) ([]model.UserBlock, error) {
	var blocks []model.UserBlock
	err := r.db.WithContext(ctx).
		Preload("Blocked").
		Where("blocker_id = ?", blockerID).
		Order("created_at DESC").
		Find(&blocks).Error
	return blocks, err
}

// ListRelatedIDs 返回与用户存在任一方向拉黑关系的用户 ID
func (r *blockRepo) ListRelatedIDs(ctx context.Context, userID string) ([]string, error) {
	var blocks []model.UserBlock
	err := r.db.WithContext(ctx).
		Where("blocker_id = ? OR blocked_id = ?", userID, userID).
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.BlockerID == userID {
			ids = append(ids, b.BlockedID)
		} else {
			ids = append(ids, b.BlockerID)
		}
	}
	return ids, nil
}
