package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/internal/model"
)

// LogFilter 管理日志过滤条件
type LogFilter struct {
	GroupID      string
	Action       string
	TargetUserID string
	ModeratorID  string
}

// ModerationRepository 管理日志数据访问接口；日志只追加，不提供更新与删除
type ModerationRepository interface {
	CreateLog(ctx context.Context, log *model.ModerationLog) error
	ListLogs(ctx context.Context, filter LogFilter, page Page) ([]model.ModerationLog, int64, error)
}

type moderationRepo struct {
	db *gorm.DB
}

// NewModerationRepo 创建 ModerationRepository 实例
func NewModerationRepo(db *gorm.DB) ModerationRepository {
	return &moderationRepo{db: db}
}

func (r *moderationRepo) CreateLog(ctx context.Context, log *model.ModerationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *moderationRepo) ListLogs(ctx context.Context, filter LogFilter, page Page) ([]model.ModerationLog, int64, error) {
	var logs []model.ModerationLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ModerationLog{})
	if filter.GroupID != "" {
		db = db.Where("group_id = ?", filter.GroupID)
	}
	if filter.Action != "" {
		db = db.Where("action = ?", filter.Action)
	}
	if filter.TargetUserID != "" {
		db = db.Where("target_user_id = ?", filter.TargetUserID)
	}
	if filter.ModeratorID != "" {
		db = db.Where("moderator_id = ?", filter.ModeratorID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(db).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// BanFilter 封禁列表过滤条件
type BanFilter struct {
	UserID     string
	GroupID    string
	GlobalOnly bool
	ActiveAt   *time.Time // 非空时只返回该时刻生效的封禁
}

// BanRepository 封禁数据访问接口
type BanRepository interface {
	Create(ctx context.Context, ban *model.UserBan) error
	GetByID(ctx context.Context, id string) (*model.UserBan, error)
	Revoke(ctx context.Context, id, revokedBy string, at time.Time) error
	List(ctx context.Context, filter BanFilter, page Page) ([]model.UserBan, int64, error)
	ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]model.UserBan, error)
}

type banRepo struct {
	db *gorm.DB
}

// NewBanRepo 创建 BanRepository 实例
func NewBanRepo(db *gorm.DB) BanRepository {
	return &banRepo{db: db}
}

func (r *banRepo) Create(ctx context.Context, ban *model.UserBan) error {
	return r.db.WithContext(ctx).Create(ban).Error
}

func (r *banRepo) GetByID(ctx context.Context, id string) (*model.UserBan, error) {
	var ban model.UserBan
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ban).Error; err != nil {
		return nil, err
	}
	return &ban, nil
}

func (r *banRepo) Revoke(ctx context.Context, id, revokedBy string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.UserBan{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(map[string]interface{}{"revoked_at": at, "revoked_by": revokedBy}).Error
}

func activeAt(db *gorm.DB, now time.Time) *gorm.DB {
	return db.Where("revoked_at IS NULL").Where("expires_at IS NULL OR expires_at > ?", now)
}

func (r *banRepo) List(ctx context.Context, filter BanFilter, page Page) ([]model.UserBan, int64, error) {
	var bans []model.UserBan
	var total int64

	db := r.db.WithContext(ctx).Model(&model.UserBan{})
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.GroupID != "" {
		db = db.Where("group_id = ?", filter.GroupID)
	}
	if filter.GlobalOnly {
		db = db.Where("is_global = ?", true)
	}
	if filter.ActiveAt != nil {
		db = activeAt(db, *filter.ActiveAt)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(db).Order("created_at DESC").Find(&bans).Error; err != nil {
		return nil, 0, err
	}
	return bans, total, nil
}

func (r *banRepo) ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]model.UserBan, error) {
	var bans []model.UserBan
	err := activeAt(r.db.WithContext(ctx).Where("user_id = ?", userID), now).
		Find(&bans).Error
	return bans, err
}
