package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/internal/model"
)

// FriendRepository 好友请求与好友关系数据访问接口
type FriendRepository interface {
	// ── 好友请求 ──
	CreateRequest(ctx context.Context, req *model.FriendRequest) error
	GetRequestByID(ctx context.Context, id string) (*model.FriendRequest, error)
	FindRequest(ctx context.Context, fromID, toID string) (*model.FriendRequest, error)
	HasPendingBetween(ctx context.Context, a, b string) (bool, error)
	UpdateRequestStatus(ctx context.Context, id, status string) error
	ListPendingReceived(ctx context.Context, userID string) ([]model.FriendRequest, error)
	ListPendingSent(ctx context.Context, userID string) ([]model.FriendRequest, error)
	DeleteRequestsBetween(ctx context.Context, a, b string) error

	// ── 好友关系 ──
	CreateFriendship(ctx context.Context, f *model.Friendship) error
	GetFriendship(ctx context.Context, a, b string) (*model.Friendship, error)
	DeleteFriendship(ctx context.Context, a, b string) error
	ListFriendships(ctx context.Context, userID string) ([]model.Friendship, error)
	ListFriendIDs(ctx context.Context, userID string) ([]string, error)
}

type friendRepo struct {
	db *gorm.DB
}

// NewFriendRepo 创建 FriendRepository 实例
func NewFriendRepo(db *gorm.DB) FriendRepository {
	return &friendRepo{db: db}
}

// ────────── 好友请求 ──────────

func (r *friendRepo) CreateRequest(ctx context.Context, req *model.FriendRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *friendRepo) GetRequestByID(ctx context.Context, id string) (*model.FriendRequest, error) {
	var req model.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("FromUser").
		Preload("ToUser").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *friendRepo) FindRequest(ctx context.Context, fromID, toID string) (*model.FriendRequest, error) {
	var req model.FriendRequest
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ?", fromID, toID).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *friendRepo) HasPendingBetween(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("status = ?", model.FriendRequestPending).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

// UpdateRequestStatus 仅对 pending 请求生效；请求已被处理时返回 gorm.ErrRecordNotFound
func (r *friendRepo) UpdateRequestStatus(ctx context.Context, id, status string) error {
	res := r.db.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("id = ? AND status = ?", id, model.FriendRequestPending).
		Updates(map[string]interface{}{"status": status, "updated_at": gorm.Expr("CURRENT_TIMESTAMP")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *friendRepo) ListPendingReceived(ctx context.Context, userID string) ([]model.FriendRequest, error) {
	var reqs []model.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("FromUser").
		Preload("ToUser").
		Where("to_user_id = ? AND status = ?", userID, model.FriendRequestPending).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *friendRepo) ListPendingSent(ctx context.Context, userID string) ([]model.FriendRequest, error) {
	var reqs []model.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("FromUser").
		Preload("ToUser").
		Where("from_user_id = ? AND status = ?", userID, model.FriendRequestPending).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *friendRepo) DeleteRequestsBetween(ctx context.Context, a, b string) error {
	return r.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)", a, b, b, a).
		Delete(&model.FriendRequest{}).Error
}

// ────────── 好友关系 ──────────

func (r *friendRepo) CreateFriendship(ctx context.Context, f *model.Friendship) error {
	f.User1ID, f.User2ID = model.CanonicalPair(f.User1ID, f.User2ID)
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *friendRepo) GetFriendship(ctx context.Context, a, b string) (*model.Friendship, error) {
	u1, u2 := model.CanonicalPair(a, b)
	var f model.Friendship
	err := r.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ?", u1, u2).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *friendRepo) DeleteFriendship(ctx context.Context, a, b string) error {
	u1, u2 := model.CanonicalPair(a, b)
	return r.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ?", u1, u2).
		Delete(&model.Friendship{}).Error
}

func (r *friendRepo) ListFriendships(ctx context.Context, userID string) ([]model.Friendship, error) {
	var fs []model.Friendship
	err := r.db.WithContext(ctx).
		Preload("User1").
		Preload("User2").
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&fs).Error
	return fs, err
}

func (r *friendRepo) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	var fs []model.Friendship
	err := r.db.WithContext(ctx).
		Select("user1_id", "user2_id").
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Find(&fs).Error
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(fs))
	for i := range fs {
		ids = append(ids, fs[i].Other(userID))
	}
	return ids, nil
}
