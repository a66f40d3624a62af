package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*model.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Search(ctx context.Context, query string, excludeIDs []string, limit int) ([]model.User, error)
	ListOnboarded(ctx context.Context, excludeIDs []string) ([]model.User, error)
	List(ctx context.Context, page Page) ([]model.User, int64, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(email))
}

func (r *userRepo) GetByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	return r.first(ctx, "verification_token = ?", token)
}

func (r *userRepo) first(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// Search 按用户名/姓名/邮箱模糊匹配已验证用户
func (r *userRepo) Search(ctx context.Context, query string, excludeIDs []string, limit int) ([]model.User, error) {
	var users []model.User
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	db := r.db.WithContext(ctx).
		Where("verified_at IS NOT NULL").
		Where("LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?",
			pattern, pattern, pattern, pattern)
	if len(excludeIDs) > 0 {
		db = db.Where("id NOT IN ?", excludeIDs)
	}
	err := db.Order("username ASC").Limit(limit).Find(&users).Error
	return users, err
}

// ListOnboarded 返回已验证且完成引导资料的候选用户
func (r *userRepo) ListOnboarded(ctx context.Context, excludeIDs []string) ([]model.User, error) {
	var users []model.User
	db := r.db.WithContext(ctx).
		Where("verified_at IS NOT NULL").
		Where("cardinality(majors) >= ?", model.MinMajors).
		Where("cardinality(interests_hobbies) >= ?", model.MinInterests)
	if len(excludeIDs) > 0 {
		db = db.Where("id NOT IN ?", excludeIDs)
	}
	err := db.Find(&users).Error
	return users, err
}

func (r *userRepo) List(ctx context.Context, page Page) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(db).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
