package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User       UserRepository
	Friend     FriendRepository
	Block      BlockRepository
	Group      GroupRepository
	Thread     ThreadRepository
	Reply      ReplyRepository
	Chat       ChatRepository
	Moderation ModerationRepository
	Ban        BanRepository
	Stats      StatsRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		User:       NewUserRepo(db),
		Friend:     NewFriendRepo(db),
		Block:      NewBlockRepo(db),
		Group:      NewGroupRepo(db),
		Thread:     NewThreadRepo(db),
		Reply:      NewReplyRepo(db),
		Chat:       NewChatRepo(db),
		Moderation: NewModerationRepo(db),
		Ban:        NewBanRepo(db),
		Stats:      NewStatsRepo(db),
	}
}

// BeginTx 开启事务；未绑定数据库（单元测试中的 mock 聚合）时返回 nil
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务的 Repository 聚合；tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// ── 分页与过滤 ──

// Page 偏移分页参数
type Page struct {
	Offset int
	Limit  int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	return db
}
