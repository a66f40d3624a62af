package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/internal/model"
)

// ThreadRepository 论坛主题数据访问接口
type ThreadRepository interface {
	Create(ctx context.Context, thread *model.Thread) error
	GetByID(ctx context.Context, id string) (*model.Thread, error)
	Update(ctx context.Context, thread *model.Thread) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, groupID string, page Page) ([]model.Thread, int64, error)
	CountReplies(ctx context.Context, threadIDs []string) (map[string]int64, error)
}

// ReplyRepository 回复数据访问接口
type ReplyRepository interface {
	Create(ctx context.Context, reply *model.Reply) error
	GetByID(ctx context.Context, id string) (*model.Reply, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, threadID string, page Page) ([]model.Reply, int64, error)
}

type threadRepo struct {
	db *gorm.DB
}

// NewThreadRepo 创建 ThreadRepository 实例
func NewThreadRepo(db *gorm.DB) ThreadRepository {
	return &threadRepo{db: db}
}

func (r *threadRepo) Create(ctx context.Context, thread *model.Thread) error {
	return r.db.WithContext(ctx).Create(thread).Error
}

func (r *threadRepo) GetByID(ctx context.Context, id string) (*model.Thread, error) {
	var thread model.Thread
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ?", id).
		First(&thread).Error
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *threadRepo) Update(ctx context.Context, thread *model.Thread) error {
	return r.db.WithContext(ctx).
		Model(thread).
		Select("title", "content", "content_type", "attachments", "pinned", "locked", "updated_at").
		Updates(thread).Error
}

func (r *threadRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Thread{}).Error
}

// List 置顶优先，其次按创建时间倒序
func (r *threadRepo) List(ctx context.Context, groupID string, page Page) ([]model.Thread, int64, error) {
	var threads []model.Thread
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Thread{})
	if groupID != "" {
		db = db.Where("group_id = ?", groupID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(db).
		Preload("Author").
		Order("pinned DESC").Order("created_at DESC").
		Find(&threads).Error; err != nil {
		return nil, 0, err
	}
	return threads, total, nil
}

type threadCount struct {
	ThreadID string
	Count    int64
}

func (r *threadRepo) CountReplies(ctx context.Context, threadIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(threadIDs))
	if len(threadIDs) == 0 {
		return result, nil
	}
	var rows []threadCount
	err := r.db.WithContext(ctx).Model(&model.Reply{}).
		Select("thread_id, COUNT(*) AS count").
		Where("thread_id IN ?", threadIDs).
		Group("thread_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ThreadID] = row.Count
	}
	return result, nil
}

type replyRepo struct {
	db *gorm.DB
}

// NewReplyRepo 创建 ReplyRepository 实例
func NewReplyRepo(db *gorm.DB) ReplyRepository {
	return &replyRepo{db: db}
}

func (r *replyRepo) Create(ctx context.Context, reply *model.Reply) error {
	return r.db.WithContext(ctx).Create(reply).Error
}

func (r *replyRepo) GetByID(ctx context.Context, id string) (*model.Reply, error) {
	var reply model.Reply
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Thread").
		Where("id = ?", id).
		First(&reply).Error
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *replyRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Reply{}).Error
}

// List 回复始终按创建时间正序
func (r *replyRepo) List(ctx context.Context, threadID string, page Page) ([]model.Reply, int64, error) {
	var replies []model.Reply
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Reply{})
	if threadID != "" {
		db = db.Where("thread_id = ?", threadID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(db).Preload("Author").Order("created_at ASC").Find(&replies).Error; err != nil {
		return nil, 0, err
	}
	return replies, total, nil
}
