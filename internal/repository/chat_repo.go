package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/internal/model"
)

// ChatRepository 私聊会话、参与者与消息数据访问接口
type ChatRepository interface {
	Create(ctx context.Context, chat *model.PrivateChat) error
	GetByID(ctx context.Context, id string) (*model.PrivateChat, error)
	Update(ctx context.Context, chat *model.PrivateChat) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]model.PrivateChat, error)

	// ── 参与者 ──
	AddParticipants(ctx context.Context, ps []model.ChatParticipant) error
	GetParticipant(ctx context.Context, chatID, userID string) (*model.ChatParticipant, error)
	RemoveParticipant(ctx context.Context, chatID, userID string) error
	CountParticipants(ctx context.Context, chatID string) (int64, error)
	SetMuted(ctx context.Context, chatID, userID string, muted bool) error
	ListParticipants(ctx context.Context, chatID string) ([]model.ChatParticipant, error)

	// ── 消息 ──
	CreateMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, chatID string, limit int) ([]model.Message, error)
}

type chatRepo struct {
	db *gorm.DB
}

// NewChatRepo 创建 ChatRepository 实例
func NewChatRepo(db *gorm.DB) ChatRepository {
	return &chatRepo{db: db}
}

func (r *chatRepo) Create(ctx context.Context, chat *model.PrivateChat) error {
	return r.db.WithContext(ctx).Omit("Participants").Create(chat).Error
}

func (r *chatRepo) GetByID(ctx context.Context, id string) (*model.PrivateChat, error) {
	var chat model.PrivateChat
	err := r.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at ASC") }).
		Preload("Participants.User").
		Where("id = ?", id).
		First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepo) Update(ctx context.Context, chat *model.PrivateChat) error {
	return r.db.WithContext(ctx).
		Model(chat).
		Select("name", "avatar", "updated_at").
		Updates(chat).Error
}

func (r *chatRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.PrivateChat{}).Error
}

func (r *chatRepo) ListByUser(ctx context.Context, userID string) ([]model.PrivateChat, error) {
	var chats []model.PrivateChat
	err := r.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at ASC") }).
		Preload("Participants.User").
		Where("id IN (?)", r.db.Model(&model.ChatParticipant{}).Select("chat_id").Where("user_id = ?", userID)).
		Order("updated_at DESC").
		Find(&chats).Error
	return chats, err
}

// ────────── 参与者 ──────────

func (r *chatRepo) AddParticipants(ctx context.Context, ps []model.ChatParticipant) error {
	if len(ps) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("User").Create(&ps).Error
}

func (r *chatRepo) GetParticipant(ctx context.Context, chatID, userID string) (*model.ChatParticipant, error) {
	var p model.ChatParticipant
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *chatRepo) RemoveParticipant(ctx context.Context, chatID, userID string) error {
	return r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Delete(&model.ChatParticipant{}).Error
}

func (r *chatRepo) CountParticipants(ctx context.Context, chatID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChatParticipant{}).
		Where("chat_id = ?", chatID).
		Count(&count).Error
	return count, err
}

func (r *chatRepo) SetMuted(ctx context.Context, chatID, userID string, muted bool) error {
	return r.db.WithContext(ctx).Model(&model.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Update("muted", muted).Error
}

func (r *chatRepo) ListParticipants(ctx context.Context, chatID string) ([]model.ChatParticipant, error) {
	var ps []model.ChatParticipant
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("chat_id = ?", chatID).
		Order("joined_at ASC").
		Find(&ps).Error
	return ps, err
}

// ────────── 消息 ──────────

// CreateMessage 写入消息并刷新会话的 updated_at
func (r *chatRepo) CreateMessage(ctx context.Context, msg *model.Message) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(msg).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&model.PrivateChat{}).
		Where("id = ?", msg.ChatID).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

// ListMessages 取最近 limit 条消息，按时间正序返回
func (r *chatRepo) ListMessages(ctx context.Context, chatID string, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
