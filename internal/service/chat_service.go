package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/model"
	"github.com/j-neeley/DawgPound/internal/repository"
	pkgerrors "github.com/j-neeley/DawgPound/pkg/errors"
	"github.com/j-neeley/DawgPound/pkg/events"
)

const (
	maxChatName        = 100
	maxChatAvatar      = 500
	defaultMessageList = 100
	maxMessageList     = 500
)

var (
	ErrChatNotFound            = errors.New("Chat not found")
	ErrParticipantsRequired    = errors.New("participant_ids is required")
	ErrChatTooFewParticipants  = errors.New("A chat needs at least 2 participants")
	ErrChatFriendsOnly         = errors.New("Can only create chat with friends")
	ErrNotChatParticipant      = errors.New("Not a participant of this chat")
	ErrAlreadyParticipant      = errors.New("User already a participant")
	ErrParticipantNotFound     = errors.New("User is not a participant of this chat")
	ErrParticipantRemoveDenied = errors.New("Only the chat creator can remove other participants")
	ErrChatNameTooLong         = errors.New("Chat name must be at most 100 characters")
	ErrChatAvatarTooLong       = errors.New("Avatar must be at most 500 characters")
	ErrMessageRequired         = errors.New("Message content is required")
	ErrMessageTooLong          = errors.New("Message must be at most 10000 characters")
)

// ChatService 私聊业务接口
type ChatService interface {
	Create(ctx context.Context, caller Caller, req *dto.CreateChatRequest) (*dto.ChatResponse, error)
	List(ctx context.Context, caller Caller) ([]dto.ChatResponse, error)
	Get(ctx context.Context, caller Caller, id string) (*dto.ChatResponse, error)
	Update(ctx context.Context, caller Caller, id string, req *dto.UpdateChatRequest) (*dto.ChatResponse, error)
	AddParticipant(ctx context.Context, caller Caller, id, userID string) (*dto.ChatResponse, error)
	RemoveParticipant(ctx context.Context, caller Caller, id, userID string) error
	SetMuted(ctx context.Context, caller Caller, id string, muted bool) (*dto.ChatResponse, error)
	ListMessages(ctx context.Context, caller Caller, id string, limit int) ([]dto.ChatMessageResponse, error)
	SendMessage(ctx context.Context, caller Caller, id, content string) (*dto.ChatMessageResponse, error)
}

type chatService struct {
	repo     *repository.Repository
	events   *emitter
	notifier Notifier
	now      func() time.Time
	logger   *zap.Logger
}

// NewChatService 创建 ChatService 实例
func NewChatService(repo *repository.Repository, em *emitter, notifier Notifier, now func() time.Time, logger *zap.Logger) ChatService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	return &chatService{repo: repo, events: em, notifier: notifier, now: now, logger: logger}
}

// Create 创建者自动加入；其余参与者必须都是创建者的好友
func (s *chatService) Create(ctx context.Context, caller Caller, req *dto.CreateChatRequest) (*dto.ChatResponse, error) {
	if len(req.ParticipantIDs) == 0 {
		return nil, ErrParticipantsRequired
	}
	name, avatar, err := validateChatProfile(req.Name, req.Avatar)
	if err != nil {
		return nil, err
	}

	others := make([]string, 0, len(req.ParticipantIDs))
	for _, id := range cleanList(req.ParticipantIDs) {
		if id != caller.UserID {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		return nil, ErrChatTooFewParticipants
	}

	if err := checkBan(ctx, s.repo, s.logger, caller.UserID, "", s.now()); err != nil {
		return nil, err
	}
	users, err := s.repo.User.ListByIDs(ctx, others)
	if err != nil {
		return nil, logErr(s.logger, err, "查询参与者失败")
	}
	if len(users) != len(others) {
		return nil, ErrUserNotFound
	}
	for _, id := range others {
		if err := s.ensureReachableFriend(ctx, caller.UserID, id); err != nil {
			return nil, err
		}
	}

	chat := &model.PrivateChat{
		Name:      name,
		Avatar:    avatar,
		CreatedBy: strPtr(caller.UserID),
	}
	err = inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.Chat.Create(ctx, chat); err != nil {
			return err
		}
		participants := make([]model.ChatParticipant, 0, len(others)+1)
		for _, id := range append([]string{caller.UserID}, others...) {
			participants = append(participants, model.ChatParticipant{ChatID: chat.ID, UserID: id})
		}
		return txRepo.Chat.AddParticipants(ctx, participants)
	})
	if err != nil {
		return nil, logErr(s.logger, err, "创建会话失败", zap.String("user_id", caller.UserID))
	}

	return s.load(ctx, chat.ID, caller.UserID)
}

// List 按最近活动倒序
func (s *chatService) List(ctx context.Context, caller Caller) ([]dto.ChatResponse, error) {
	chats, err := s.repo.Chat.ListByUser(ctx, caller.UserID)
	if err != nil {
		return nil, logErr(s.logger, err, "查询会话列表失败", zap.String("user_id", caller.UserID))
	}
	result := make([]dto.ChatResponse, 0, len(chats))
	for i := range chats {
		result = append(result, *toChatResponse(&chats[i], caller.UserID))
	}
	return result, nil
}

func (s *chatService) Get(ctx context.Context, caller Caller, id string) (*dto.ChatResponse, error) {
	if _, err := s.participant(ctx, id, caller.UserID); err != nil {
		return nil, err
	}
	return s.load(ctx, id, caller.UserID)
}

func (s *chatService) Update(ctx context.Context, caller Caller, id string, req *dto.UpdateChatRequest) (*dto.ChatResponse, error) {
	if _, err := s.participant(ctx, id, caller.UserID); err != nil {
		return nil, err
	}
	chat, err := s.getChat(ctx, id)
	if err != nil {
		return nil, err
	}

	name, avatar := chat.Name, chat.Avatar
	if req.Name != nil {
		name = *req.Name
	}
	if req.Avatar != nil {
		avatar = *req.Avatar
	}
	if chat.Name, chat.Avatar, err = validateChatProfile(name, avatar); err != nil {
		return nil, err
	}

	if err := s.repo.Chat.Update(ctx, chat); err != nil {
		return nil, logErr(s.logger, err, "更新会话失败", zap.String("chat_id", id))
	}
	return s.load(ctx, id, caller.UserID)
}

// AddParticipant 新成员必须是调用者的好友
func (s *chatService) AddParticipant(ctx context.Context, caller Caller, id, userID string) (*dto.ChatResponse, error) {
	if _, err := s.participant(ctx, id, caller.UserID); err != nil {
		return nil, err
	}
	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, logErr(s.logger, err, "查询用户失败", zap.String("user_id", userID))
	}

	switch _, err := s.repo.Chat.GetParticipant(ctx, id, userID); {
	case err == nil:
		return nil, ErrAlreadyParticipant
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, logErr(s.logger, err, "查询会话参与者失败", zap.String("chat_id", id))
	}

	if err := s.ensureReachableFriend(ctx, caller.UserID, userID); err != nil {
		return nil, err
	}

	if err := s.repo.Chat.AddParticipants(ctx, []model.ChatParticipant{{ChatID: id, UserID: userID}}); err != nil {
		if pkgerrors.IsUniqueViolation(err, "uq_chat_participants_user_chat") {
			return nil, ErrAlreadyParticipant
		}
		return nil, logErr(s.logger, err, "添加会话参与者失败", zap.String("chat_id", id))
	}
	return s.load(ctx, id, caller.UserID)
}

// RemoveParticipant 只能移除自己，创建者可移除任何人；无人剩余时删除会话
func (s *chatService) RemoveParticipant(ctx context.Context, caller Caller, id, userID string) error {
	if _, err := s.participant(ctx, id, caller.UserID); err != nil {
		return err
	}
	chat, err := s.getChat(ctx, id)
	if err != nil {
		return err
	}
	isCreator := chat.CreatedBy != nil && *chat.CreatedBy == caller.UserID
	if userID != caller.UserID && !isCreator {
		return ErrParticipantRemoveDenied
	}

	switch _, err := s.repo.Chat.GetParticipant(ctx, id, userID); {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrParticipantNotFound
	case err != nil:
		return logErr(s.logger, err, "查询会话参与者失败", zap.String("chat_id", id))
	}

	return inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.Chat.RemoveParticipant(ctx, id, userID); err != nil {
			return err
		}
		remaining, err := txRepo.Chat.CountParticipants(ctx, id)
		if err != nil {
			return err
		}
		if remaining == 0 {
			return txRepo.Chat.Delete(ctx, id)
		}
		return nil
	})
}

func (s *chatService) SetMuted(ctx context.Context, caller Caller, id string, muted bool) (*dto.ChatResponse, error) {
	if _, err := s.participant(ctx, id, caller.UserID); err != nil {
		return nil, err
	}
	if err := s.repo.Chat.SetMuted(ctx, id, caller.UserID, muted); err != nil {
		return nil, logErr(s.logger, err, "设置静音失败", zap.String("chat_id", id))
	}
	return s.load(ctx, id, caller.UserID)
}

// ListMessages 返回最近 limit 条，按时间正序
func (s *chatService) ListMessages(ctx context.Context, caller Caller, id string, limit int) ([]dto.ChatMessageResponse, error) {
	if _, err := s.participant(ctx, id, caller.UserID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessageList
	}
	if limit > maxMessageList {
		limit = maxMessageList
	}

	msgs, err := s.repo.Chat.ListMessages(ctx, id, limit)
	if err != nil {
		return nil, logErr(s.logger, err, "查询消息失败", zap.String("chat_id", id))
	}
	result := make([]dto.ChatMessageResponse, 0, len(msgs))
	for i := range msgs {
		result = append(result, *toMessageResponse(&msgs[i]))
	}
	return result, nil
}

// SendMessage 推送给未静音的其他参与者
func (s *chatService) SendMessage(ctx context.Context, caller Caller, id, content string) (*dto.ChatMessageResponse, error) {
	if _, err := s.participant(ctx, id, caller.UserID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrMessageRequired
	}
	if utf8.RuneCountInString(content) > maxContent {
		return nil, ErrMessageTooLong
	}
	if err := checkBan(ctx, s.repo, s.logger, caller.UserID, "", s.now()); err != nil {
		return nil, err
	}

	author, err := s.repo.User.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, logErr(s.logger, err, "查询用户失败", zap.String("user_id", caller.UserID))
	}

	msg := &model.Message{ChatID: id, AuthorID: caller.UserID, Content: content}
	if err := s.repo.Chat.CreateMessage(ctx, msg); err != nil {
		return nil, logErr(s.logger, err, "发送消息失败", zap.String("chat_id", id))
	}
	msg.Author = author
	resp := toMessageResponse(msg)

	participants, err := s.repo.Chat.ListParticipants(ctx, id)
	if err != nil {
		s.logger.Warn("查询推送对象失败", zap.String("chat_id", id), zap.Error(err))
	} else {
		recipients := make([]string, 0, len(participants))
		for _, p := range participants {
			if p.UserID != caller.UserID && !p.Muted {
				recipients = append(recipients, p.UserID)
			}
		}
		s.notifier.NotifyUsers(recipients, EventChatMessage, resp)
	}

	s.events.emit(ctx, events.ChatMessageSent, msg.ID, caller.UserID, map[string]string{"chat_id": id})
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *chatService) getChat(ctx context.Context, id string) (*model.PrivateChat, error) {
	chat, err := s.repo.Chat.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, logErr(s.logger, err, "查询会话失败", zap.String("chat_id", id))
	}
	return chat, nil
}

func (s *chatService) load(ctx context.Context, id, viewerID string) (*dto.ChatResponse, error) {
	chat, err := s.getChat(ctx, id)
	if err != nil {
		return nil, err
	}
	return toChatResponse(chat, viewerID), nil
}

// participant 会话不存在时返回 ErrChatNotFound，非参与者返回 ErrNotChatParticipant
func (s *chatService) participant(ctx context.Context, chatID, userID string) (*model.ChatParticipant, error) {
	p, err := s.repo.Chat.GetParticipant(ctx, chatID, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, logErr(s.logger, err, "查询会话参与者失败", zap.String("chat_id", chatID))
	}
	if _, err := s.getChat(ctx, chatID); err != nil {
		return nil, err
	}
	return nil, ErrNotChatParticipant
}

func (s *chatService) ensureReachableFriend(ctx context.Context, userID, otherID string) error {
	blocked, err := s.repo.Block.IsBlockedEither(ctx, userID, otherID)
	if err != nil {
		return logErr(s.logger, err, "查询拉黑关系失败", zap.String("user_id", userID))
	}
	if blocked {
		return ErrUserBlocked
	}
	if _, err := s.repo.Friend.GetFriendship(ctx, userID, otherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChatFriendsOnly
		}
		return logErr(s.logger, err, "查询好友关系失败", zap.String("user_id", userID))
	}
	return nil
}

func validateChatProfile(name, avatar string) (string, string, error) {
	name = strings.TrimSpace(name)
	avatar = strings.TrimSpace(avatar)
	if utf8.RuneCountInString(name) > maxChatName {
		return "", "", ErrChatNameTooLong
	}
	if utf8.RuneCountInString(avatar) > maxChatAvatar {
		return "", "", ErrChatAvatarTooLong
	}
	return name, avatar, nil
}
