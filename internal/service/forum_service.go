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
	"github.com/j-neeley/DawgPound/pkg/events"
)

const (
	maxThreadTitle = 200
	maxContent     = 10000
)

// 实时推送事件类型
const (
	EventThreadCreated = "thread_created"
	EventThreadUpdated = "thread_updated"
	EventThreadDeleted = "thread_deleted"
	EventReplyCreated  = "reply_created"
	EventReplyDeleted  = "reply_deleted"
	EventChatMessage   = "chat_message"
)

var (
	ErrThreadNotFound     = errors.New("Thread not found")
	ErrReplyNotFound      = errors.New("Reply not found")
	ErrThreadLocked       = errors.New("Thread is locked")
	ErrThreadDeleteDenied = errors.New("You do not have permission to delete this thread")
	ErrReplyDeleteDenied  = errors.New("You do not have permission to delete this reply")
	ErrThreadEditDenied   = errors.New("You do not have permission to edit this thread")
	ErrNotModerator       = errors.New("You must be a moderator of this group")
	ErrTitleRequired      = errors.New("Title is required")
	ErrTitleTooLong       = errors.New("Title must be at most 200 characters")
	ErrContentRequired    = errors.New("Content is required")
	ErrContentTooLong     = errors.New("Content must be at most 10000 characters")
	ErrInvalidContentType = errors.New("Invalid content type")
)

// ForumService 论坛主题与回复业务接口
type ForumService interface {
	CreateThread(ctx context.Context, caller Caller, req *dto.CreateThreadRequest) (*dto.ThreadResponse, error)
	GetThread(ctx context.Context, id string) (*dto.ThreadResponse, error)
	ListThreads(ctx context.Context, req *dto.ThreadListRequest) ([]dto.ThreadResponse, int64, error)
	UpdateThread(ctx context.Context, caller Caller, id string, req *dto.UpdateThreadRequest) (*dto.ThreadResponse, error)
	DeleteThread(ctx context.Context, caller Caller, id, reason string) error
	SetPinned(ctx context.Context, caller Caller, id string, pinned bool, reason string) (*dto.ThreadResponse, error)
	SetLocked(ctx context.Context, caller Caller, id string, locked bool, reason string) (*dto.ThreadResponse, error)

	AddReply(ctx context.Context, caller Caller, threadID string, req *dto.CreateReplyRequest) (*dto.ReplyResponse, error)
	GetReply(ctx context.Context, id string) (*dto.ReplyResponse, error)
	ListReplies(ctx context.Context, threadID string, page *dto.PaginationRequest) ([]dto.ReplyResponse, int64, error)
	DeleteReply(ctx context.Context, caller Caller, id, reason string) error
}

type forumService struct {
	repo     *repository.Repository
	events   *emitter
	notifier Notifier
	recorder *recorder
	now      func() time.Time
	logger   *zap.Logger
}

// NewForumService 创建 ForumService 实例
func NewForumService(repo *repository.Repository, em *emitter, notifier Notifier, now func() time.Time, logger *zap.Logger) ForumService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	return &forumService{
		repo:     repo,
		events:   em,
		notifier: notifier,
		recorder: newRecorder(repo, em, logger),
		now:      now,
		logger:   logger,
	}
}

// ────────── Threads ──────────

// CreateThread 作者取自会话身份；群组或全局封禁拒绝发帖
func (s *forumService) CreateThread(ctx context.Context, caller Caller, req *dto.CreateThreadRequest) (*dto.ThreadResponse, error) {
	title, err := validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
	}
	contentType, err := normalizeContentType(req.ContentType)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Group.GetByID(ctx, req.GroupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, logErr(s.logger, err, "查询群组失败", zap.String("group_id", req.GroupID))
	}
	if err := checkBan(ctx, s.repo, s.logger, caller.UserID, req.GroupID, s.now()); err != nil {
		return nil, err
	}

	thread := &model.Thread{
		GroupID:     req.GroupID,
		AuthorID:    caller.UserID,
		Title:       title,
		Content:     content,
		ContentType: contentType,
		Attachments: model.JSONList(req.Attachments),
	}
	if thread.Attachments == nil {
		thread.Attachments = model.JSONList{}
	}
	if err := s.repo.Thread.Create(ctx, thread); err != nil {
		return nil, logErr(s.logger, err, "创建主题失败", zap.String("group_id", req.GroupID))
	}

	resp, err := s.GetThread(ctx, thread.ID)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyGroup(thread.GroupID, EventThreadCreated, resp)
	s.events.emit(ctx, events.ThreadCreated, thread.ID, caller.UserID, map[string]string{"group_id": thread.GroupID})
	return resp, nil
}

func (s *forumService) GetThread(ctx context.Context, id string) (*dto.ThreadResponse, error) {
	thread, err := s.getThread(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.Thread.CountReplies(ctx, []string{id})
	if err != nil {
		return nil, logErr(s.logger, err, "统计回复数失败", zap.String("thread_id", id))
	}
	return toThreadResponse(thread, counts[id]), nil
}

// ListThreads 置顶优先，其次最新
func (s *forumService) ListThreads(ctx context.Context, req *dto.ThreadListRequest) ([]dto.ThreadResponse, int64, error) {
	threads, total, err := s.repo.Thread.List(ctx, req.GroupID, repository.Page{Offset: req.GetOffset(), Limit: req.GetPageSize()})
	if err != nil {
		return nil, 0, logErr(s.logger, err, "查询主题列表失败")
	}

	ids := make([]string, len(threads))
	for i := range threads {
		ids[i] = threads[i].ID
	}
	counts, err := s.repo.Thread.CountReplies(ctx, ids)
	if err != nil {
		return nil, 0, logErr(s.logger, err, "统计回复数失败")
	}

	result := make([]dto.ThreadResponse, 0, len(threads))
	for i := range threads {
		result = append(result, *toThreadResponse(&threads[i], counts[threads[i].ID]))
	}
	return result, total, nil
}

func (s *forumService) UpdateThread(ctx context.Context, caller Caller, id string, req *dto.UpdateThreadRequest) (*dto.ThreadResponse, error) {
	thread, err := s.getThread(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Owns(thread.AuthorID) {
		return nil, ErrThreadEditDenied
	}

	if req.Title != nil {
		if thread.Title, err = validateTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Content != nil {
		if thread.Content, err = validateContent(*req.Content); err != nil {
			return nil, err
		}
	}
	if req.ContentType != nil {
		if thread.ContentType, err = normalizeContentType(*req.ContentType); err != nil {
			return nil, err
		}
	}

	return s.saveThread(ctx, thread)
}

// DeleteThread 作者或 staff 可删除；非作者删除时记录管理日志
func (s *forumService) DeleteThread(ctx context.Context, caller Caller, id, reason string) error {
	thread, err := s.getThread(ctx, id)
	if err != nil {
		return err
	}
	if !caller.Owns(thread.AuthorID) {
		return ErrThreadDeleteDenied
	}

	if err := s.repo.Thread.Delete(ctx, id); err != nil {
		return logErr(s.logger, err, "删除主题失败", zap.String("thread_id", id))
	}

	if caller.UserID != thread.AuthorID {
		s.recorder.record(ctx, &model.ModerationLog{
			ModeratorID:  strPtr(caller.UserID),
			Action:       model.ActionDeleteThread,
			GroupID:      strPtr(thread.GroupID),
			ThreadID:     strPtr(thread.ID),
			TargetUserID: strPtr(thread.AuthorID),
			Reason:       strings.TrimSpace(reason),
			Metadata:     model.JSONMap{"title": thread.Title},
		})
	}
	s.notifier.NotifyGroup(thread.GroupID, EventThreadDeleted, map[string]string{"id": thread.ID, "group": thread.GroupID})
	return nil
}

// SetPinned 置顶/取消置顶，需 staff 或群组版主
func (s *forumService) SetPinned(ctx context.Context, caller Caller, id string, pinned bool, reason string) (*dto.ThreadResponse, error) {
	action := model.ActionUnpinThread
	if pinned {
		action = model.ActionPinThread
	}
	return s.moderateThread(ctx, caller, id, action, reason, func(t *model.Thread) { t.Pinned = pinned })
}

// SetLocked 锁定/解锁，需 staff 或群组版主
func (s *forumService) SetLocked(ctx context.Context, caller Caller, id string, locked bool, reason string) (*dto.ThreadResponse, error) {
	action := model.ActionUnlockThread
	if locked {
		action = model.ActionLockThread
	}
	return s.moderateThread(ctx, caller, id, action, reason, func(t *model.Thread) { t.Locked = locked })
}

func (s *forumService) moderateThread(
	ctx context.Context,
	caller Caller,
	id string,
	action model.ModerationAction,
	reason string,
	mutate func(t *model.Thread),
) (*dto.ThreadResponse, error) {
	thread, err := s.getThread(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := canModerate(ctx, s.repo, caller, thread.GroupID)
	if err != nil {
		return nil, logErr(s.logger, err, "查询版主身份失败", zap.String("group_id", thread.GroupID))
	}
	if !ok {
		return nil, ErrNotModerator
	}

	mutate(thread)
	resp, err := s.saveThread(ctx, thread)
	if err != nil {
		return nil, err
	}

	s.recorder.record(ctx, &model.ModerationLog{
		ModeratorID:  strPtr(caller.UserID),
		Action:       action,
		GroupID:      strPtr(thread.GroupID),
		ThreadID:     strPtr(thread.ID),
		TargetUserID: strPtr(thread.AuthorID),
		Reason:       strings.TrimSpace(reason),
	})
	return resp, nil
}

func (s *forumService) saveThread(ctx context.Context, thread *model.Thread) (*dto.ThreadResponse, error) {
	if err := s.repo.Thread.Update(ctx, thread); err != nil {
		return nil, logErr(s.logger, err, "更新主题失败", zap.String("thread_id", thread.ID))
	}
	resp, err := s.GetThread(ctx, thread.ID)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyGroup(thread.GroupID, EventThreadUpdated, resp)
	return resp, nil
}

// ────────── Replies ──────────

// AddReply 锁定的主题对任何人都拒绝回复
func (s *forumService) AddReply(ctx context.Context, caller Caller, threadID string, req *dto.CreateReplyRequest) (*dto.ReplyResponse, error) {
	thread, err := s.getThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.Locked {
		return nil, ErrThreadLocked
	}
	if err := checkBan(ctx, s.repo, s.logger, caller.UserID, thread.GroupID, s.now()); err != nil {
		return nil, err
	}

	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
	}
	contentType, err := normalizeContentType(req.ContentType)
	if err != nil {
		return nil, err
	}

	reply := &model.Reply{
		ThreadID:    threadID,
		AuthorID:    caller.UserID,
		Content:     content,
		ContentType: contentType,
		Attachments: model.JSONList(req.Attachments),
	}
	if reply.Attachments == nil {
		reply.Attachments = model.JSONList{}
	}
	if err := s.repo.Reply.Create(ctx, reply); err != nil {
		return nil, logErr(s.logger, err, "创建回复失败", zap.String("thread_id", threadID))
	}

	resp, err := s.GetReply(ctx, reply.ID)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyGroup(thread.GroupID, EventReplyCreated, resp)
	s.events.emit(ctx, events.ReplyCreated, reply.ID, caller.UserID,
		map[string]string{"thread_id": threadID, "group_id": thread.GroupID})
	return resp, nil
}

func (s *forumService) GetReply(ctx context.Context, id string) (*dto.ReplyResponse, error) {
	reply, err := s.getReply(ctx, id)
	if err != nil {
		return nil, err
	}
	return toReplyResponse(reply), nil
}

// ListReplies 回复始终按时间正序
func (s *forumService) ListReplies(ctx context.Context, threadID string, page *dto.PaginationRequest) ([]dto.ReplyResponse, int64, error) {
	if threadID != "" {
		if _, err := s.getThread(ctx, threadID); err != nil {
			return nil, 0, err
		}
	}
	replies, total, err := s.repo.Reply.List(ctx, threadID, repository.Page{Offset: page.GetOffset(), Limit: page.GetPageSize()})
	if err != nil {
		return nil, 0, logErr(s.logger, err, "查询回复列表失败", zap.String("thread_id", threadID))
	}
	result := make([]dto.ReplyResponse, 0, len(replies))
	for i := range replies {
		result = append(result, *toReplyResponse(&replies[i]))
	}
	return result, total, nil
}

func (s *forumService) DeleteReply(ctx context.Context, caller Caller, id, reason string) error {
	reply, err := s.getReply(ctx, id)
	if err != nil {
		return err
	}
	if !caller.Owns(reply.AuthorID) {
		return ErrReplyDeleteDenied
	}

	if err := s.repo.Reply.Delete(ctx, id); err != nil {
		return logErr(s.logger, err, "删除回复失败", zap.String("reply_id", id))
	}

	var groupID *string
	if reply.Thread != nil {
		groupID = strPtr(reply.Thread.GroupID)
	}
	if caller.UserID != reply.AuthorID {
		s.recorder.record(ctx, &model.ModerationLog{
			ModeratorID:  strPtr(caller.UserID),
			Action:       model.ActionDeleteReply,
			GroupID:      groupID,
			ThreadID:     strPtr(reply.ThreadID),
			ReplyID:      strPtr(reply.ID),
			TargetUserID: strPtr(reply.AuthorID),
			Reason:       strings.TrimSpace(reason),
		})
	}
	if groupID != nil {
		s.notifier.NotifyGroup(*groupID, EventReplyDeleted, map[string]string{"id": reply.ID, "thread": reply.ThreadID})
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *forumService) getThread(ctx context.Context, id string) (*model.Thread, error) {
	thread, err := s.repo.Thread.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, logErr(s.logger, err, "查询主题失败", zap.String("thread_id", id))
	}
	return thread, nil
}

func (s *forumService) getReply(ctx context.Context, id string) (*model.Reply, error) {
	reply, err := s.repo.Reply.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReplyNotFound
		}
		return nil, logErr(s.logger, err, "查询回复失败", zap.String("reply_id", id))
	}
	return reply, nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > maxThreadTitle {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func validateContent(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrContentRequired
	}
	if utf8.RuneCountInString(raw) > maxContent {
		return "", ErrContentTooLong
	}
	return raw, nil
}

func normalizeContentType(t string) (string, error) {
	if t == "" {
		return model.ContentPlain, nil
	}
	if !model.IsValidContentType(t) {
		return "", ErrInvalidContentType
	}
	return t, nil
}
