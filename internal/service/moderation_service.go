package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/model"
	"github.com/j-neeley/DawgPound/internal/repository"
	pkgerrors "github.com/j-neeley/DawgPound/pkg/errors"
	"github.com/j-neeley/DawgPound/pkg/events"
)

var (
	ErrBanNotFound       = errors.New("Ban not found")
	ErrBanScopeConflict  = errors.New("A global ban cannot target a group")
	ErrBanSelf           = errors.New("You cannot ban yourself")
	ErrBanExpiryInPast   = errors.New("expires_at must be in the future")
	ErrBanAlreadyRevoked = errors.New("Ban already revoked")
	ErrModerationDenied  = errors.New("You do not have permission to perform this action")
)

// ModerationService 封禁与管理日志业务接口
type ModerationService interface {
	Ban(ctx context.Context, caller Caller, req *dto.CreateBanRequest) (*dto.BanResponse, error)
	Unban(ctx context.Context, caller Caller, banID, reason string) (*dto.BanResponse, error)
	ListBans(ctx context.Context, caller Caller, req *dto.BanListRequest) ([]dto.BanResponse, int64, error)
	ListLogs(ctx context.Context, caller Caller, req *dto.LogListRequest) ([]dto.ModerationLogResponse, int64, error)
}

type moderationService struct {
	repo     *repository.Repository
	recorder *recorder
	notifier Notifier
	now      func() time.Time
	logger   *zap.Logger
}

// NewModerationService 创建 ModerationService 实例
func NewModerationService(repo *repository.Repository, em *emitter, notifier Notifier, now func() time.Time, logger *zap.Logger) ModerationService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	return &moderationService{
		repo:     repo,
		recorder: newRecorder(repo, em, logger),
		notifier: notifier,
		now:      now,
		logger:   logger,
	}
}

// ────────── Ban ──────────

// Ban 未指定群组即为全局封禁；全局封禁仅限 staff，群组封禁允许该群版主
func (s *moderationService) Ban(ctx context.Context, caller Caller, req *dto.CreateBanRequest) (*dto.BanResponse, error) {
	groupID := ""
	if req.GroupID != nil {
		groupID = strings.TrimSpace(*req.GroupID)
	}
	if groupID != "" && req.IsGlobal {
		return nil, ErrBanScopeConflict
	}
	if req.UserID == caller.UserID {
		return nil, ErrBanSelf
	}
	now := s.now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, ErrBanExpiryInPast
	}

	if _, err := s.repo.User.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, logErr(s.logger, err, "查询被封禁用户失败", zap.String("user_id", req.UserID))
	}
	if err := s.authorize(ctx, caller, groupID); err != nil {
		return nil, err
	}

	ban := &model.UserBan{
		UserID:    req.UserID,
		GroupID:   strPtr(groupID),
		BannedBy:  strPtr(caller.UserID),
		Reason:    strings.TrimSpace(req.Reason),
		IsGlobal:  groupID == "",
		ExpiresAt: req.ExpiresAt,
	}
	if err := s.repo.Ban.Create(ctx, ban); err != nil {
		if pkgerrors.IsCheckViolation(err, "ck_user_bans_scope") {
			return nil, ErrBanScopeConflict
		}
		return nil, logErr(s.logger, err, "创建封禁失败", zap.String("user_id", req.UserID))
	}

	// 全局封禁时 groupID 为空，取消该用户全部群组订阅
	s.notifier.Unsubscribe(groupID, []string{ban.UserID})

	meta := model.JSONMap{"ban_id": ban.ID, "is_global": ban.IsGlobal}
	if ban.ExpiresAt != nil {
		meta["expires_at"] = ban.ExpiresAt.UTC().Format(time.RFC3339)
	}
	s.recorder.record(ctx, &model.ModerationLog{
		ModeratorID:  strPtr(caller.UserID),
		Action:       model.ActionBanUser,
		GroupID:      ban.GroupID,
		TargetUserID: strPtr(ban.UserID),
		Reason:       ban.Reason,
		Metadata:     meta,
	})
	return toBanResponse(ban, now), nil
}

// Unban 软撤销：写入 revoked_at/revoked_by，记录保留
func (s *moderationService) Unban(ctx context.Context, caller Caller, banID, reason string) (*dto.BanResponse, error) {
	ban, err := s.repo.Ban.GetByID(ctx, banID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBanNotFound
		}
		return nil, logErr(s.logger, err, "查询封禁失败", zap.String("ban_id", banID))
	}
	if ban.RevokedAt != nil {
		return nil, ErrBanAlreadyRevoked
	}
	groupID := ""
	if ban.GroupID != nil {
		groupID = *ban.GroupID
	}
	if err := s.authorize(ctx, caller, groupID); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.repo.Ban.Revoke(ctx, ban.ID, caller.UserID, now); err != nil {
		return nil, logErr(s.logger, err, "撤销封禁失败", zap.String("ban_id", banID))
	}
	ban.RevokedAt = &now
	ban.RevokedBy = strPtr(caller.UserID)

	s.recorder.record(ctx, &model.ModerationLog{
		ModeratorID:  strPtr(caller.UserID),
		Action:       model.ActionUnbanUser,
		GroupID:      ban.GroupID,
		TargetUserID: strPtr(ban.UserID),
		Reason:       strings.TrimSpace(reason),
		Metadata:     model.JSONMap{"ban_id": ban.ID},
	})
	return toBanResponse(ban, now), nil
}

// ────────── List ──────────

func (s *moderationService) ListBans(ctx context.Context, caller Caller, req *dto.BanListRequest) ([]dto.BanResponse, int64, error) {
	if err := s.authorizeListing(ctx, caller, req.GroupID); err != nil {
		return nil, 0, err
	}

	now := s.now()
	filter := repository.BanFilter{UserID: req.UserID, GroupID: req.GroupID}
	if req.ActiveOnly {
		filter.ActiveAt = &now
	}
	bans, total, err := s.repo.Ban.List(ctx, filter, repository.Page{Offset: req.GetOffset(), Limit: req.GetPageSize()})
	if err != nil {
		return nil, 0, logErr(s.logger, err, "查询封禁列表失败")
	}

	result := make([]dto.BanResponse, 0, len(bans))
	for i := range bans {
		result = append(result, *toBanResponse(&bans[i], now))
	}
	return result, total, nil
}

func (s *moderationService) ListLogs(ctx context.Context, caller Caller, req *dto.LogListRequest) ([]dto.ModerationLogResponse, int64, error) {
	if err := s.authorizeListing(ctx, caller, req.GroupID); err != nil {
		return nil, 0, err
	}

	filter := repository.LogFilter{GroupID: req.GroupID, Action: req.Action, TargetUserID: req.TargetUserID}
	logs, total, err := s.repo.Moderation.ListLogs(ctx, filter, repository.Page{Offset: req.GetOffset(), Limit: req.GetPageSize()})
	if err != nil {
		return nil, 0, logErr(s.logger, err, "查询管理日志失败")
	}

	result := make([]dto.ModerationLogResponse, 0, len(logs))
	for i := range logs {
		result = append(result, *toLogResponse(&logs[i]))
	}
	return result, total, nil
}

// ── 内部辅助方法 ──

// authorize 全局操作仅限 staff；群组操作允许 staff 或该群版主
func (s *moderationService) authorize(ctx context.Context, caller Caller, groupID string) error {
	if caller.Elevated() {
		if groupID != "" {
			return s.ensureGroup(ctx, groupID)
		}
		return nil
	}
	if groupID == "" {
		return ErrModerationDenied
	}
	if err := s.ensureGroup(ctx, groupID); err != nil {
		return err
	}
	ok, err := s.repo.Group.IsModerator(ctx, groupID, caller.UserID)
	if err != nil {
		return logErr(s.logger, err, "查询版主身份失败", zap.String("group_id", groupID))
	}
	if !ok {
		return ErrModerationDenied
	}
	return nil
}

// authorizeListing staff 可查看全部；版主只能查看本群
func (s *moderationService) authorizeListing(ctx context.Context, caller Caller, groupID string) error {
	if caller.Elevated() {
		return nil
	}
	if groupID == "" {
		return ErrModerationDenied
	}
	return s.authorize(ctx, caller, groupID)
}

func (s *moderationService) ensureGroup(ctx context.Context, groupID string) error {
	if _, err := s.repo.Group.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return logErr(s.logger, err, "查询群组失败", zap.String("group_id", groupID))
	}
	return nil
}

func toBanResponse(b *model.UserBan, now time.Time) *dto.BanResponse {
	return &dto.BanResponse{
		ID:        b.ID,
		UserID:    b.UserID,
		GroupID:   b.GroupID,
		BannedBy:  b.BannedBy,
		Reason:    b.Reason,
		IsGlobal:  b.IsGlobal,
		Active:    b.ActiveAt(now),
		ExpiresAt: b.ExpiresAt,
		RevokedAt: b.RevokedAt,
		RevokedBy: b.RevokedBy,
		CreatedAt: b.CreatedAt,
	}
}

// ── 管理日志记录 ──

// recorder 在主操作完成后追加管理日志；写入失败只记录错误
type recorder struct {
	repo   *repository.Repository
	events *emitter
	logger *zap.Logger
}

func newRecorder(repo *repository.Repository, em *emitter, logger *zap.Logger) *recorder {
	return &recorder{repo: repo, events: em, logger: logger}
}

func (r *recorder) record(ctx context.Context, entry *model.ModerationLog) {
	if entry.Metadata == nil {
		entry.Metadata = model.JSONMap{}
	}
	if err := r.repo.Moderation.CreateLog(ctx, entry); err != nil {
		r.logger.Error("写入管理日志失败", zap.String("action", string(entry.Action)), zap.Error(err))
		return
	}
	actor := ""
	if entry.ModeratorID != nil {
		actor = *entry.ModeratorID
	}
	r.events.emit(ctx, events.ModerationRecorded, entry.ID, actor, map[string]interface{}{
		"action":         entry.Action,
		"group_id":       entry.GroupID,
		"target_user_id": entry.TargetUserID,
	})
}

// canModerate staff 或群组版主
func canModerate(ctx context.Context, repo *repository.Repository, caller Caller, groupID string) (bool, error) {
	if caller.Elevated() {
		return true, nil
	}
	if !caller.Authenticated() {
		return false, nil
	}
	return repo.Group.IsModerator(ctx, groupID, caller.UserID)
}
