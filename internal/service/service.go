package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/config"
	"github.com/j-neeley/DawgPound/internal/repository"
	"github.com/j-neeley/DawgPound/pkg/events"
	"github.com/j-neeley/DawgPound/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Account    AccountService
	User       UserService
	Friend     FriendService
	Block      BlockService
	Group      GroupService
	Forum      ForumService
	Chat       ChatService
	Moderation ModerationService
	Discovery  DiscoveryService
	Admin      AdminService
	Export     ExportService
}

// Caller 请求发起者身份，由 handler 根据会话构造
type Caller struct {
	UserID      string
	IsStaff     bool
	IsSuperuser bool
}

// Authenticated 是否已登录
func (c Caller) Authenticated() bool { return c.UserID != "" }

// Elevated 是否为 staff/superuser
func (c Caller) Elevated() bool { return c.IsStaff || c.IsSuperuser }

// Owns 所有权判定：提升权限或本人
func (c Caller) Owns(ownerID string) bool {
	return c.Elevated() || (c.UserID != "" && c.UserID == ownerID)
}

// normalizeID 外部传入的 ID 统一为去空白的小写形式，与库中 uuid 文本一致
func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Notifier 实时推送接口，由 realtime.Hub 实现
type Notifier interface {
	NotifyGroup(groupID, eventType string, payload interface{})
	NotifyUsers(userIDs []string, eventType string, payload interface{})
	// Unsubscribe 取消群组订阅；groupID 为空表示这些用户的全部群组，userIDs 为空表示该群组全部订阅者
	Unsubscribe(groupID string, userIDs []string)
}

// Mailer 验证邮件发送接口
type Mailer interface {
	SendVerification(ctx context.Context, to, username, token string) error
}

// SessionStore 会话吊销存储，Redis 不可用时为 nil
type SessionStore interface {
	RevokeSession(ctx context.Context, jti string, expiresAt time.Time) error
}

// Dependencies 可选的外部协作者；为空时使用空实现
type Dependencies struct {
	Publisher events.Publisher
	Notifier  Notifier
	Mailer    Mailer
	Sessions  SessionStore
	Now       func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Publisher == nil {
		d.Publisher = events.NopPublisher{}
	}
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Mailer == nil {
		d.Mailer = nopMailer{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	logger *zap.Logger,
	deps Dependencies,
) *Service {
	deps = deps.withDefaults()
	emitter := newEmitter(deps.Publisher, logger)
	return &Service{
		Account:    NewAccountService(cfg, repo, jwtMgr, deps, logger),
		User:       NewUserService(repo, logger),
		Friend:     NewFriendService(repo, emitter, deps.Now, logger),
		Block:      NewBlockService(repo, logger),
		Group:      NewGroupService(repo, emitter, deps.Notifier, deps.Now, logger),
		Forum:      NewForumService(repo, emitter, deps.Notifier, deps.Now, logger),
		Chat:       NewChatService(repo, emitter, deps.Notifier, deps.Now, logger),
		Moderation: NewModerationService(repo, emitter, deps.Notifier, deps.Now, logger),
		Discovery:  NewDiscoveryService(repo, logger),
		Admin:      NewAdminService(repo, deps.Now, logger),
		Export:     NewExportService(repo, logger),
	}
}

// ── 事件发布 ──

// emitter 发布领域事件；发布失败只记录日志，不影响主流程
type emitter struct {
	publisher events.Publisher
	logger    *zap.Logger
}

func newEmitter(p events.Publisher, logger *zap.Logger) *emitter {
	if p == nil {
		p = events.NopPublisher{}
	}
	return &emitter{publisher: p, logger: logger}
}

func (e *emitter) emit(ctx context.Context, eventType, key, actorID string, payload interface{}) {
	if e == nil {
		return
	}
	if err := e.publisher.Publish(ctx, events.New(eventType, key, actorID, payload)); err != nil {
		e.logger.Warn("发布领域事件失败",
			zap.String("type", eventType), zap.String("key", key), zap.Error(err))
	}
}

type nopNotifier struct{}

func (nopNotifier) NotifyGroup(string, string, interface{})     {}
func (nopNotifier) NotifyUsers([]string, string, interface{}) {}
func (nopNotifier) Unsubscribe(string, []string)              {}

type nopMailer struct{}

func (nopMailer) SendVerification(context.Context, string, string, string) error { return nil }

// ── 事务 ──

// inTx 在事务中执行 fn；fn 返回错误或 panic 时回滚
func inTx(ctx context.Context, repo *repository.Repository, logger *zap.Logger, fn func(txRepo *repository.Repository) error) error {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			rollback(tx)
			panic(r)
		}
	}()

	if err := fn(repo.WithTx(tx)); err != nil {
		rollback(tx)
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

func rollback(tx *gorm.DB) {
	if tx != nil {
		tx.Rollback()
	}
}

// logErr 记录仓储层错误并原样返回
func logErr(logger *zap.Logger, err error, msg string, fields ...zap.Field) error {
	logger.Error(msg, append(fields, zap.Error(err))...)
	return err
}
