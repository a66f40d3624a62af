package handler

import (
	"go.uber.org/zap"

	"github.com/j-neeley/DawgPound/config"
	"github.com/j-neeley/DawgPound/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Account    *AccountHandler
	Discovery  *DiscoveryHandler
	Friend     *FriendHandler
	Group      *GroupHandler
	Forum      *ForumHandler
	Chat       *ChatHandler
	Moderation *ModerationHandler
	Admin      *AdminHandler
	Realtime   *RealtimeHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service, hub WSServer, logger *zap.Logger) *Handler {
	return &Handler{
		Account:    NewAccountHandler(svc.Account, cfg.Auth.Cookie),
		Discovery:  NewDiscoveryHandler(svc.User, svc.Discovery),
		Friend:     NewFriendHandler(svc.Friend, svc.Block),
		Group:      NewGroupHandler(svc.Group),
		Forum:      NewForumHandler(svc.Forum),
		Chat:       NewChatHandler(svc.Chat),
		Moderation: NewModerationHandler(svc.Moderation),
		Admin:      NewAdminHandler(svc.Admin, svc.Export),
		Realtime:   NewRealtimeHandler(hub, svc.Group, logger),
	}
}
