package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/j-neeley/DawgPound/internal/service"
	"github.com/j-neeley/DawgPound/pkg/response"
)

// WSServer 升级并托管 WebSocket 连接，由 realtime.Hub 实现
type WSServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID, groupID string) error
}

// RealtimeHandler 实时推送入口
type RealtimeHandler struct {
	hub      WSServer
	groupSvc service.GroupService
	logger   *zap.Logger
}

// NewRealtimeHandler 创建 RealtimeHandler
func NewRealtimeHandler(hub WSServer, groupSvc service.GroupService, logger *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, groupSvc: groupSvc, logger: logger}
}

// Connect 建立 WebSocket 连接；带 group_id 时需为该群组成员且未被封禁
// GET /ws?group_id=xxx
func (h *RealtimeHandler) Connect(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	groupID := c.Query("group_id")
	if !bodyIDs(c, &groupID) {
		return
	}
	if groupID != "" && !caller.Elevated() {
		if err := h.groupSvc.CanSubscribe(c.Request.Context(), groupID, caller.UserID); err != nil {
			h.handleSubscribeError(c, err)
			return
		}
	}

	// 升级失败时 upgrader 已写回 HTTP 错误
	if err := h.hub.ServeWS(c.Writer, c.Request, caller.UserID, groupID); err != nil {
		h.logger.Warn("WebSocket 连接建立失败",
			zap.String("user_id", caller.UserID), zap.String("group_id", groupID), zap.Error(err))
	}
}

func (h *RealtimeHandler) handleSubscribeError(c *gin.Context, err error) {
	if handleBanError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrNotMember):
		response.Forbidden(c, 13006, err.Error())
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 13001, err.Error())
	default:
		response.InternalError(c)
	}
}
