package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/service"
	"github.com/j-neeley/DawgPound/pkg/response"
)

// ModerationHandler 封禁与管理日志 HTTP 处理器
type ModerationHandler struct {
	moderationSvc service.ModerationService
}

// NewModerationHandler 创建 ModerationHandler
func NewModerationHandler(moderationSvc service.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationSvc: moderationSvc}
}

// ListLogs godoc
// @Summary      Moderation logs
// @Description  Staff see every entry; group moderators see entries of their groups.
// @Tags         moderation
// @Produce      json
// @Security     SessionCookie
// @Param        group        query  string  false  "Group ID"
// @Param        action       query  string  false  "Action"
// @Param        target_user  query  string  false  "Target user ID"
// @Success      200  {object}  response.Response{data=response.PageData}
// @Router       /moderation/logs [get]
func (h *ModerationHandler) ListLogs(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.LogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	logs, total, err := h.moderationSvc.ListLogs(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleModerationError(c, err)
		return
	}
	response.OKPage(c, logs, total, req.GetPage(), req.GetPageSize())
}

// ListBans 封禁列表
// GET /api/v1/moderation/bans
func (h *ModerationHandler) ListBans(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.BanListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	bans, total, err := h.moderationSvc.ListBans(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleModerationError(c, err)
		return
	}
	response.OKPage(c, bans, total, req.GetPage(), req.GetPageSize())
}

// CreateBan godoc
// @Summary      Ban user
// @Description  Without a group the ban is global and requires staff.
// @Tags         moderation
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        input body dto.CreateBanRequest true "Ban"
// @Success      201  {object}  response.Response{data=dto.BanResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /moderation/bans [post]
func (h *ModerationHandler) CreateBan(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.CreateBanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if !bodyIDs(c, &req.UserID, req.GroupID) {
		return
	}
	ban, err := h.moderationSvc.Ban(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleModerationError(c, err)
		return
	}
	response.Created(c, ban)
}

// RevokeBan 撤销封禁，记录保留
// DELETE /api/v1/moderation/bans/:id
func (h *ModerationHandler) RevokeBan(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	reason, ok := optionalReason(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrBanNotFound, h.handleModerationError)
	if !ok {
		return
	}
	ban, err := h.moderationSvc.Unban(c.Request.Context(), caller, id, reason)
	if err != nil {
		h.handleModerationError(c, err)
		return
	}
	response.OK(c, ban)
}

func (h *ModerationHandler) handleModerationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBanNotFound):
		response.NotFound(c, 16003, err.Error())
	case errors.Is(err, service.ErrBanScopeConflict):
		response.BadRequest(c, 16004, err.Error())
	case errors.Is(err, service.ErrBanSelf):
		response.BadRequest(c, 16005, err.Error())
	case errors.Is(err, service.ErrBanExpiryInPast):
		response.BadRequest(c, 16006, err.Error())
	case errors.Is(err, service.ErrBanAlreadyRevoked):
		response.BadRequest(c, 16007, err.Error())
	case errors.Is(err, service.ErrModerationDenied):
		response.Forbidden(c, 16008, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11008, err.Error())
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 13001, err.Error())
	default:
		response.InternalError(c)
	}
}

// handleBanError 处理封禁拦截错误，已处理时返回 true
func handleBanError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrAccountBanned):
		response.Forbidden(c, 16001, err.Error())
	case errors.Is(err, service.ErrBannedFromGroup):
		response.Forbidden(c, 16002, err.Error())
	default:
		return false
	}
	return true
}
