package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/service"
	"github.com/j-neeley/DawgPound/pkg/response"
)

// GroupHandler 群组模块 HTTP 处理器
type GroupHandler struct {
	groupSvc service.GroupService
}

// NewGroupHandler 创建 GroupHandler
func NewGroupHandler(groupSvc service.GroupService) *GroupHandler {
	return &GroupHandler{groupSvc: groupSvc}
}

// ListGroups godoc
// @Summary      List groups
// @Tags         groups
// @Produce      json
// @Param        search     query  string  false  "Name/description text"
// @Param        category   query  string  false  "class_year | major | interests_activities | other"
// @Param        tag        query  string  false  "Tag"
// @Param        page       query  int     false  "Page"
// @Param        page_size  query  int     false  "Page size"
// @Success      200  {object}  response.Response{data=response.PageData}
// @Router       /groups [get]
func (h *GroupHandler) ListGroups(c *gin.Context) {
	var req dto.GroupListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	groups, total, err := h.groupSvc.List(c.Request.Context(), callerFrom(c), &req)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}
	response.OKPage(c, groups, total, req.GetPage(), req.GetPageSize())
}

// GetGroup 群组详情
// GET /api/v1/groups/:id
func (h *GroupHandler) GetGroup(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrGroupNotFound, h.handleGroupError)
	if !ok {
		return
	}
	group, err := h.groupSvc.Get(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}
	response.OK(c, group)
}

// CreateGroup godoc
// @Summary      Create group
// @Description  The creator becomes the first member and moderator.
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        input body dto.CreateGroupRequest true "Group"
// @Success      201  {object}  response.Response{data=dto.GroupResponse}
// @Failure      400  {object}  response.Response
// @Router       /groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	group, err := h.groupSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}
	response.Created(c, group)
}

// UpdateGroup 部分更新群组（创建者或 staff）
// PATCH /api/v1/groups/:id
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	id, ok := pathID(c, "id", service.ErrGroupNotFound, h.handleGroupError)
	if !ok {
		return
	}
	group, err := h.groupSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}
	response.OK(c, group)
}

// DeleteGroup 删除群组（创建者或 staff）
// DELETE /api/v1/groups/:id
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrGroupNotFound, h.handleGroupError)
	if !ok {
		return
	}
	if err := h.groupSvc.Delete(c.Request.Context(), caller, id); err != nil {
		h.handleGroupError(c, err)
		return
	}
	response.NoContent(c)
}

// Join 加入群组
// POST /api/v1/groups/:id/join
func (h *GroupHandler) Join(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrGroupNotFound, h.handleGroupError)
	if !ok {
		return
	}
	if err := h.groupSvc.Join(c.Request.Context(), caller, id); err != nil {
		h.handleGroupError(c, err)
		return
	}
	response.OK(c, dto.MessageResponse{Message: "Joined group"})
}

// Leave 退出群组
// POST /api/v1/groups/:id/leave
func (h *GroupHandler) Leave(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrGroupNotFound, h.handleGroupError)
	if !ok {
		return
	}
	if err := h.groupSvc.Leave(c.Request.Context(), caller, id); err != nil {
		h.handleGroupError(c, err)
		return
	}
	response.OK(c, dto.MessageResponse{Message: "Left group"})
}

// ListMembers 成员列表
// GET /api/v1/groups/:id/members
func (h *GroupHandler) ListMembers(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		bindFailed(c, err)
		return
	}
	id, ok := pathID(c, "id", service.ErrGroupNotFound, h.handleGroupError)
	if !ok {
		return
	}
	members, total, err := h.groupSvc.ListMembers(c.Request.Context(), id, &page)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}
	response.OKPage(c, members, total, page.GetPage(), page.GetPageSize())
}

// ListModerators 版主列表
// GET /api/v1/groups/:id/moderators
func (h *GroupHandler) ListModerators(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrGroupNotFound, h.handleGroupError)
	if !ok {
		return
	}
	mods, err := h.groupSvc.ListModerators(c.Request.Context(), id)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}
	response.OK(c, mods)
}

// AddModerator 添加版主（创建者或 staff）
// POST /api/v1/groups/:id/moderators
func (h *GroupHandler) AddModerator(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.ModeratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if !bodyIDs(c, &req.UserID) {
		return
	}
	id, ok := pathID(c, "id", service.ErrGroupNotFound, h.handleGroupError)
	if !ok {
		return
	}
	mod, err := h.groupSvc.AddModerator(c.Request.Context(), caller, id, req.UserID)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}
	response.Created(c, mod)
}

// RemoveModerator 移除版主
// DELETE /api/v1/groups/:id/moderators/:user_id
func (h *GroupHandler) RemoveModerator(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrGroupNotFound, h.handleGroupError)
	if !ok {
		return
	}
	userID, ok := pathID(c, "user_id", service.ErrModeratorNotFound, h.handleGroupError)
	if !ok {
		return
	}
	if err := h.groupSvc.RemoveModerator(c.Request.Context(), caller, id, userID); err != nil {
		h.handleGroupError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *GroupHandler) handleGroupError(c *gin.Context, err error) {
	if handleBanError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 13001, err.Error())
	case errors.Is(err, service.ErrGroupNameRequired):
		response.BadRequest(c, 13002, err.Error())
	case errors.Is(err, service.ErrGroupNameTooLong):
		response.BadRequest(c, 13003, err.Error())
	case errors.Is(err, service.ErrInvalidCategory):
		response.BadRequest(c, 13004, err.Error())
	case errors.Is(err, service.ErrAlreadyMember):
		response.BadRequest(c, 13005, err.Error())
	case errors.Is(err, service.ErrNotMember):
		response.BadRequest(c, 13006, err.Error())
	case errors.Is(err, service.ErrCreatorCannotLeave):
		response.BadRequest(c, 13007, err.Error())
	case errors.Is(err, service.ErrGroupPermissionDenied):
		response.Forbidden(c, 13008, err.Error())
	case errors.Is(err, service.ErrTargetNotMember):
		response.BadRequest(c, 13009, err.Error())
	case errors.Is(err, service.ErrAlreadyModerator):
		response.BadRequest(c, 13010, err.Error())
	case errors.Is(err, service.ErrModeratorNotFound):
		response.NotFound(c, 13011, err.Error())
	case errors.Is(err, service.ErrCannotRemoveCreator):
		response.BadRequest(c, 13012, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 13013, err.Error())
	default:
		response.InternalError(c)
	}
}
