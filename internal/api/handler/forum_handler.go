package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/service"
	"github.com/j-neeley/DawgPound/pkg/response"
)

// ForumHandler 论坛模块 HTTP 处理器
type ForumHandler struct {
	forumSvc service.ForumService
}

// NewForumHandler 创建 ForumHandler
func NewForumHandler(forumSvc service.ForumService) *ForumHandler {
	return &ForumHandler{forumSvc: forumSvc}
}

// ────────── 主题 ──────────

// ListThreads godoc
// @Summary      List threads
// @Description  Pinned threads first, then newest first.
// @Tags         forum
// @Produce      json
// @Param        group      query  string  false  "Group ID"
// @Param        page       query  int     false  "Page"
// @Param        page_size  query  int     false  "Page size"
// @Success      200  {object}  response.Response{data=response.PageData}
// @Router       /threads [get]
func (h *ForumHandler) ListThreads(c *gin.Context) {
	var req dto.ThreadListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	threads, total, err := h.forumSvc.ListThreads(c.Request.Context(), &req)
	if err != nil {
		h.handleForumError(c, err)
		return
	}
	response.OKPage(c, threads, total, req.GetPage(), req.GetPageSize())
}

// GetThread 主题详情
// GET /api/v1/threads/:id
func (h *ForumHandler) GetThread(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrThreadNotFound, h.handleForumError)
	if !ok {
		return
	}
	thread, err := h.forumSvc.GetThread(c.Request.Context(), id)
	if err != nil {
		h.handleForumError(c, err)
		return
	}
	response.OK(c, thread)
}

// CreateThread godoc
// @Summary      Create thread
// @Tags         forum
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        input body dto.CreateThreadRequest true "Thread"
// @Success      201  {object}  response.Response{data=dto.ThreadResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response "Banned"
// @Router       /threads [post]
func (h *ForumHandler) CreateThread(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	thread, err := h.forumSvc.CreateThread(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleForumError(c, err)
		return
	}
	response.Created(c, thread)
}

// UpdateThread 编辑主题（作者或 staff）
// PATCH /api/v1/threads/:id
func (h *ForumHandler) UpdateThread(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.UpdateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	id, ok := pathID(c, "id", service.ErrThreadNotFound, h.handleForumError)
	if !ok {
		return
	}
	thread, err := h.forumSvc.UpdateThread(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleForumError(c, err)
		return
	}
	response.OK(c, thread)
}

// DeleteThread 删除主题（作者、版主或 staff）
// DELETE /api/v1/threads/:id
func (h *ForumHandler) DeleteThread(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	reason, ok := optionalReason(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrThreadNotFound, h.handleForumError)
	if !ok {
		return
	}
	if err := h.forumSvc.DeleteThread(c.Request.Context(), caller, id, reason); err != nil {
		h.handleForumError(c, err)
		return
	}
	response.NoContent(c)
}

// PinThread POST /api/v1/threads/:id/pin
func (h *ForumHandler) PinThread(c *gin.Context) { h.setFlag(c, h.forumSvc.SetPinned, true) }

// UnpinThread POST /api/v1/threads/:id/unpin
func (h *ForumHandler) UnpinThread(c *gin.Context) { h.setFlag(c, h.forumSvc.SetPinned, false) }

// LockThread POST /api/v1/threads/:id/lock
func (h *ForumHandler) LockThread(c *gin.Context) { h.setFlag(c, h.forumSvc.SetLocked, true) }

// UnlockThread POST /api/v1/threads/:id/unlock
func (h *ForumHandler) UnlockThread(c *gin.Context) { h.setFlag(c, h.forumSvc.SetLocked, false) }

type threadFlagFunc func(ctx context.Context, caller service.Caller, id string, on bool, reason string) (*dto.ThreadResponse, error)

func (h *ForumHandler) setFlag(c *gin.Context, set threadFlagFunc, on bool) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	reason, ok := optionalReason(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrThreadNotFound, h.handleForumError)
	if !ok {
		return
	}
	thread, err := set(c.Request.Context(), caller, id, on, reason)
	if err != nil {
		h.handleForumError(c, err)
		return
	}
	response.OK(c, thread)
}

// ────────── 回复 ──────────

// ListThreadReplies 主题下的回复，按时间正序
// GET /api/v1/threads/:id/replies
func (h *ForumHandler) ListThreadReplies(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		bindFailed(c, err)
		return
	}
	id, ok := pathID(c, "id", service.ErrThreadNotFound, h.handleForumError)
	if !ok {
		return
	}
	h.listReplies(c, id, &page)
}

// ListReplies 回复列表，可按 thread 过滤
// GET /api/v1/replies
func (h *ForumHandler) ListReplies(c *gin.Context) {
	var req dto.ReplyListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	h.listReplies(c, req.ThreadID, &req.PaginationRequest)
}

func (h *ForumHandler) listReplies(c *gin.Context, threadID string, page *dto.PaginationRequest) {
	replies, total, err := h.forumSvc.ListReplies(c.Request.Context(), threadID, page)
	if err != nil {
		h.handleForumError(c, err)
		return
	}
	response.OKPage(c, replies, total, page.GetPage(), page.GetPageSize())
}

// ReplyToThread 回复主题
// POST /api/v1/threads/:id/reply
func (h *ForumHandler) ReplyToThread(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	id, ok := pathID(c, "id", service.ErrThreadNotFound, h.handleForumError)
	if !ok {
		return
	}
	h.addReply(c, caller, id, &req)
}

// CreateReply 回复主题，主题 ID 在请求体中
// POST /api/v1/replies
func (h *ForumHandler) CreateReply(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.CreateReplyWithThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	h.addReply(c, caller, req.ThreadID, &req.CreateReplyRequest)
}

func (h *ForumHandler) addReply(c *gin.Context, caller service.Caller, threadID string, req *dto.CreateReplyRequest) {
	reply, err := h.forumSvc.AddReply(c.Request.Context(), caller, threadID, req)
	if err != nil {
		h.handleForumError(c, err)
		return
	}
	response.Created(c, reply)
}

// GetReply 回复详情
// GET /api/v1/replies/:id
func (h *ForumHandler) GetReply(c *gin.Context) {
	id, ok := pathID(c, "id", service.ErrReplyNotFound, h.handleForumError)
	if !ok {
		return
	}
	reply, err := h.forumSvc.GetReply(c.Request.Context(), id)
	if err != nil {
		h.handleForumError(c, err)
		return
	}
	response.OK(c, reply)
}

// DeleteReply 删除回复（作者、版主或 staff）
// DELETE /api/v1/replies/:id
func (h *ForumHandler) DeleteReply(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	reason, ok := optionalReason(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrReplyNotFound, h.handleForumError)
	if !ok {
		return
	}
	if err := h.forumSvc.DeleteReply(c.Request.Context(), caller, id, reason); err != nil {
		h.handleForumError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *ForumHandler) handleForumError(c *gin.Context, err error) {
	if handleBanError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrThreadNotFound):
		response.NotFound(c, 14001, err.Error())
	case errors.Is(err, service.ErrReplyNotFound):
		response.NotFound(c, 14002, err.Error())
	case errors.Is(err, service.ErrThreadLocked):
		response.Forbidden(c, 14003, err.Error())
	case errors.Is(err, service.ErrThreadDeleteDenied):
		response.Forbidden(c, 14004, err.Error())
	case errors.Is(err, service.ErrReplyDeleteDenied):
		response.Forbidden(c, 14005, err.Error())
	case errors.Is(err, service.ErrThreadEditDenied):
		response.Forbidden(c, 14006, err.Error())
	case errors.Is(err, service.ErrNotModerator):
		response.Forbidden(c, 14007, err.Error())
	case errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrTitleTooLong),
		errors.Is(err, service.ErrContentRequired),
		errors.Is(err, service.ErrContentTooLong),
		errors.Is(err, service.ErrInvalidContentType):
		response.BadRequest(c, 14008, err.Error())
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 13001, err.Error())
	default:
		response.InternalError(c)
	}
}
