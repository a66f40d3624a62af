package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/service"
	"github.com/j-neeley/DawgPound/pkg/response"
)

// FriendHandler 好友与拉黑 HTTP 处理器
type FriendHandler struct {
	friendSvc service.FriendService
	blockSvc  service.BlockService
}

// NewFriendHandler 创建 FriendHandler
func NewFriendHandler(friendSvc service.FriendService, blockSvc service.BlockService) *FriendHandler {
	return &FriendHandler{friendSvc: friendSvc, blockSvc: blockSvc}
}

// SendRequest godoc
// @Summary      Send friend request
// @Tags         friends
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        input body dto.SendFriendRequestRequest true "Target"
// @Success      201  {object}  response.Response{data=dto.FriendRequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response "You cannot interact with this user"
// @Router       /users/send_friend_request [post]
func (h *FriendHandler) SendRequest(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if !bodyIDs(c, &req.ToUser) {
		return
	}
	fr, err := h.friendSvc.SendRequest(c.Request.Context(), caller, req.ToUser)
	if err != nil {
		h.handleFriendError(c, err)
		return
	}
	response.Created(c, fr)
}

// AcceptRequest 接受好友请求
// POST /api/v1/users/accept_friend_request
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.RespondFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if !bodyIDs(c, &req.RequestID) {
		return
	}
	if err := h.friendSvc.AcceptRequest(c.Request.Context(), caller, req.RequestID); err != nil {
		h.handleFriendError(c, err)
		return
	}
	response.OK(c, dto.MessageResponse{Message: "Friend request accepted"})
}

// DeclineRequest 拒绝好友请求
// POST /api/v1/users/decline_friend_request
func (h *FriendHandler) DeclineRequest(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.RespondFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if !bodyIDs(c, &req.RequestID) {
		return
	}
	if err := h.friendSvc.DeclineRequest(c.Request.Context(), caller, req.RequestID); err != nil {
		h.handleFriendError(c, err)
		return
	}
	response.OK(c, dto.MessageResponse{Message: "Friend request declined"})
}

// ListRequests 收到与发出的待处理请求
// GET /api/v1/users/friend_requests
func (h *FriendHandler) ListRequests(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	result, err := h.friendSvc.ListRequests(c.Request.Context(), caller)
	if err != nil {
		h.handleFriendError(c, err)
		return
	}
	response.OK(c, result)
}

// ListFriends 好友列表
// GET /api/v1/users/friends
func (h *FriendHandler) ListFriends(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	friends, err := h.friendSvc.ListFriends(c.Request.Context(), caller)
	if err != nil {
		h.handleFriendError(c, err)
		return
	}
	response.OK(c, friends)
}

// Unfriend 解除好友关系
// DELETE /api/v1/users/friends/:id
func (h *FriendHandler) Unfriend(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrFriendshipNotFound, h.handleFriendError)
	if !ok {
		return
	}
	if err := h.friendSvc.Unfriend(c.Request.Context(), caller, id); err != nil {
		h.handleFriendError(c, err)
		return
	}
	response.NoContent(c)
}

// Block 拉黑用户
// POST /api/v1/users/blocks
func (h *FriendHandler) Block(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.BlockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if !bodyIDs(c, &req.UserID) {
		return
	}
	block, err := h.blockSvc.Block(c.Request.Context(), caller, req.UserID)
	if err != nil {
		h.handleFriendError(c, err)
		return
	}
	response.Created(c, block)
}

// ListBlocks 拉黑列表
// GET /api/v1/users/blocks
func (h *FriendHandler) ListBlocks(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	blocks, err := h.blockSvc.List(c.Request.Context(), caller)
	if err != nil {
		h.handleFriendError(c, err)
		return
	}
	response.OK(c, blocks)
}

// Unblock 取消拉黑
// DELETE /api/v1/users/blocks/:user_id
func (h *FriendHandler) Unblock(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "user_id", service.ErrBlockNotFound, h.handleFriendError)
	if !ok {
		return
	}
	if err := h.blockSvc.Unblock(c.Request.Context(), caller, userID); err != nil {
		h.handleFriendError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *FriendHandler) handleFriendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrToUserRequired):
		response.BadRequest(c, 12001, err.Error())
	case errors.Is(err, service.ErrSelfFriendRequest):
		response.BadRequest(c, 12002, err.Error())
	case errors.Is(err, service.ErrAlreadyFriends):
		response.BadRequest(c, 12003, err.Error())
	case errors.Is(err, service.ErrFriendRequestExists):
		response.BadRequest(c, 12004, err.Error())
	case errors.Is(err, service.ErrRequestIDRequired):
		response.BadRequest(c, 12005, err.Error())
	case errors.Is(err, service.ErrFriendRequestNotFound):
		response.NotFound(c, 12006, err.Error())
	case errors.Is(err, service.ErrFriendshipNotFound):
		response.NotFound(c, 12007, err.Error())
	case errors.Is(err, service.ErrUserBlocked):
		response.Forbidden(c, 12008, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12009, err.Error())
	case errors.Is(err, service.ErrSelfBlock):
		response.BadRequest(c, 12010, err.Error())
	case errors.Is(err, service.ErrAlreadyBlocked):
		response.BadRequest(c, 12011, err.Error())
	case errors.Is(err, service.ErrBlockNotFound):
		response.NotFound(c, 12012, err.Error())
	default:
		response.InternalError(c)
	}
}
