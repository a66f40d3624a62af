package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/service"
	"github.com/j-neeley/DawgPound/pkg/response"
)

// ChatHandler 私聊模块 HTTP 处理器
type ChatHandler struct {
	chatSvc service.ChatService
}

// NewChatHandler 创建 ChatHandler
func NewChatHandler(chatSvc service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// CreateChat godoc
// @Summary      Create chat
// @Description  All participants must be friends of the caller.
// @Tags         chats
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        input body dto.CreateChatRequest true "Chat"
// @Success      201  {object}  response.Response{data=dto.ChatResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response "Can only create chat with friends"
// @Router       /chats [post]
func (h *ChatHandler) CreateChat(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if !bodyIDList(c, req.ParticipantIDs) {
		return
	}
	chat, err := h.chatSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleChatError(c, err)
		return
	}
	response.Created(c, chat)
}

// ListChats 当前用户的会话，最近更新在前
// GET /api/v1/chats
func (h *ChatHandler) ListChats(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	chats, err := h.chatSvc.List(c.Request.Context(), caller)
	if err != nil {
		h.handleChatError(c, err)
		return
	}
	response.OK(c, chats)
}

// GetChat 会话详情
// GET /api/v1/chats/:id
func (h *ChatHandler) GetChat(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrChatNotFound, h.handleChatError)
	if !ok {
		return
	}
	chat, err := h.chatSvc.Get(c.Request.Context(), caller, id)
	if err != nil {
		h.handleChatError(c, err)
		return
	}
	response.OK(c, chat)
}

// UpdateChat 修改会话名称/头像
// PATCH /api/v1/chats/:id
func (h *ChatHandler) UpdateChat(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.UpdateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	id, ok := pathID(c, "id", service.ErrChatNotFound, h.handleChatError)
	if !ok {
		return
	}
	chat, err := h.chatSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleChatError(c, err)
		return
	}
	response.OK(c, chat)
}

// AddParticipant 添加参与者
// POST /api/v1/chats/:id/participants
func (h *ChatHandler) AddParticipant(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if !bodyIDs(c, &req.UserID) {
		return
	}
	id, ok := pathID(c, "id", service.ErrChatNotFound, h.handleChatError)
	if !ok {
		return
	}
	chat, err := h.chatSvc.AddParticipant(c.Request.Context(), caller, id, req.UserID)
	if err != nil {
		h.handleChatError(c, err)
		return
	}
	response.OK(c, chat)
}

// RemoveParticipant 移除参与者（本人或创建者）
// DELETE /api/v1/chats/:id/participants/:user_id
func (h *ChatHandler) RemoveParticipant(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", service.ErrChatNotFound, h.handleChatError)
	if !ok {
		return
	}
	userID, ok := pathID(c, "user_id", service.ErrParticipantNotFound, h.handleChatError)
	if !ok {
		return
	}
	if err := h.chatSvc.RemoveParticipant(c.Request.Context(), caller, id, userID); err != nil {
		h.handleChatError(c, err)
		return
	}
	response.NoContent(c)
}

// Mute 设置静音
// POST /api/v1/chats/:id/mute
func (h *ChatHandler) Mute(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.MuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	id, ok := pathID(c, "id", service.ErrChatNotFound, h.handleChatError)
	if !ok {
		return
	}
	chat, err := h.chatSvc.SetMuted(c.Request.Context(), caller, id, *req.Mute)
	if err != nil {
		h.handleChatError(c, err)
		return
	}
	response.OK(c, chat)
}

// ListMessages 消息列表，按时间正序
// GET /api/v1/chats/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.MessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	id, ok := pathID(c, "id", service.ErrChatNotFound, h.handleChatError)
	if !ok {
		return
	}
	msgs, err := h.chatSvc.ListMessages(c.Request.Context(), caller, id, req.Limit)
	if err != nil {
		h.handleChatError(c, err)
		return
	}
	response.OK(c, msgs)
}

// SendMessage godoc
// @Summary      Send message
// @Description  Pushed over WebSocket to participants who have not muted the chat.
// @Tags         chats
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        id    path  string                  true  "Chat ID"
// @Param        input body  dto.SendMessageRequest  true  "Message"
// @Success      201  {object}  response.Response{data=dto.ChatMessageResponse}
// @Failure      403  {object}  response.Response "Not a participant of this chat"
// @Router       /chats/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	id, ok := pathID(c, "id", service.ErrChatNotFound, h.handleChatError)
	if !ok {
		return
	}
	msg, err := h.chatSvc.SendMessage(c.Request.Context(), caller, id, req.Content)
	if err != nil {
		h.handleChatError(c, err)
		return
	}
	response.Created(c, msg)
}

func (h *ChatHandler) handleChatError(c *gin.Context, err error) {
	if handleBanError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrChatNotFound):
		response.NotFound(c, 15001, err.Error())
	case errors.Is(err, service.ErrParticipantsRequired),
		errors.Is(err, service.ErrChatTooFewParticipants):
		response.BadRequest(c, 15002, err.Error())
	case errors.Is(err, service.ErrChatFriendsOnly):
		response.Forbidden(c, 15003, err.Error())
	case errors.Is(err, service.ErrNotChatParticipant):
		response.Forbidden(c, 15004, err.Error())
	case errors.Is(err, service.ErrAlreadyParticipant):
		response.BadRequest(c, 15005, err.Error())
	case errors.Is(err, service.ErrParticipantNotFound):
		response.NotFound(c, 15006, err.Error())
	case errors.Is(err, service.ErrParticipantRemoveDenied):
		response.Forbidden(c, 15007, err.Error())
	case errors.Is(err, service.ErrChatNameTooLong),
		errors.Is(err, service.ErrChatAvatarTooLong):
		response.BadRequest(c, 15008, err.Error())
	case errors.Is(err, service.ErrMessageRequired),
		errors.Is(err, service.ErrMessageTooLong):
		response.BadRequest(c, 15009, err.Error())
	case errors.Is(err, service.ErrUserBlocked):
		response.Forbidden(c, 12008, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12009, err.Error())
	default:
		response.InternalError(c)
	}
}
