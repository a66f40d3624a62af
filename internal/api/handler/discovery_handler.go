package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/service"
	"github.com/j-neeley/DawgPound/pkg/response"
)

// DiscoveryHandler 用户搜索与推荐 HTTP 处理器
type DiscoveryHandler struct {
	userSvc      service.UserService
	discoverySvc service.DiscoveryService
}

// NewDiscoveryHandler 创建 DiscoveryHandler
func NewDiscoveryHandler(userSvc service.UserService, discoverySvc service.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{userSvc: userSvc, discoverySvc: discoverySvc}
}

// SearchUsers godoc
// @Summary      Search users
// @Description  Matches username, first/last name and email; at most 20 verified users.
// @Tags         users
// @Produce      json
// @Security     SessionCookie
// @Param        q   query  string  false  "Search text"
// @Success      200  {object}  response.Response{data=[]dto.UserSummary}
// @Router       /users/search [get]
func (h *DiscoveryHandler) SearchUsers(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.SearchUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	users, err := h.userSvc.Search(c.Request.Context(), caller, req.Q)
	if err != nil {
		h.handleDiscoveryError(c, err)
		return
	}
	response.OK(c, users)
}

// Recommendations 相似用户推荐
// GET /api/v1/users/recommendations
func (h *DiscoveryHandler) Recommendations(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	recs, err := h.discoverySvc.Recommendations(c.Request.Context(), caller)
	if err != nil {
		h.handleDiscoveryError(c, err)
		return
	}
	response.OK(c, recs)
}

// Feed 发现页：推荐用户与推荐群组
// GET /api/v1/discovery/feed
func (h *DiscoveryHandler) Feed(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	feed, err := h.discoverySvc.Feed(c.Request.Context(), caller)
	if err != nil {
		h.handleDiscoveryError(c, err)
		return
	}
	response.OK(c, feed)
}

func (h *DiscoveryHandler) handleDiscoveryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11008, err.Error())
	default:
		response.InternalError(c)
	}
}
