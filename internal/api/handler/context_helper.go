package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/j-neeley/DawgPound/internal/api/middleware"
	"github.com/j-neeley/DawgPound/internal/api/validation"
	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/service"
	"github.com/j-neeley/DawgPound/pkg/response"
)

// MustGetCaller 从 Gin 上下文中提取会话身份。
// 如果认证中间件未注入 user_id，写入 401 响应并返回 false，调用方应直接 return。
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	caller := callerFrom(c)
	if !caller.Authenticated() {
		response.Unauthorized(c, 10002, "Authentication credentials were not provided")
		return caller, false
	}
	return caller, true
}

// callerFrom 读取可选身份，匿名时 UserID 为空
func callerFrom(c *gin.Context) service.Caller {
	return service.Caller{
		UserID:      c.GetString(middleware.CtxUserID),
		IsStaff:     c.GetBool(middleware.CtxIsStaff),
		IsSuperuser: c.GetBool(middleware.CtxIsSuperuser),
	}
}

// bindFailed 统一处理参数绑定失败
func bindFailed(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Request body too large")
		return
	}
	if details := validation.FieldErrors(err); len(details) > 0 {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "Invalid request parameters", details)
		return
	}
	response.BadRequest(c, 10001, "Invalid request parameters")
}

// optionalReason 读取可选的 {reason} 请求体；无请求体时返回空串
func optionalReason(c *gin.Context) (string, bool) {
	if c.Request.ContentLength == 0 {
		return "", true
	}
	var req dto.ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return "", false
	}
	return req.Reason, true
}
