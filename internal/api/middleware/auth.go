package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/j-neeley/DawgPound/pkg/jwt"
	"github.com/j-neeley/DawgPound/pkg/response"
)

// 会话信息在 gin.Context 中的键
const (
	CtxUserID         = "user_id"
	CtxUsername       = "username"
	CtxIsStaff        = "is_staff"
	CtxIsSuperuser    = "is_superuser"
	CtxSessionID      = "session_id"
	CtxSessionExpires = "session_expires_at"
)

// SessionChecker 会话吊销查询，由 pkg/redis.Client 实现
type SessionChecker interface {
	IsSessionRevoked(ctx context.Context, jti string) (bool, error)
}

// VerificationChecker 邮箱验证状态查询
type VerificationChecker interface {
	IsVerified(ctx context.Context, userID string) (bool, error)
}

// SessionAuth 会话认证中间件
// 优先读取会话 Cookie，其次 Authorization: Bearer <token>
// revoked 为 nil 时不检查吊销名单
func SessionAuth(jwtMgr *jwt.Manager, cookieName string, revoked SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, msg := authenticate(c, jwtMgr, cookieName, revoked)
		if claims == nil {
			response.Unauthorized(c, 10002, msg)
			c.Abort()
			return
		}
		inject(c, claims)
		c.Next()
	}
}

// OptionalAuth 有合法会话时注入身份，否则以匿名身份继续
func OptionalAuth(jwtMgr *jwt.Manager, cookieName string, revoked SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, _ := authenticate(c, jwtMgr, cookieName, revoked); claims != nil {
			inject(c, claims)
		}
		c.Next()
	}
}

// RequireStaff 仅允许 staff/superuser
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsStaff) && !c.GetBool(CtxIsSuperuser) {
			response.Forbidden(c, 10003, "Staff access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireVerified 拒绝邮箱未验证的用户发起写操作；enabled=false 时直接放行
func RequireVerified(checker VerificationChecker, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || isReadOnly(c.Request.Method) {
			c.Next()
			return
		}
		verified, err := checker.IsVerified(c.Request.Context(), c.GetString(CtxUserID))
		if err != nil {
			response.InternalError(c)
			c.Abort()
			return
		}
		if !verified {
			response.Forbidden(c, 10006, "Email not verified")
			c.Abort()
			return
		}
		c.Next()
	}
}

// PrivilegeLoader 读取用户当前的 staff/superuser 标记
type PrivilegeLoader interface {
	Privileges(ctx context.Context, userID string) (isStaff, isSuperuser bool, err error)
}

// RefreshPrivileges 用库中的当前标记覆盖令牌里的权限声明，降权在下一次请求即生效。
// 读取失败时按普通用户处理。
func RefreshPrivileges(loader PrivilegeLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(CtxUserID)
		if loader == nil || userID == "" {
			c.Next()
			return
		}
		staff, superuser, err := loader.Privileges(c.Request.Context(), userID)
		if err != nil {
			staff, superuser = false, false
		}
		c.Set(CtxIsStaff, staff)
		c.Set(CtxIsSuperuser, superuser)
		c.Next()
	}
}

func authenticate(c *gin.Context, jwtMgr *jwt.Manager, cookieName string, revoked SessionChecker) (*jwt.Claims, string) {
	token := sessionToken(c, cookieName)
	if token == "" {
		return nil, "Authentication credentials were not provided"
	}

	claims, err := jwtMgr.ParseToken(token)
	if err != nil {
		return nil, "Invalid or expired session"
	}

	if revoked != nil && claims.ID != "" {
		// Redis 出错时降级放行
		if yes, err := revoked.IsSessionRevoked(c.Request.Context(), claims.ID); err == nil && yes {
			return nil, "Session has been logged out"
		}
	}
	return claims, ""
}

func sessionToken(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			return v
		}
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func inject(c *gin.Context, claims *jwt.Claims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxUsername, claims.Username)
	c.Set(CtxIsStaff, claims.IsStaff)
	c.Set(CtxIsSuperuser, claims.IsSuperuser)
	c.Set(CtxSessionID, claims.ID)
	if claims.ExpiresAt != nil {
		c.Set(CtxSessionExpires, claims.ExpiresAt.Time)
	} else {
		c.Set(CtxSessionExpires, time.Time{})
	}
}

func isReadOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
