package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/j-neeley/DawgPound/config"
	"github.com/j-neeley/DawgPound/internal/api/middleware"
	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/service"
	"github.com/j-neeley/DawgPound/pkg/response"
)

// AccountHandler 账号模块 HTTP 处理器
type AccountHandler struct {
	accountSvc service.AccountService
	cookie     config.CookieConfig
}

// NewAccountHandler 创建 AccountHandler
func NewAccountHandler(accountSvc service.AccountService, cookie config.CookieConfig) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc, cookie: cookie}
}

// Signup godoc
// @Summary      Sign up
// @Description  Creates an account with a university email, starts a session and sends a verification mail.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        input body dto.SignupRequest true "Account"
// @Success      201  {object}  response.Response "data.user"
// @Failure      400  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Router       /users/signup [post]
func (h *AccountHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.accountSvc.Signup(c.Request.Context(), &req)
	if err != nil {
		h.handleAccountError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	response.Created(c, gin.H{"user": result.User})
}

// Login godoc
// @Summary      Log in
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        input body dto.LoginRequest true "Credentials"
// @Success      200  {object}  response.Response "data.user"
// @Failure      401  {object}  response.Response "Invalid username or password"
// @Router       /users/login [post]
func (h *AccountHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.accountSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAccountError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	response.OK(c, gin.H{"user": result.User})
}

// Logout 注销当前会话
// POST /api/v1/users/logout
func (h *AccountHandler) Logout(c *gin.Context) {
	if _, ok := MustGetCaller(c); !ok {
		return
	}
	jti := c.GetString(middleware.CtxSessionID)
	exp, _ := c.Get(middleware.CtxSessionExpires)
	expiresAt, _ := exp.(time.Time)

	if err := h.accountSvc.Logout(c.Request.Context(), jti, expiresAt); err != nil {
		h.handleAccountError(c, err)
		return
	}

	h.clearSessionCookie(c)
	response.OKWithMessage(c, "Logged out successfully", nil)
}

// Me godoc
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  response.Response{data=dto.UserResponse}
// @Failure      401  {object}  response.Response
// @Router       /users/me [get]
func (h *AccountHandler) Me(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	user, err := h.accountSvc.Me(c.Request.Context(), caller.UserID)
	if err != nil {
		h.handleAccountError(c, err)
		return
	}
	response.OK(c, user)
}

// VerifyEmail 使用邮件中的 token 验证邮箱
// POST /api/v1/users/verify_email
func (h *AccountHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	user, err := h.accountSvc.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		h.handleAccountError(c, err)
		return
	}
	response.OKWithMessage(c, "Email verified", user)
}

// ResendVerification 重新发送验证邮件
// POST /api/v1/users/resend_verification
func (h *AccountHandler) ResendVerification(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	if err := h.accountSvc.ResendVerification(c.Request.Context(), caller.UserID); err != nil {
		h.handleAccountError(c, err)
		return
	}
	response.OKWithMessage(c, "Verification email sent", nil)
}

// GetOnboarding 查看引导资料
// GET /api/v1/users/onboarding
func (h *AccountHandler) GetOnboarding(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	user, err := h.accountSvc.GetOnboarding(c.Request.Context(), caller.UserID)
	if err != nil {
		h.handleAccountError(c, err)
		return
	}
	response.OK(c, user)
}

// CompleteOnboarding godoc
// @Summary      Complete onboarding
// @Description  Requires at least one major and three interests/hobbies.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        input body dto.OnboardingRequest true "Profile"
// @Success      200  {object}  response.Response{data=dto.UserResponse}
// @Failure      400  {object}  response.Response
// @Router       /users/onboarding [post]
func (h *AccountHandler) CompleteOnboarding(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	user, err := h.accountSvc.CompleteOnboarding(c.Request.Context(), caller.UserID, &req)
	if err != nil {
		h.handleAccountError(c, err)
		return
	}
	response.OK(c, user)
}

// UpdateOnboarding 部分更新引导资料
// PUT /api/v1/users/onboarding
func (h *AccountHandler) UpdateOnboarding(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	var req dto.OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	user, err := h.accountSvc.UpdateOnboarding(c.Request.Context(), caller.UserID, &req)
	if err != nil {
		h.handleAccountError(c, err)
		return
	}
	response.OK(c, user)
}

// Taxonomy 专业与兴趣分类
// GET /api/v1/users/taxonomy
func (h *AccountHandler) Taxonomy(c *gin.Context) {
	response.OK(c, h.accountSvc.Taxonomy())
}

func (h *AccountHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(sameSite(h.cookie.SameSite))
	c.SetCookie(h.cookie.Name, token, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AccountHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(sameSite(h.cookie.SameSite))
	c.SetCookie(h.cookie.Name, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
}

func sameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (h *AccountHandler) handleAccountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, err.Error())
	case errors.Is(err, service.ErrUsernameTaken):
		response.BadRequest(c, 11002, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		response.BadRequest(c, 11003, err.Error())
	case errors.Is(err, service.ErrInvalidVerificationToken):
		response.NotFound(c, 11004, err.Error())
	case errors.Is(err, service.ErrAlreadyVerified):
		response.BadRequest(c, 11005, err.Error())
	case errors.Is(err, service.ErrMajorRequired):
		response.BadRequest(c, 11006, err.Error())
	case errors.Is(err, service.ErrInterestsRequired):
		response.BadRequest(c, 11007, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11008, err.Error())
	case errors.Is(err, service.ErrEmailNotVerified):
		response.Forbidden(c, 11009, err.Error())
	default:
		response.InternalError(c)
	}
}
