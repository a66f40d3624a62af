package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/j-neeley/DawgPound/config"
	"github.com/j-neeley/DawgPound/internal/api/handler"
	"github.com/j-neeley/DawgPound/internal/api/middleware"
	"github.com/j-neeley/DawgPound/pkg/jwt"
	"github.com/j-neeley/DawgPound/pkg/metrics"
)

// Deps 路由所需的基础设施；Sessions/Limiter 为 nil 时对应功能降级放行
type Deps struct {
	JWT        *jwt.Manager
	Sessions   middleware.SessionChecker
	Limiter    middleware.RateLimiter
	Verifier   middleware.VerificationChecker
	Privileges middleware.PrivilegeLoader
	Metrics    *metrics.Metrics
	Tracer     trace.TracerProvider
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, deps Deps, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if deps.Tracer != nil {
		r.Use(middleware.Tracing(deps.Tracer))
	}
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 运维端点 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	cookieName := cfg.Auth.Cookie.Name
	auth := middleware.SessionAuth(deps.JWT, cookieName, deps.Sessions)
	optional := middleware.OptionalAuth(deps.JWT, cookieName, deps.Sessions)
	authLimit := middleware.RateLimit(deps.Limiter, cfg.RateLimit.AuthRequests, cfg.RateLimit.Window)
	verified := middleware.RequireVerified(deps.Verifier, cfg.Auth.RequireVerifiedEmail && deps.Verifier != nil)
	privileges := middleware.RefreshPrivileges(deps.Privileges)

	r.GET("/ws", auth, privileges, h.Realtime.Connect)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 账号模块（无需认证）
		public := v1.Group("/users")
		{
			public.POST("/signup", authLimit, h.Account.Signup)
			public.POST("/login", authLimit, h.Account.Login)
			public.POST("/verify_email", h.Account.VerifyEmail)
			public.GET("/taxonomy", h.Account.Taxonomy)
		}

		// 公开浏览：匿名可读，登录后附带成员状态
		browse := v1.Group("")
		browse.Use(optional)
		{
			browse.GET("/groups", h.Group.ListGroups)
			browse.GET("/groups/:id", h.Group.GetGroup)
			browse.GET("/groups/:id/members", h.Group.ListMembers)
			browse.GET("/groups/:id/moderators", h.Group.ListModerators)

			browse.GET("/threads", h.Forum.ListThreads)
			browse.GET("/threads/:id", h.Forum.GetThread)
			browse.GET("/threads/:id/replies", h.Forum.ListThreadReplies)
			browse.GET("/replies", h.Forum.ListReplies)
			browse.GET("/replies/:id", h.Forum.GetReply)
		}

		// 需要会话、不要求邮箱已验证的账号路由
		account := v1.Group("/users")
		account.Use(auth)
		{
			account.POST("/logout", h.Account.Logout)
			account.GET("/me", h.Account.Me)
			account.POST("/resend_verification", h.Account.ResendVerification)
			account.GET("/onboarding", h.Account.GetOnboarding)
			account.POST("/onboarding", h.Account.CompleteOnboarding)
			account.PUT("/onboarding", h.Account.UpdateOnboarding)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(auth, privileges, verified)
		{
			// 社交关系
			users := authorized.Group("/users")
			{
				users.GET("/search", h.Discovery.SearchUsers)
				users.GET("/recommendations", h.Discovery.Recommendations)

				users.GET("/friends", h.Friend.ListFriends)
				users.DELETE("/friends/:id", h.Friend.Unfriend)
				users.GET("/friend_requests", h.Friend.ListRequests)
				users.POST("/send_friend_request", h.Friend.SendRequest)
				users.POST("/accept_friend_request", h.Friend.AcceptRequest)
				users.POST("/decline_friend_request", h.Friend.DeclineRequest)

				users.GET("/blocks", h.Friend.ListBlocks)
				users.POST("/blocks", h.Friend.Block)
				users.DELETE("/blocks/:user_id", h.Friend.Unblock)
			}

			// 群组模块
			groups := authorized.Group("/groups")
			{
				groups.POST("", h.Group.CreateGroup)
				groups.PATCH("/:id", h.Group.UpdateGroup)
				groups.DELETE("/:id", h.Group.DeleteGroup)
				groups.POST("/:id/join", h.Group.Join)
				groups.POST("/:id/leave", h.Group.Leave)
				groups.POST("/:id/moderators", h.Group.AddModerator)
				groups.DELETE("/:id/moderators/:user_id", h.Group.RemoveModerator)
			}

			// 论坛模块
			threads := authorized.Group("/threads")
			{
				threads.POST("", h.Forum.CreateThread)
				threads.PATCH("/:id", h.Forum.UpdateThread)
				threads.DELETE("/:id", h.Forum.DeleteThread)
				threads.POST("/:id/reply", h.Forum.ReplyToThread)
				threads.POST("/:id/pin", h.Forum.PinThread)
				threads.POST("/:id/unpin", h.Forum.UnpinThread)
				threads.POST("/:id/lock", h.Forum.LockThread)
				threads.POST("/:id/unlock", h.Forum.UnlockThread)
			}
			authorized.POST("/replies", h.Forum.CreateReply)
			authorized.DELETE("/replies/:id", h.Forum.DeleteReply)

			// 私聊模块
			chats := authorized.Group("/chats")
			{
				chats.GET("", h.Chat.ListChats)
				chats.POST("", h.Chat.CreateChat)
				chats.GET("/:id", h.Chat.GetChat)
				chats.PATCH("/:id", h.Chat.UpdateChat)
				chats.POST("/:id/participants", h.Chat.AddParticipant)
				chats.DELETE("/:id/participants/:user_id", h.Chat.RemoveParticipant)
				chats.POST("/:id/mute", h.Chat.Mute)
				chats.GET("/:id/messages", h.Chat.ListMessages)
				chats.POST("/:id/messages", h.Chat.SendMessage)
			}

			// 管理模块（权限在 Service 层按群组判定）
			moderation := authorized.Group("/moderation")
			{
				moderation.GET("/logs", h.Moderation.ListLogs)
				moderation.GET("/bans", h.Moderation.ListBans)
				moderation.POST("/bans", h.Moderation.CreateBan)
				moderation.DELETE("/bans/:id", h.Moderation.RevokeBan)
			}

			authorized.GET("/discovery/feed", h.Discovery.Feed)

			// 平台管理（仅 staff）
			admin := authorized.Group("/admin")
			admin.Use(middleware.RequireStaff())
			{
				admin.GET("/stats", h.Admin.Stats)
				admin.GET("/export/users", h.Admin.ExportUsers)
				admin.GET("/export/moderation-logs", h.Admin.ExportModerationLogs)
			}
		}
	}

	return r
}
