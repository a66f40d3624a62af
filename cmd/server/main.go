package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/j-neeley/DawgPound/config"
	_ "github.com/j-neeley/DawgPound/docs"
	"github.com/j-neeley/DawgPound/internal/api/handler"
	"github.com/j-neeley/DawgPound/internal/api/router"
	"github.com/j-neeley/DawgPound/internal/api/validation"
	"github.com/j-neeley/DawgPound/internal/realtime"
	"github.com/j-neeley/DawgPound/internal/repository"
	"github.com/j-neeley/DawgPound/internal/service"
	"github.com/j-neeley/DawgPound/pkg/database"
	"github.com/j-neeley/DawgPound/pkg/events"
	"github.com/j-neeley/DawgPound/pkg/jwt"
	applogger "github.com/j-neeley/DawgPound/pkg/logger"
	"github.com/j-neeley/DawgPound/pkg/mail"
	"github.com/j-neeley/DawgPound/pkg/metrics"
	"github.com/j-neeley/DawgPound/pkg/redis"
	"github.com/j-neeley/DawgPound/pkg/telemetry"
)

// @title                       DawgPound API
// @version                     1.0
// @description                 University social network: accounts, friends, groups, forums, chats and moderation.
// @host                        localhost:8080
// @BasePath                    /api/v1
// @securityDefinitions.apikey  SessionCookie
// @in                          cookie
// @name                        dawgpound_session
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	configPath := flag.String("config", "", "配置文件路径")
	rollback := flag.Int("rollback", 0, "回滚最近 N 个迁移后退出")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 链路追踪
	tp, shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, logger)
	if err != nil {
		logger.Fatal("初始化链路追踪失败", zap.Error(err))
	}

	// 4. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if *rollback > 0 {
		if err := database.RollbackMigrations(sqlDB, *rollback, logger); err != nil {
			logger.Fatal("数据库回滚失败", zap.Error(err))
		}
		return
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 5. 连接 Redis（可选：失败时会话吊销与限流降级放行）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，会话吊销与限流将不可用", zap.Error(err))
		rdb = nil
	}

	// 6. 指标与领域事件
	m := metrics.New()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		kp, err := events.NewKafkaPublisher(cfg.Kafka, logger)
		if err != nil {
			logger.Warn("Kafka 初始化失败，领域事件将不会投递", zap.Error(err))
		} else {
			publisher = kp
		}
	}
	publisher = events.Instrument(publisher, m.EventEmitted)

	// 7. 实时推送 Hub
	hub := realtime.NewHub(cfg.WebSocket, cfg.Server.CORS.AllowOrigins, m, logger)

	// 8. 依赖注入: Repository → Service → Handler
	if err := validation.Register(cfg.Auth.AllowedEmailDomains); err != nil {
		logger.Fatal("注册校验规则失败", zap.Error(err))
	}

	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)

	deps := service.Dependencies{
		Publisher: publisher,
		Notifier:  hub,
		Mailer:    mail.NewMailer(cfg.Mail, cfg.Server.BaseURL, logger),
	}
	routeDeps := router.Deps{JWT: jwtMgr, Metrics: m, Tracer: tp}
	if rdb != nil {
		deps.Sessions = rdb
		routeDeps.Sessions = rdb
		routeDeps.Limiter = rdb
	}

	svc := service.NewService(cfg, repo, jwtMgr, logger, deps)
	routeDeps.Verifier = svc.Account
	routeDeps.Privileges = svc.Account
	h := handler.NewHandler(cfg, svc, hub, logger)

	// 9. 初始化路由
	engine := router.Setup(cfg, h, routeDeps, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// 10. Hub 与 HTTP 服务器同生共死，收到信号后优雅关闭
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP 服务器异常: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("开始优雅关闭...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("服务器运行异常", zap.Error(err))
	}

	// 释放外部资源
	publisher.Close()
	if rdb != nil {
		rdb.Close()
	}
	sqlDB.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("关闭链路追踪失败", zap.Error(err))
	}

	logger.Info("服务器已关闭")
}
