package main

import (
	"PhotoAlbum/config"
	"PhotoAlbum/internal/api"
	"PhotoAlbum/internal/session"
	"PhotoAlbum/pkg/auth"
	"PhotoAlbum/pkg/catalog"
	"PhotoAlbum/pkg/database/backend"
	"PhotoAlbum/pkg/logger"
	"PhotoAlbum/pkg/notify"
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configDir := flag.String("config", ".", "config.yaml 所在目录")
	flag.Parse()

	// --- 1. 初始化 ---
	if err := config.LoadConfig(*configDir, true); err != nil {
		log.Fatalf("FATAL: 无法加载配置: %v", err)
	}
	if err := logger.InitLogger(); err != nil {
		log.Fatalf("FATAL: 无法初始化日志: %v", err)
	}
	slog.Info("应用启动", "database", config.C.Database.Type)
	defer slog.Info("应用关闭")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- 2. 准备存储 ---
	db, err := backend.Open(config.C.Database)
	if err != nil {
		slog.Error("FATAL: 无法创建存储", "error", err)
		os.Exit(1)
	}
	// 启动时数据库不可用不是致命错误，请求会返回 503，连接在之后的调用中重试
	if err := db.EnsureIndexes(ctx); err != nil {
		slog.Warn("无法创建/验证数据库索引", "error", err)
	} else {
		slog.Info("数据库索引已验证")
	}

	// --- 3. 创建核心服务实例 ---
	outbox := notify.NewOutbox(slog.Default())
	svc := catalog.New(db, outbox, slog.Default())
	sessions := session.NewManager(config.C.Session.TTL)
	go sweepSessions(ctx, sessions, time.Minute)

	// --- 4. 设置并启动HTTP服务器 ---
	router := api.RegisterRoutes(api.Dependencies{
		Catalog:  svc,
		Auth:     auth.NewService(db.Users(), db.Sequences()),
		Sessions: sessions,
		Outbox:   outbox,
		Metrics:  api.NewMetrics(),
		Server:   config.C.Server,
		Upload:   config.C.Upload,
		Logger:   slog.Default(),
	})

	server := &http.Server{
		Addr:         config.C.Server.Port,
		Handler:      router,
		ReadTimeout:  config.C.Server.Timeout,
		WriteTimeout: config.C.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP服务器关闭失败", "error", err)
		}
	}()

	slog.Info("HTTP服务器正在启动...", "地址", config.C.Server.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("无法启动HTTP服务器", "error", err)
		os.Exit(1)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Close(closeCtx); err != nil {
		slog.Error("关闭存储连接失败", "error", err)
	}
}

func sweepSessions(ctx context.Context, m *session.Manager, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.Debug("已清理过期会话", "count", n)
			}
		}
	}
}
