package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/viefmoon/bite-sub001/internal/activity"
	"github.com/viefmoon/bite-sub001/internal/client/cloud"
	"github.com/viefmoon/bite-sub001/internal/config"
	"github.com/viefmoon/bite-sub001/internal/db"
	"github.com/viefmoon/bite-sub001/internal/handler"
	"github.com/viefmoon/bite-sub001/internal/logger"
	gormrepository "github.com/viefmoon/bite-sub001/internal/repository/gorm"
	"github.com/viefmoon/bite-sub001/internal/service"

	_ "github.com/viefmoon/bite-sub001/docs"
)

func main() {
	cfgPath := os.Getenv("BITE_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("BITE_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}
	loc, err := cfg.Sync.Location()
	if err != nil {
		logger.Fatal("invalid sync timezone", zap.Error(err))
	}

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	feed := newActivityStore(cfg.Activity, logger)
	tracker := service.NewStatusTracker()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		orchestrator *service.SyncOrchestrator
		scheduler    *service.SyncScheduler
		notifier     *service.RealtimeNotifier
	)
	if cfg.Sync.Enabled {
		cloudHTTP := &http.Client{Timeout: cfg.Sync.HTTPTimeout}
		cloudClient := cloud.NewClient(cloudHTTP, cfg.Sync.RemoteURL, cfg.Sync.APIKey)

		orders := &service.OrderIngestor{
			Repo:     store,
			Cloud:    cloudClient,
			Counter:  &service.DailyCounterAllocator{Repo: store, Location: loc},
			Activity: feed,
			Logger:   logger,
		}
		customers := &service.CustomerReconciler{
			Repo:      store,
			Runs:      store,
			Cloud:     cloudClient,
			Activity:  feed,
			Logger:    logger,
			PushBatch: cfg.Sync.CustomerPushBatch,
		}
		publisher := &service.MenuConfigPublisher{
			Menu:     store,
			Config:   store,
			Cloud:    cloudClient,
			Activity: feed,
			Logger:   logger,
		}
		orchestrator = &service.SyncOrchestrator{
			Runs:       store,
			Orders:     orders,
			Customers:  customers,
			MenuConfig: publisher,
			Stats:      tracker,
			Logger:     logger,
		}
		scheduler = &service.SyncScheduler{
			Sync:       orchestrator,
			Interval:   cfg.Sync.Interval(),
			RunOnStart: cfg.Sync.RunOnStart,
			Logger:     logger,
		}
		if err := scheduler.Start(ctx); err != nil {
			logger.Fatal("sync scheduler start failed", zap.Error(err))
		}

		if cfg.Sync.WebSocketEnabled {
			socketURL, err := cloud.SocketURL(cfg.Sync.RemoteURL)
			if err != nil {
				logger.Fatal("invalid remote url for websocket", zap.Error(err))
			}
			ws := cfg.Sync.WebSocket
			notifier = &service.RealtimeNotifier{
				Source: cloud.NewEventStream(cloud.EventStreamOptions{
					URL:               socketURL,
					APIKey:            cfg.Sync.APIKey,
					DialTimeout:       ws.DialTimeout,
					HeartbeatInterval: ws.HeartbeatInterval,
					PingTimeout:       ws.PingTimeout,
					BackoffMin:        ws.BackoffMin,
					BackoffMax:        ws.BackoffMax,
					StableAfter:       ws.StableAfter,
					MaxAttempts:       ws.MaxAttempts,
					Logger:            logger,
				}),
				Orders: orders,
				Stats:  tracker,
				Logger: logger,
			}
			if err := notifier.Start(ctx); err != nil {
				logger.Warn("realtime notifier start failed", zap.Error(err))
			}
		}
		logger.Info("sync engine enabled",
			zap.String("remote_url", cfg.Sync.RemoteURL),
			zap.Int("interval_minutes", cfg.Sync.IntervalMinutes),
			zap.Bool("websocket", cfg.Sync.WebSocketEnabled),
		)
	} else {
		logger.Info("sync engine disabled")
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	handler.RegisterDocs(engine)
	syncHandler := &handler.SyncLocalHandler{
		Status:   service.NewStatusService(cfg.Sync, tracker, notifier, scheduler, orchestrator, store),
		Activity: feed,
		Runs:     store,
		Logger:   logger,
	}
	if scheduler != nil {
		syncHandler.Trigger = scheduler
	}
	syncHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	notifier.Stop()
	scheduler.Stop()
	if closer, ok := feed.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}

func newActivityStore(cfg config.ActivityConfig, logger *zap.Logger) activity.Store {
	if !strings.EqualFold(strings.TrimSpace(cfg.Backend), "redis") {
		return activity.NewMemoryStore(cfg.Capacity)
	}
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		logger.Warn("activity redis backend selected without an address; using memory")
		return activity.NewMemoryStore(cfg.Capacity)
	}
	store := activity.NewRedisStore(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, cfg.RedisKey, cfg.Capacity)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := store.Client.Ping(ctx).Err(); err != nil {
		logger.Warn("activity redis unreachable; using memory", zap.Error(err))
		_ = store.Close()
		return activity.NewMemoryStore(cfg.Capacity)
	}
	logger.Info("activity feed on redis", zap.String("addr", cfg.RedisAddr), zap.String("key", cfg.RedisKey))
	return store
}
