// Package main runs the export wizard HTTP server with WebSocket progress and
// graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/reelforge/backend/config"
	"github.com/reelforge/backend/internal/auth"
	"github.com/reelforge/backend/internal/catalog"
	"github.com/reelforge/backend/internal/exports"
	"github.com/reelforge/backend/internal/middleware"
	"github.com/reelforge/backend/internal/realtime"
	"github.com/reelforge/backend/pkg/database"
	"github.com/reelforge/backend/pkg/queue"
	"github.com/reelforge/backend/pkg/redis"
	"github.com/reelforge/backend/pkg/response"
	"github.com/reelforge/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		ClipsBucket:          cfg.AWS.ClipsBucket,
		ExportsBucket:        cfg.AWS.ExportsBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	progressBus := realtime.NewProgressBus(rdb.Client, logger)

	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	catalogRepo := catalog.NewRepository(pool)
	catalogHandler := catalog.NewHandler(catalogRepo, s3Client, logger)

	exportRepo := exports.NewRepository(pool)
	exportHandler := exports.NewHandler(exportRepo, jobQueue, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Catalog (wizard browse)
		api.GET("/clips", catalogHandler.ListClips)
		api.GET("/categories", catalogHandler.ListCategories)
		api.GET("/platforms", catalogHandler.ListPlatforms)

		// Catalog management
		api.POST("/admin/clips", middleware.RequireRole("admin"), catalogHandler.UploadClip)
		api.POST("/admin/clips/:id/toggle", middleware.RequireRole("admin"), catalogHandler.ToggleClip)
		api.DELETE("/admin/clips/:id", middleware.RequireRole("admin"), catalogHandler.DeleteClip)
		api.POST("/admin/categories", middleware.RequireRole("admin"), catalogHandler.CreateCategory)

		// Exports
		api.POST("/exports", exportHandler.Create)
		api.GET("/exports", exportHandler.List)
		api.GET("/exports/:id", exportHandler.Get)
		api.POST("/exports/:id/cancel", exportHandler.Cancel)
	}

	// WebSocket progress (no Authorization header; browsers cannot set one on
	// a WebSocket handshake)
	router.GET("/ws/exports/:id", realtime.ServeProgress(progressBus, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
