// Package main runs the background export worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/reelforge/backend/config"
	"github.com/reelforge/backend/internal/catalog"
	"github.com/reelforge/backend/internal/concat"
	"github.com/reelforge/backend/internal/exports"
	"github.com/reelforge/backend/internal/mediahost"
	"github.com/reelforge/backend/internal/publish"
	"github.com/reelforge/backend/internal/realtime"
	"github.com/reelforge/backend/internal/worker"
	"github.com/reelforge/backend/pkg/await"
	"github.com/reelforge/backend/pkg/database"
	"github.com/reelforge/backend/pkg/queue"
	"github.com/reelforge/backend/pkg/redis"
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

	var host *mediahost.Client
	if cfg.MediaHost.Enabled() {
		host = mediahost.NewClient(mediahost.Config{
			BaseURL:   cfg.MediaHost.BaseURL,
			APIKey:    cfg.MediaHost.APIKey,
			APISecret: cfg.MediaHost.APISecret,
		}, logger)
	}
	var renderer *mediahost.RenderClient
	if cfg.Render.Enabled() {
		renderer = mediahost.NewRenderClient(mediahost.RenderConfig{
			BaseURL: cfg.Render.BaseURL,
			APIKey:  cfg.Render.APIKey,
		}, logger)
	}

	driver := concat.NewDriver(host, renderer, concat.DriverConfig{
		AssetPoll: await.Options{
			MaxAttempts: cfg.Export.PollAttempts,
			Interval:    time.Duration(cfg.Export.PollIntervalSec) * time.Second,
		},
		RenderPoll: await.Options{
			MaxAttempts: cfg.Export.RenderPollAttempts,
			Interval:    time.Duration(cfg.Export.RenderPollIntervalSec) * time.Second,
		},
		DownloadTimeout:     time.Duration(cfg.Export.DownloadTimeoutSec) * time.Second,
		DownloadConcurrency: cfg.Export.DownloadConcurrency,
		FFmpegEnabled:       cfg.Export.FFmpegEnabled,
	}, logger)

	var deleter concat.Deleter
	if host != nil {
		deleter = host
	}
	cleaner := concat.NewCleaner(deleter, logger)
	publisher := publish.NewPublisher(s3Client, cfg.Export.InlineMaxBytes, logger)
	progressBus := realtime.NewProgressBus(rdb.Client, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	exportRepo := exports.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	processor := worker.NewExportProcessor(
		exportRepo, catalogRepo, driver, publisher, cleaner, progressBus, jobQueue, logger)
	w := worker.New(jobQueue, processor, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := w.Run(workerCtx); err != nil {
			logger.Error("worker run", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
