// Package main is exportctl, the operational CLI for the export pipeline:
// inspect jobs, re-enqueue stuck ones and sweep leftover temp assets.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/reelforge/backend/config"
	"github.com/reelforge/backend/internal/concat"
	"github.com/reelforge/backend/internal/exports"
	"github.com/reelforge/backend/internal/mediahost"
	"github.com/reelforge/backend/internal/models"
	"github.com/reelforge/backend/pkg/database"
	"github.com/reelforge/backend/pkg/queue"
	"github.com/reelforge/backend/pkg/redis"
)

func main() {
	root := &cobra.Command{
		Use:           "exportctl",
		Short:         "Operational tooling for the export pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(statusCmd(), enqueueCmd(), sweepCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// deps holds the shared clients the subcommands wire up lazily.
type deps struct {
	cfg    *config.Config
	repo   *exports.Repository
	queue  *queue.Queue
	logger *zap.Logger
	close  func()
}

func connect(ctx context.Context, needRedis bool) (*deps, error) {
	logger := newLogger()
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	d := &deps{
		cfg:    cfg,
		repo:   exports.NewRepository(pool),
		logger: logger,
		close:  pool.Close,
	}
	if needRedis {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		d.queue = queue.NewQueue(rdb.Client, logger)
		d.close = func() {
			rdb.Close()
			pool.Close()
		}
	}
	return d, nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <export-id>",
		Short: "Print an export job as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid export id: %w", err)
			}
			ctx := cmd.Context()
			d, err := connect(ctx, false)
			if err != nil {
				return err
			}
			defer d.close()
			job, err := d.repo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if job == nil {
				return fmt.Errorf("export %s not found", id)
			}
			out, err := json.MarshalIndent(job, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func enqueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <export-id>",
		Short: "Re-enqueue an export job that never reached a worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid export id: %w", err)
			}
			ctx := cmd.Context()
			d, err := connect(ctx, true)
			if err != nil {
				return err
			}
			defer d.close()
			job, err := d.repo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if job == nil {
				return fmt.Errorf("export %s not found", id)
			}
			if err := d.queue.EnqueueExport(ctx, queue.ExportPayload{JobID: id}); err != nil {
				return err
			}
			fmt.Printf("enqueued export %s (status %s)\n", id, job.Status)
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete leftover temp assets from finished jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()
			d, err := connect(ctx, false)
			if err != nil {
				return err
			}
			defer d.close()

			var deleter concat.Deleter
			if d.cfg.MediaHost.Enabled() {
				deleter = mediahost.NewClient(mediahost.Config{
					BaseURL:   d.cfg.MediaHost.BaseURL,
					APIKey:    d.cfg.MediaHost.APIKey,
					APISecret: d.cfg.MediaHost.APISecret,
				}, d.logger)
			}
			cleaner := concat.NewCleaner(deleter, d.logger)

			jobs, err := d.repo.ListUncleaned(ctx, limit)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Println("nothing to sweep")
				return nil
			}
			var deleted, failed int
			for _, job := range jobs {
				report := cleaner.Cleanup(ctx, job.TempAssets)
				deleted += len(report.Deleted)
				failed += len(report.Failed)
				keep := make([]models.TempAsset, 0, len(report.Failed))
				for _, a := range job.TempAssets {
					for _, id := range report.Failed {
						if a.ID == id {
							keep = append(keep, a)
							break
						}
					}
				}
				if err := d.repo.SaveTempAssets(ctx, job.ID, keep); err != nil {
					return fmt.Errorf("save temp assets for %s: %w", job.ID, err)
				}
			}
			fmt.Printf("swept %d jobs: %d assets deleted, %d still failing\n", len(jobs), deleted, failed)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum jobs to sweep")
	return cmd
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
