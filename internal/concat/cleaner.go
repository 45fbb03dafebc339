package concat

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/reelforge/backend/internal/mediahost"
	"github.com/reelforge/backend/internal/models"
	"github.com/reelforge/backend/pkg/await"
)

// Deleter removes one remote asset. *mediahost.Client satisfies it.
type Deleter interface {
	Delete(ctx context.Context, publicID string, kind mediahost.AssetKind) error
}

// Cleaner deletes intermediate assets best-effort after both the success and
// failure paths of a job. Its failures are logged and never escalate: the
// user-visible result depends only on whether the final asset was produced.
type Cleaner struct {
	deleter  Deleter
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
}

// NewCleaner creates a cleaner. deleter may be nil when no remote backend is
// configured (nothing remote can have been registered).
func NewCleaner(deleter Deleter, logger *zap.Logger) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{deleter: deleter, attempts: 3, backoff: 500 * time.Millisecond, logger: logger}
}

// CleanupReport lists the outcome per asset id.
type CleanupReport struct {
	Deleted []string
	Failed  []string
}

// Cleanup deletes every registered asset with per-asset retry. "Not found"
// counts as deleted, so running cleanup twice over the same set is safe and
// the second pass reports full success.
func (c *Cleaner) Cleanup(ctx context.Context, assets []models.TempAsset) CleanupReport {
	var report CleanupReport
	for _, a := range assets {
		if c.deleter == nil {
			report.Deleted = append(report.Deleted, a.ID)
			continue
		}
		a := a
		err := await.Retry(ctx, c.attempts, c.backoff, func(ctx context.Context) error {
			err := c.deleter.Delete(ctx, a.ID, mediahost.AssetKind(a.Kind))
			if errors.Is(err, mediahost.ErrNotFound) {
				return nil
			}
			return err
		})
		if err != nil {
			c.logger.Warn("temp asset cleanup failed",
				zap.String("asset_id", a.ID), zap.String("kind", a.Kind), zap.Error(err))
			report.Failed = append(report.Failed, a.ID)
			continue
		}
		report.Deleted = append(report.Deleted, a.ID)
	}
	return report
}
