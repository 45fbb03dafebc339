package concat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/reelforge/backend/internal/mediahost"
	"github.com/reelforge/backend/pkg/await"
)

// Result is a strategy's output: either a remote URL to stream from or the
// final bytes directly.
type Result struct {
	RemoteURL   string
	Bytes       []byte
	ContentType string
}

// ConcatenationStrategy is one concrete way of producing the trimmed,
// concatenated asset. Each Run is a complete attempt, not a per-clip
// fallback, and must register any intermediates it creates on the job before
// returning.
type ConcatenationStrategy interface {
	Name() string
	Run(ctx context.Context, job *JobContext) (Result, error)
}

// DriverConfig tunes the driver's polling bounds and download behavior.
type DriverConfig struct {
	AssetPoll           await.Options
	RenderPoll          await.Options
	DownloadTimeout     time.Duration
	DownloadConcurrency int
	FFmpegEnabled       bool
}

// Driver produces one final concatenated asset from an ordered clip list and
// a trim plan, trying strategies in a fixed precedence.
type Driver struct {
	host     *mediahost.Client       // nil when the media host is not configured
	renderer *mediahost.RenderClient // nil when the renderer is not configured
	cfg      DriverConfig
	logger   *zap.Logger

	// strategies overrides selection when non-nil; used by tests.
	strategies []ConcatenationStrategy
}

// NewDriver creates a driver. host and renderer may each be nil, disabling
// the strategies that need them.
func NewDriver(host *mediahost.Client, renderer *mediahost.RenderClient, cfg DriverConfig, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AssetPoll.MaxAttempts == 0 {
		cfg.AssetPoll = await.DefaultAssetOptions()
	}
	if cfg.RenderPoll.MaxAttempts == 0 {
		cfg.RenderPoll = await.DefaultRenderOptions()
	}
	return &Driver{host: host, renderer: renderer, cfg: cfg, logger: logger}
}

// selectStrategies implements the selection policy. It is decided upfront
// from the job's shape, not discovered by cascading failures:
//
//   - overlay customization present: full-template render only, since text
//     must be burned into the pixels;
//   - otherwise, with a media host configured: transformation chain, then
//     manifest (the one automatic fallback edge, both URL-based), with the
//     local fallback as last resort;
//   - otherwise: the local fallback alone (ffmpeg when enabled, else naive
//     binary concatenation).
func (d *Driver) selectStrategies(job *JobContext) []ConcatenationStrategy {
	if d.strategies != nil {
		return d.strategies
	}

	if !job.Overlay.Empty() {
		return []ConcatenationStrategy{
			&renderStrategy{renderer: d.renderer, poll: d.cfg.RenderPoll, logger: d.logger},
		}
	}

	dl := newDownloader(d.cfg.DownloadTimeout, d.cfg.DownloadConcurrency, d.logger)
	var last ConcatenationStrategy
	if d.cfg.FFmpegEnabled {
		last = &ffmpegStrategy{dl: dl, logger: d.logger}
	} else {
		last = &binaryStrategy{dl: dl, logger: d.logger}
	}

	if d.host == nil {
		return []ConcatenationStrategy{last}
	}
	return []ConcatenationStrategy{
		&chainStrategy{host: d.host, poll: d.cfg.AssetPoll, logger: d.logger},
		&manifestStrategy{host: d.host, poll: d.cfg.AssetPoll, logger: d.logger},
		last,
	}
}

// Produce runs the selected strategies in order until one succeeds. Each
// failure is logged and wrapped; when every strategy fails the driver returns
// a single consolidated JobFailedError carrying the last cause. Temporary
// assets registered by failed attempts stay on the job so cleanup still
// covers them.
func (d *Driver) Produce(ctx context.Context, job *JobContext) (Result, error) {
	var lastErr error
	var lastName string
	for _, s := range d.selectStrategies(job) {
		res, err := s.Run(ctx, job)
		if err == nil {
			d.logger.Info("strategy succeeded",
				zap.String("job_id", job.JobID.String()), zap.String("strategy", s.Name()))
			return res, nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		lastErr = &RemoteStrategyError{Strategy: s.Name(), Err: err}
		lastName = s.Name()
		d.logger.Warn("strategy failed",
			zap.String("job_id", job.JobID.String()), zap.String("strategy", s.Name()), zap.Error(err))
	}
	return Result{}, &JobFailedError{LastStrategy: lastName, Err: lastErr}
}
