// Package worker consumes export jobs from the queue and runs the
// concatenation pipeline: resolve, allocate, produce, publish, clean up.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reelforge/backend/internal/concat"
	"github.com/reelforge/backend/internal/models"
	"github.com/reelforge/backend/internal/platform"
	"github.com/reelforge/backend/internal/publish"
	"github.com/reelforge/backend/internal/realtime"
	"github.com/reelforge/backend/pkg/queue"
)

// errCancelled marks a user-requested abort, distinguished from pipeline
// failures in the persisted error message.
var errCancelled = errors.New("cancelled by user")

type jobStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ExportJob, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateProgress(ctx context.Context, id uuid.UUID, percent int, stepLabel string) error
	MarkCompleted(ctx context.Context, id uuid.UUID, outputURL, filename string) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	SaveTempAssets(ctx context.Context, id uuid.UUID, assets []models.TempAsset) error
}

type clipStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]models.Clip, error)
}

type producer interface {
	Produce(ctx context.Context, job *concat.JobContext) (concat.Result, error)
}

type resultPublisher interface {
	Publish(ctx context.Context, meta publish.JobMeta, payload publish.Payload) (publish.Result, error)
}

type progressPublisher interface {
	Publish(jobID uuid.UUID, ev realtime.ProgressEvent)
}

type cancelChecker interface {
	CancelRequested(ctx context.Context, exportID uuid.UUID) bool
}

// ExportProcessor runs one export job end to end.
type ExportProcessor struct {
	jobs       jobStore
	clips      clipStore
	driver     producer
	publisher  resultPublisher
	cleaner    *concat.Cleaner
	bus        progressPublisher
	cancels    cancelChecker
	logger     *zap.Logger
	cancelPoll time.Duration
}

// NewExportProcessor creates an export processor. bus and cancels may be nil.
func NewExportProcessor(jobs jobStore, clips clipStore, driver producer, publisher resultPublisher, cleaner *concat.Cleaner, bus progressPublisher, cancels cancelChecker, logger *zap.Logger) *ExportProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportProcessor{
		jobs:       jobs,
		clips:      clips,
		driver:     driver,
		publisher:  publisher,
		cleaner:    cleaner,
		bus:        bus,
		cancels:    cancels,
		logger:     logger,
		cancelPoll: 2 * time.Second,
	}
}

func (p *ExportProcessor) emit(jobID uuid.UUID, ev realtime.ProgressEvent) {
	if p.bus != nil {
		ev.JobID = jobID.String()
		p.bus.Publish(jobID, ev)
	}
}

// watchCancel cancels the pipeline context when the user flags the job.
func (p *ExportProcessor) watchCancel(ctx context.Context, jobID uuid.UUID, cancel context.CancelCauseFunc) {
	if p.cancels == nil {
		return
	}
	ticker := time.NewTicker(p.cancelPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.cancels.CancelRequested(ctx, jobID) {
				cancel(errCancelled)
				return
			}
		}
	}
}

// Process loads and runs one export job. The returned error signals a
// transient infrastructure failure worth re-queueing; pipeline failures are
// persisted on the job and absorbed here.
func (p *ExportProcessor) Process(ctx context.Context, payload queue.ExportPayload) error {
	job, err := p.jobs.GetByID(ctx, payload.JobID)
	if err != nil {
		return fmt.Errorf("load export job: %w", err)
	}
	if job == nil {
		p.logger.Warn("export job not found, dropping", zap.String("export_id", payload.JobID.String()))
		return nil
	}
	if job.Status == models.ExportStatusCompleted || job.Status == models.ExportStatusFailed {
		p.logger.Info("export job already finished, skipping",
			zap.String("export_id", job.ID.String()), zap.String("status", job.Status))
		return nil
	}
	if p.cancels != nil && p.cancels.CancelRequested(ctx, job.ID) {
		return p.fail(ctx, job, errCancelled, nil)
	}

	if err := p.jobs.UpdateStatus(ctx, job.ID, models.ExportStatusInProgress); err != nil {
		return fmt.Errorf("mark in_progress: %w", err)
	}
	p.emit(job.ID, realtime.ProgressEvent{Status: models.ExportStatusInProgress, Percent: 0})

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	go p.watchCancel(runCtx, job.ID, cancel)

	jctx, err := p.prepare(runCtx, job)
	if err != nil {
		return p.fail(ctx, job, err, jctx)
	}

	result, err := p.driver.Produce(runCtx, jctx)
	if err != nil {
		if runCtx.Err() != nil && errors.Is(context.Cause(runCtx), errCancelled) {
			err = errCancelled
		}
		return p.fail(ctx, job, err, jctx)
	}

	// Cleanup and publish run on the parent context so a late cancel flag
	// cannot strand the produced asset.
	if err := p.jobs.UpdateStatus(ctx, job.ID, models.ExportStatusReadyToConcatenate); err != nil {
		p.logger.Warn("status update failed", zap.Error(err), zap.String("export_id", job.ID.String()))
	}
	jctx.Emit(concat.PhaseFinalizing, 85)

	pub, err := p.publisher.Publish(ctx, publish.JobMeta{
		JobID:     job.ID,
		CreatedAt: job.CreatedAt,
		Platform:  job.Platform,
		ClipCount: len(jctx.Clips),
	}, publish.Payload{
		RemoteURL:   result.RemoteURL,
		Bytes:       result.Bytes,
		ContentType: result.ContentType,
	})
	if err != nil {
		return p.fail(ctx, job, err, jctx)
	}

	if err := p.jobs.MarkCompleted(ctx, job.ID, pub.PublicURL, pub.Filename); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	p.cleanup(ctx, job.ID, jctx)
	p.emit(job.ID, realtime.ProgressEvent{
		Status:  models.ExportStatusCompleted,
		Percent: 100,
		URL:     pub.PublicURL,
	})
	p.logger.Info("export completed",
		zap.String("export_id", job.ID.String()),
		zap.String("filename", pub.Filename),
		zap.Bool("inline", pub.Inline),
		zap.Int64("size", pub.Size))
	return nil
}

// prepare resolves the clip selection and computes the trim plan, returning a
// ready job context. Nothing remote is created here, so an error leaves no
// intermediates behind.
func (p *ExportProcessor) prepare(ctx context.Context, job *models.ExportJob) (*concat.JobContext, error) {
	spec, err := platform.Get(job.Platform)
	if err != nil {
		return nil, err
	}

	// High-water mark: a fallback strategy restarts its own phase sequence,
	// so raw percents can go backwards. Every consumer (the row and the bus)
	// must see a non-decreasing stream.
	var highWater int
	emit := func(ev concat.PhaseEvent) {
		if ev.Percent < highWater {
			ev.Percent = highWater
		} else {
			highWater = ev.Percent
		}
		if err := p.jobs.UpdateProgress(ctx, job.ID, ev.Percent, string(ev.Phase)); err != nil {
			p.logger.Warn("progress update failed", zap.Error(err), zap.String("export_id", job.ID.String()))
		}
		p.emit(job.ID, realtime.ProgressEvent{
			Status:  models.ExportStatusInProgress,
			Phase:   string(ev.Phase),
			Percent: ev.Percent,
			Label:   string(ev.Phase),
		})
	}

	emit(concat.PhaseEvent{Phase: concat.PhaseResolving, Percent: 5})
	snapshot, err := p.clips.GetByIDs(ctx, job.ClipIDs)
	if err != nil {
		return nil, fmt.Errorf("load catalog snapshot: %w", err)
	}
	refs, err := concat.Resolve(job.ClipIDs, snapshot, p.logger)
	if err != nil {
		return nil, err
	}

	emit(concat.PhaseEvent{Phase: concat.PhaseTrimming, Percent: 25})
	plan, err := concat.Allocate(refs, job.TargetDuration)
	if err != nil {
		return nil, err
	}

	return concat.NewJobContext(job.ID, job.CreatedAt, spec, refs, plan, job.Overlay, emit), nil
}

// fail persists the failure, notifies subscribers and cleans up. Always
// returns nil: a job that reached the pipeline is never re-queued, since its
// failure modes (bad selection, exhausted strategies, storage) do not heal on
// redelivery.
func (p *ExportProcessor) fail(ctx context.Context, job *models.ExportJob, cause error, jctx *concat.JobContext) error {
	p.logger.Warn("export failed", zap.String("export_id", job.ID.String()), zap.Error(cause))
	if err := p.jobs.MarkFailed(ctx, job.ID, cause.Error()); err != nil {
		p.logger.Error("mark failed errored", zap.Error(err), zap.String("export_id", job.ID.String()))
	}
	if jctx != nil {
		p.cleanup(ctx, job.ID, jctx)
	}
	p.emit(job.ID, realtime.ProgressEvent{
		Status: models.ExportStatusFailed,
		Error:  cause.Error(),
	})
	return nil
}

// cleanup deletes the job's intermediate assets and persists whatever the
// cleaner could not remove so a later sweep can retry.
func (p *ExportProcessor) cleanup(ctx context.Context, jobID uuid.UUID, jctx *concat.JobContext) {
	assets := jctx.TempAssets()
	if len(assets) == 0 {
		if err := p.jobs.SaveTempAssets(ctx, jobID, nil); err != nil {
			p.logger.Warn("save temp assets failed", zap.Error(err))
		}
		return
	}
	report := p.cleaner.Cleanup(ctx, assets)
	remaining := make([]models.TempAsset, 0, len(report.Failed))
	for _, a := range assets {
		for _, id := range report.Failed {
			if a.ID == id {
				remaining = append(remaining, a)
				break
			}
		}
	}
	if err := p.jobs.SaveTempAssets(ctx, jobID, remaining); err != nil {
		p.logger.Warn("save temp assets failed", zap.Error(err), zap.String("export_id", jobID.String()))
	}
	p.logger.Info("temp asset cleanup",
		zap.String("export_id", jobID.String()),
		zap.Int("deleted", len(report.Deleted)),
		zap.Int("failed", len(report.Failed)))
}

type jobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Worker pulls jobs off the queue and dispatches them by type.
type Worker struct {
	queue  jobQueue
	proc   *ExportProcessor
	logger *zap.Logger
}

// New creates a worker.
func New(q jobQueue, proc *ExportProcessor, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{queue: q, proc: proc, logger: logger}
}

// Run consumes jobs until ctx is cancelled. Transient processing errors
// re-queue the job with backoff; after MaxRetries it lands in the DLQ.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started")
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("worker stopping")
				return nil
			}
			w.logger.Error("dequeue failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}
		if err := w.dispatch(ctx, job); err != nil {
			w.logger.Warn("job processing failed", zap.String("job_id", job.ID), zap.Error(err))
			if job.Attempt < queue.MaxRetries {
				select {
				case <-ctx.Done():
					w.requeue(ctx, job)
					return nil
				case <-time.After(queue.RetryBackoff):
				}
			}
			w.requeue(ctx, job)
		}
	}
}

// requeue hands a popped job back to the queue. On shutdown the worker's
// context is already done, so a short background context carries the Retry
// through; the job would otherwise be lost.
func (w *Worker) requeue(ctx context.Context, job *queue.Job) {
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := w.queue.Retry(ctx, job); err != nil {
		w.logger.Error("retry failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (w *Worker) dispatch(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeExport:
		var payload queue.ExportPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			w.logger.Warn("invalid export payload, dropping", zap.String("job_id", job.ID), zap.Error(err))
			return nil
		}
		return w.proc.Process(ctx, payload)
	default:
		w.logger.Warn("unknown job type, dropping", zap.String("type", string(job.Type)))
		return nil
	}
}
