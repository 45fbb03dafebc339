package exports

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reelforge/backend/internal/middleware"
	"github.com/reelforge/backend/internal/models"
	"github.com/reelforge/backend/internal/platform"
	"github.com/reelforge/backend/pkg/queue"
	"github.com/reelforge/backend/pkg/response"
)

// CreateRequest is the body for POST /exports.
type CreateRequest struct {
	Platform       string          `json:"platform" binding:"required"`
	TargetDuration float64         `json:"target_duration" binding:"required"`
	ClipIDs        []string        `json:"clip_ids" binding:"required"`
	Overlay        *models.Overlay `json:"overlay"`
}

// Handler handles export job HTTP endpoints.
type Handler struct {
	repo   *Repository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewHandler creates an exports handler.
func NewHandler(repo *Repository, q *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, queue: q, logger: logger}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// Create handles POST /exports. Validates the request, persists a pending job
// and enqueues it for the worker. The response is 202: the job completes
// asynchronously and the caller follows progress over the websocket or by
// polling GET /exports/:id.
func (h *Handler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if len(req.ClipIDs) == 0 {
		response.BadRequest(c, "clip_ids must not be empty")
		return
	}
	spec, err := platform.Get(req.Platform)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.TargetDuration <= 0 {
		response.BadRequest(c, "target_duration must be positive")
		return
	}
	if spec.MaxDurationSec > 0 && req.TargetDuration > float64(spec.MaxDurationSec) {
		response.BadRequest(c, "target_duration exceeds platform maximum")
		return
	}

	job := &models.ExportJob{
		UserID:         userID,
		Platform:       req.Platform,
		TargetDuration: req.TargetDuration,
		ClipIDs:        req.ClipIDs,
		Overlay:        req.Overlay,
		Status:         models.ExportStatusPending,
	}
	if err := h.repo.Create(c.Request.Context(), job); err != nil {
		h.logger.Error("create export job failed", zap.Error(err))
		response.Internal(c, "failed to create export")
		return
	}
	if err := h.queue.EnqueueExport(c.Request.Context(), queue.ExportPayload{JobID: job.ID}); err != nil {
		h.logger.Error("enqueue export failed", zap.Error(err), zap.String("export_id", job.ID.String()))
		if ferr := h.repo.MarkFailed(c.Request.Context(), job.ID, "failed to enqueue export"); ferr != nil {
			h.logger.Error("mark failed after enqueue error", zap.Error(ferr))
		}
		response.Internal(c, "failed to enqueue export")
		return
	}
	response.Accepted(c, job)
}

// Get handles GET /exports/:id.
func (h *Handler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid export id")
		return
	}
	job, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get export failed", zap.Error(err))
		response.Internal(c, "failed to load export")
		return
	}
	if job == nil || job.UserID != userID {
		response.NotFound(c, "export not found")
		return
	}
	response.OK(c, job)
}

// List handles GET /exports. Optional query param: limit.
func (h *Handler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	jobs, err := h.repo.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.Error("list exports failed", zap.Error(err))
		response.Internal(c, "failed to list exports")
		return
	}
	if jobs == nil {
		jobs = []models.ExportJob{}
	}
	response.OK(c, jobs)
}

// Cancel handles POST /exports/:id/cancel. Sets the cancellation flag the
// worker polls; a job that already finished is reported as a conflict.
func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid export id")
		return
	}
	job, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get export failed", zap.Error(err))
		response.Internal(c, "failed to load export")
		return
	}
	if job == nil || job.UserID != userID {
		response.NotFound(c, "export not found")
		return
	}
	if job.Status == models.ExportStatusCompleted || job.Status == models.ExportStatusFailed {
		response.Conflict(c, "export already finished")
		return
	}
	if err := h.queue.RequestCancel(c.Request.Context(), id); err != nil {
		h.logger.Error("request cancel failed", zap.Error(err), zap.String("export_id", id.String()))
		response.Internal(c, "failed to request cancellation")
		return
	}
	response.OK(c, gin.H{"id": id, "cancel_requested": true})
}
