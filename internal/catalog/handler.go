package catalog

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reelforge/backend/internal/models"
	"github.com/reelforge/backend/internal/platform"
	"github.com/reelforge/backend/pkg/response"
	"github.com/reelforge/backend/pkg/storage"
)

// Handler handles catalog HTTP endpoints.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a catalog handler.
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, s3: s3, logger: logger}
}

// ListClips handles GET /clips. Optional query params: platform, category_id.
func (h *Handler) ListClips(c *gin.Context) {
	plat := c.Query("platform")
	if plat != "" {
		if _, err := platform.Get(plat); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	var categoryID *uuid.UUID
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid category_id")
			return
		}
		categoryID = &id
	}
	clips, err := h.repo.ListActive(c.Request.Context(), plat, categoryID)
	if err != nil {
		h.logger.Error("list clips failed", zap.Error(err))
		response.Internal(c, "failed to list clips")
		return
	}
	if clips == nil {
		clips = []models.Clip{}
	}
	response.OK(c, clips)
}

// UploadClip handles POST /admin/clips. Multipart form with a "file" part and
// metadata fields; the file streams to S3 without buffering in memory.
func (h *Handler) UploadClip(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file")
		return
	}
	defer file.Close()

	if header.Size > storage.MaxClipFileSize {
		response.BadRequest(c, "file exceeds maximum size")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !storage.ValidateClipFileType(contentType, header.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}

	name := c.PostForm("name")
	if name == "" {
		response.BadRequest(c, "name is required")
		return
	}
	duration, err := strconv.ParseFloat(c.PostForm("duration_seconds"), 64)
	if err != nil || duration <= 0 {
		response.BadRequest(c, "duration_seconds must be a positive number")
		return
	}
	plat := c.PostForm("platform")
	if plat != "" {
		if _, err := platform.Get(plat); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	var categoryID *uuid.UUID
	if raw := c.PostForm("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid category_id")
			return
		}
		categoryID = &id
	}

	key := storage.ClipKey(uuid.New().String(), header.Filename)
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(header.Filename)
	}
	url, err := h.s3.Upload(c.Request.Context(), h.s3.ClipsBucket(), key, contentType, file, header.Size, false)
	if err != nil {
		h.logger.Error("clip upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "upload failed")
		return
	}

	clip := &models.Clip{
		Name:            name,
		DurationSeconds: duration,
		HostedURL:       url,
		Platform:        plat,
		CategoryID:      categoryID,
		IsActive:        true,
	}
	if err := h.repo.Create(c.Request.Context(), clip); err != nil {
		h.logger.Error("clip insert failed", zap.Error(err))
		response.Internal(c, "failed to save clip")
		return
	}
	response.Created(c, clip)
}

// ToggleClip handles POST /admin/clips/:id/toggle.
func (h *Handler) ToggleClip(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid clip id")
		return
	}
	active, err := h.repo.Toggle(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "clip not found")
		return
	}
	response.OK(c, gin.H{"id": id, "is_active": active})
}

// DeleteClip handles DELETE /admin/clips/:id.
func (h *Handler) DeleteClip(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid clip id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("clip delete failed", zap.Error(err), zap.String("id", id.String()))
		response.Internal(c, "failed to delete clip")
		return
	}
	response.NoContent(c)
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(c *gin.Context) {
	cats, err := h.repo.ListCategories(c.Request.Context())
	if err != nil {
		h.logger.Error("list categories failed", zap.Error(err))
		response.Internal(c, "failed to list categories")
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	response.OK(c, cats)
}

// CreateCategory handles POST /admin/categories.
func (h *Handler) CreateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cat := &models.Category{Name: req.Name}
	if err := h.repo.CreateCategory(c.Request.Context(), cat); err != nil {
		h.logger.Error("create category failed", zap.Error(err))
		response.Internal(c, "failed to create category")
		return
	}
	response.Created(c, cat)
}

// ListPlatforms handles GET /platforms.
func (h *Handler) ListPlatforms(c *gin.Context) {
	response.OK(c, platform.Supported())
}
