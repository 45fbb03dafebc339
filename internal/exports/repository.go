package exports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelforge/backend/internal/models"
)

// Repository handles export job persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an export jobs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const jobColumns = `id, user_id, platform, target_duration, clip_ids, overlay, status,
	progress, step_label, output_url, filename, error_message, temp_assets, created_at, updated_at`

func scanJob(row pgx.Row) (*models.ExportJob, error) {
	var (
		j          models.ExportJob
		clipIDs    []byte
		overlay    []byte
		tempAssets []byte
	)
	err := row.Scan(&j.ID, &j.UserID, &j.Platform, &j.TargetDuration, &clipIDs, &overlay, &j.Status,
		&j.Progress, &j.StepLabel, &j.OutputURL, &j.Filename, &j.ErrorMessage, &tempAssets, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(clipIDs, &j.ClipIDs); err != nil {
		return nil, fmt.Errorf("decode clip_ids: %w", err)
	}
	if len(overlay) > 0 && string(overlay) != "null" {
		j.Overlay = &models.Overlay{}
		if err := json.Unmarshal(overlay, j.Overlay); err != nil {
			return nil, fmt.Errorf("decode overlay: %w", err)
		}
	}
	if len(tempAssets) > 0 && string(tempAssets) != "null" {
		if err := json.Unmarshal(tempAssets, &j.TempAssets); err != nil {
			return nil, fmt.Errorf("decode temp_assets: %w", err)
		}
	}
	return &j, nil
}

// Create inserts a new export job in pending status.
func (r *Repository) Create(ctx context.Context, j *models.ExportJob) error {
	clipIDs, err := json.Marshal(j.ClipIDs)
	if err != nil {
		return fmt.Errorf("encode clip_ids: %w", err)
	}
	var overlay []byte
	if j.Overlay != nil {
		overlay, err = json.Marshal(j.Overlay)
		if err != nil {
			return fmt.Errorf("encode overlay: %w", err)
		}
	}
	const q = `INSERT INTO export_jobs (user_id, platform, target_duration, clip_ids, overlay, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, j.UserID, j.Platform, j.TargetDuration, clipIDs, overlay, models.ExportStatusPending).
		Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt)
}

// GetByID returns an export job, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.ExportJob, error) {
	const q = `SELECT ` + jobColumns + ` FROM export_jobs WHERE id = $1`
	j, err := scanJob(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return j, nil
}

// ListByUser returns a user's export jobs, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.ExportJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	const q = `SELECT ` + jobColumns + ` FROM export_jobs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.ExportJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *j)
	}
	return list, rows.Err()
}

// ListUncleaned returns finished jobs that still have temp assets recorded,
// oldest first. Used by the sweep command to retry cleanup.
func (r *Repository) ListUncleaned(ctx context.Context, limit int) ([]models.ExportJob, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + jobColumns + ` FROM export_jobs
		WHERE status IN ($1, $2) AND jsonb_array_length(temp_assets) > 0
		ORDER BY created_at ASC LIMIT $3`
	rows, err := r.pool.Query(ctx, q, models.ExportStatusCompleted, models.ExportStatusFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.ExportJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *j)
	}
	return list, rows.Err()
}

// UpdateStatus moves a job to a new status, enforcing forward-only transitions.
// A backward transition is ignored rather than treated as an error so that a
// late progress write from a retried attempt cannot regress a finished job.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	job, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("export job %s not found", id)
	}
	if !models.CanTransition(job.Status, status) {
		return nil
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE export_jobs SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

// UpdateProgress records progress and the current step label. Progress is
// floored at the stored value so it never decreases.
func (r *Repository) UpdateProgress(ctx context.Context, id uuid.UUID, percent int, stepLabel string) error {
	const q = `UPDATE export_jobs
		SET progress = GREATEST(progress, $2), step_label = $3, updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, percent, stepLabel)
	return err
}

// MarkCompleted finalizes a successful job with its output location.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, outputURL, filename string) error {
	const q = `UPDATE export_jobs
		SET status = $2, output_url = $3, filename = $4, progress = 100, step_label = '', updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, models.ExportStatusCompleted, outputURL, filename)
	return err
}

// MarkFailed finalizes a failed job with the error message shown to the user.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	const q = `UPDATE export_jobs
		SET status = $2, error_message = $3, updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, models.ExportStatusFailed, message)
	return err
}

// SaveTempAssets persists the remaining temp asset registry after cleanup so a
// later sweep can retry anything the cleaner could not delete.
func (r *Repository) SaveTempAssets(ctx context.Context, id uuid.UUID, assets []models.TempAsset) error {
	if assets == nil {
		assets = []models.TempAsset{}
	}
	raw, err := json.Marshal(assets)
	if err != nil {
		return fmt.Errorf("encode temp_assets: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE export_jobs SET temp_assets = $2, updated_at = NOW() WHERE id = $1`, id, raw)
	return err
}
