package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelforge/backend/internal/models"
)

// Repository handles clip catalog persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a catalog repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const clipColumns = `id, name, duration_seconds, hosted_url, platform, category_id, is_active, created_at, updated_at`

func scanClip(row pgx.Row) (*models.Clip, error) {
	var c models.Clip
	err := row.Scan(&c.ID, &c.Name, &c.DurationSeconds, &c.HostedURL, &c.Platform, &c.CategoryID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListActive returns active clips ordered by recency, optionally filtered by
// platform and/or category.
func (r *Repository) ListActive(ctx context.Context, platform string, categoryID *uuid.UUID) ([]models.Clip, error) {
	const q = `SELECT ` + clipColumns + ` FROM clips
		WHERE is_active = TRUE
		  AND ($1 = '' OR platform = $1 OR platform = '')
		  AND ($2::uuid IS NULL OR category_id = $2)
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, platform, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Clip
	for rows.Next() {
		c, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

// GetByIDs returns the clips matching the given ids (active or not; the
// resolver applies the active filter so it can warn per clip). Ids that are
// not valid UUIDs are ignored.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]models.Clip, error) {
	uuids := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if u, err := uuid.Parse(id); err == nil {
			uuids = append(uuids, u)
		}
	}
	if len(uuids) == 0 {
		return nil, nil
	}
	const q = `SELECT ` + clipColumns + ` FROM clips WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, q, uuids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Clip
	for rows.Next() {
		c, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

// Create inserts a new clip.
func (r *Repository) Create(ctx context.Context, c *models.Clip) error {
	const q = `INSERT INTO clips (name, duration_seconds, hosted_url, platform, category_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, c.Name, c.DurationSeconds, c.HostedURL, c.Platform, c.CategoryID, c.IsActive).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// GetByID returns a clip by id, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Clip, error) {
	const q = `SELECT ` + clipColumns + ` FROM clips WHERE id = $1`
	c, err := scanClip(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// Toggle flips a clip's active flag and returns the new value.
func (r *Repository) Toggle(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `UPDATE clips SET is_active = NOT is_active, updated_at = NOW() WHERE id = $1 RETURNING is_active`
	var active bool
	err := r.pool.QueryRow(ctx, q, id).Scan(&active)
	return active, err
}

// Delete removes a clip row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM clips WHERE id = $1`, id)
	return err
}

// ListCategories returns all categories.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, cat)
	}
	return list, rows.Err()
}

// CreateCategory inserts a category.
func (r *Repository) CreateCategory(ctx context.Context, cat *models.Category) error {
	const q = `INSERT INTO categories (name) VALUES ($1) RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, cat.Name).Scan(&cat.ID, &cat.CreatedAt)
}
