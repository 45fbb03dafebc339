package models

import (
	"time"

	"github.com/google/uuid"
)

// Clip is a pre-uploaded catalog asset with a known duration and hosted URL.
// The export pipeline treats clips as an immutable snapshot fetched at
// job-submission time.
type Clip struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	DurationSeconds float64    `json:"duration_seconds"`
	HostedURL       string     `json:"hosted_url"`
	Platform        string     `json:"platform,omitempty"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Category groups catalog clips for the wizard's filter dropdowns.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
