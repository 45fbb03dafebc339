package models

import (
	"time"

	"github.com/google/uuid"
)

// ExportStatus values. Transitions are strictly monotonic: a job never moves
// back to an earlier status.
const (
	ExportStatusPending             = "pending"
	ExportStatusInProgress          = "in_progress"
	ExportStatusReadyToConcatenate  = "ready_to_concatenate"
	ExportStatusCompleted           = "completed"
	ExportStatusFailed              = "failed"
)

var exportStatusRank = map[string]int{
	ExportStatusPending:            0,
	ExportStatusInProgress:         1,
	ExportStatusReadyToConcatenate: 2,
	ExportStatusCompleted:          3,
	ExportStatusFailed:             3,
}

// CanTransition reports whether moving from one export status to another is a
// forward transition. Equal statuses are allowed (idempotent updates).
func CanTransition(from, to string) bool {
	fr, ok := exportStatusRank[from]
	if !ok {
		return false
	}
	tr, ok := exportStatusRank[to]
	if !ok {
		return false
	}
	return tr >= fr
}

// Overlay describes text customization burned into the output by the remote
// renderer. A nil overlay means plain concatenation.
type Overlay struct {
	Headline     string `json:"headline,omitempty"`
	CallToAction string `json:"call_to_action,omitempty"`
	EndFrameText string `json:"end_frame_text,omitempty"`
}

// Empty reports whether the overlay carries no visible customization.
func (o *Overlay) Empty() bool {
	return o == nil || (o.Headline == "" && o.CallToAction == "" && o.EndFrameText == "")
}

// TempAsset is an intermediate artifact registered during processing so the
// cleaner can remove it regardless of which strategy produced it.
type TempAsset struct {
	ID   string `json:"id"`
	Kind string `json:"kind"` // "video", "raw" or "object"
}

// ExportJob is one user-triggered request to produce a single concatenated
// video from an ordered clip selection.
type ExportJob struct {
	ID             uuid.UUID   `json:"id"`
	UserID         uuid.UUID   `json:"user_id"`
	Platform       string      `json:"platform"`
	TargetDuration float64     `json:"target_duration"`
	ClipIDs        []string    `json:"clip_ids"` // ordered; defines concatenation sequence
	Overlay        *Overlay    `json:"overlay,omitempty"`
	Status         string      `json:"status"`
	Progress       int         `json:"progress"` // 0-100, non-decreasing
	StepLabel      string      `json:"step_label,omitempty"`
	OutputURL      string      `json:"output_url,omitempty"`
	Filename       string      `json:"filename,omitempty"`
	ErrorMessage   string      `json:"error_message,omitempty"`
	TempAssets     []TempAsset `json:"temp_assets,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
