// Package concat implements the video-concatenation pipeline: proportional
// trim allocation, clip reference resolution, the multi-strategy remote job
// driver and temporary-asset cleanup.
package concat

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelforge/backend/internal/models"
	"github.com/reelforge/backend/internal/platform"
)

// ClipReference is one ordered, resolved clip of an export job. Immutable
// once the job is submitted.
type ClipReference struct {
	ID              string
	Name            string
	DurationSeconds float64
	SourceURL       string
	PublicID        string
	Order           int
}

// TrimPlan is the computed output duration for one clip. TrimmedDuration
// never exceeds OriginalDuration.
type TrimPlan struct {
	ClipID           string
	OriginalDuration float64
	TrimmedDuration  float64
}

// Phase identifies a stage of the export pipeline. The client maps phases to
// display copy; the driver never emits UI text.
type Phase string

const (
	PhaseResolving     Phase = "resolving"
	PhaseTrimming      Phase = "trimming"
	PhaseDownloading   Phase = "downloading"
	PhaseConcatenating Phase = "concatenating"
	PhaseRendering     Phase = "rendering"
	PhaseFinalizing    Phase = "finalizing"
)

// PhaseEvent is a structured progress event. Percent is 0-100 and
// non-decreasing over a job's lifetime (the consumer enforces the floor).
type PhaseEvent struct {
	Phase   Phase `json:"phase"`
	Percent int   `json:"percent"`
}

// JobContext carries everything a strategy needs to produce the concatenated
// asset, plus the registry of intermediate assets created along the way.
type JobContext struct {
	JobID     uuid.UUID
	CreatedAt time.Time
	Platform  platform.Spec
	Clips     []ClipReference
	Plan      []TrimPlan
	Overlay   *models.Overlay

	mu   sync.Mutex
	temp []models.TempAsset
	emit func(PhaseEvent)
}

// NewJobContext builds a job context. emit may be nil.
func NewJobContext(jobID uuid.UUID, createdAt time.Time, spec platform.Spec, clips []ClipReference, plan []TrimPlan, overlay *models.Overlay, emit func(PhaseEvent)) *JobContext {
	return &JobContext{
		JobID:     jobID,
		CreatedAt: createdAt,
		Platform:  spec,
		Clips:     clips,
		Plan:      plan,
		Overlay:   overlay,
		emit:      emit,
	}
}

// RegisterTemp records an intermediate asset so the cleaner can remove it
// regardless of which strategy ends up succeeding.
func (j *JobContext) RegisterTemp(id, kind string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, a := range j.temp {
		if a.ID == id {
			return
		}
	}
	j.temp = append(j.temp, models.TempAsset{ID: id, Kind: kind})
}

// TempAssets returns a copy of the registered intermediate assets.
func (j *JobContext) TempAssets() []models.TempAsset {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]models.TempAsset, len(j.temp))
	copy(out, j.temp)
	return out
}

// Emit publishes a phase event if a consumer is attached.
func (j *JobContext) Emit(phase Phase, percent int) {
	if j.emit != nil {
		j.emit(PhaseEvent{Phase: phase, Percent: percent})
	}
}

// tempID namespaces intermediate asset identifiers with the job id and its
// creation timestamp so concurrent jobs never collide.
func (j *JobContext) tempID(suffix string) string {
	return fmt.Sprintf("tmp/%s-%d/%s", j.JobID, j.CreatedAt.UnixMilli(), suffix)
}
