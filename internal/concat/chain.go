package concat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/reelforge/backend/internal/mediahost"
	"github.com/reelforge/backend/pkg/await"
)

// chainStrategy produces the output in a single round trip: one
// transformation URL that trims each clip per its plan entry and splices them
// in order. Preferred for latency; the media host rejects it for long chains,
// which is what the manifest strategy is for.
type chainStrategy struct {
	host   *mediahost.Client
	poll   await.Options
	logger *zap.Logger
}

func (s *chainStrategy) Name() string { return "transformation-chain" }

func (s *chainStrategy) Run(ctx context.Context, job *JobContext) (Result, error) {
	job.Emit(PhaseTrimming, 25)

	segments := make([]mediahost.TrimSegment, len(job.Clips))
	for i, clip := range job.Clips {
		segments[i] = mediahost.TrimSegment{
			PublicID: clip.PublicID,
			Duration: job.Plan[i].TrimmedDuration,
		}
	}
	url, err := s.host.ChainURL(segments)
	if err != nil {
		return Result{}, err
	}

	targetID := job.tempID("chain")
	if err := s.host.Derive(ctx, url, targetID); err != nil {
		return Result{}, fmt.Errorf("derive: %w", err)
	}
	job.RegisterTemp(targetID, string(mediahost.KindVideo))

	job.Emit(PhaseConcatenating, 55)
	err = await.Ready(ctx, targetID, func(ctx context.Context) (bool, error) {
		return s.host.VideoReady(ctx, targetID, mediahost.KindVideo)
	}, s.poll)
	if err != nil {
		return Result{}, err
	}

	res, err := s.host.Resource(ctx, targetID, mediahost.KindVideo)
	if err != nil {
		return Result{}, err
	}
	if res.URL == "" {
		return Result{}, fmt.Errorf("derived asset %s has no delivery URL", targetID)
	}
	return Result{RemoteURL: res.URL, ContentType: "video/mp4"}, nil
}
