package concat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/reelforge/backend/internal/mediahost"
	"github.com/reelforge/backend/pkg/await"
)

// manifestStrategy trims every clip into an intermediate asset, uploads an
// ordered playlist naming them, then asks the host to concatenate by
// manifest. Slower than the chain but immune to URL length limits.
type manifestStrategy struct {
	host   *mediahost.Client
	poll   await.Options
	logger *zap.Logger
}

func (s *manifestStrategy) Name() string { return "manifest" }

// BuildManifest renders the ordered playlist the host concatenates from.
// Line order is concatenation order.
func BuildManifest(segments []mediahost.TrimSegment) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, seg := range segments {
		fmt.Fprintf(&b, "#EXTINF:%.3f,\n%s.mp4\n", seg.Duration, seg.PublicID)
	}
	b.WriteString("#EXT-X-ENDLIST\n")
	return b.String()
}

func (s *manifestStrategy) Run(ctx context.Context, job *JobContext) (Result, error) {
	job.Emit(PhaseTrimming, 25)

	// Trim every clip into a job-scoped intermediate.
	trimmed := make([]mediahost.TrimSegment, len(job.Clips))
	for i, clip := range job.Clips {
		id := job.tempID(fmt.Sprintf("trim-%02d", i))
		if err := s.host.EagerTrim(ctx, clip.PublicID, job.Plan[i].TrimmedDuration, id); err != nil {
			return Result{}, fmt.Errorf("trim %s: %w", clip.PublicID, err)
		}
		job.RegisterTemp(id, string(mediahost.KindVideo))
		trimmed[i] = mediahost.TrimSegment{PublicID: id, Duration: job.Plan[i].TrimmedDuration}
	}
	for _, seg := range trimmed {
		seg := seg
		err := await.Ready(ctx, seg.PublicID, func(ctx context.Context) (bool, error) {
			return s.host.VideoReady(ctx, seg.PublicID, mediahost.KindVideo)
		}, s.poll)
		if err != nil {
			return Result{}, err
		}
	}

	manifestID := job.tempID("manifest")
	if err := s.host.UploadRaw(ctx, manifestID, []byte(BuildManifest(trimmed))); err != nil {
		return Result{}, fmt.Errorf("upload manifest: %w", err)
	}
	job.RegisterTemp(manifestID, string(mediahost.KindRaw))

	job.Emit(PhaseConcatenating, 55)
	targetID := job.tempID("concat")
	if err := s.host.ConcatenateByManifest(ctx, manifestID, targetID); err != nil {
		return Result{}, fmt.Errorf("concat by manifest: %w", err)
	}
	job.RegisterTemp(targetID, string(mediahost.KindVideo))

	err := await.Ready(ctx, targetID, func(ctx context.Context) (bool, error) {
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
		return Result{}, fmt.Errorf("concatenated asset %s has no delivery URL", targetID)
	}
	return Result{RemoteURL: res.URL, ContentType: "video/mp4"}, nil
}
