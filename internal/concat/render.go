package concat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/reelforge/backend/internal/mediahost"
	"github.com/reelforge/backend/pkg/await"
)

const endFrameSeconds = 3.0

// renderStrategy submits the whole job as a declarative template to the
// remote renderer, which composites clips and overlays and renders once.
// Selected upfront whenever the job carries overlay customization, since the
// text has to be burned into the pixels.
type renderStrategy struct {
	renderer *mediahost.RenderClient
	poll     await.Options
	logger   *zap.Logger
}

func (s *renderStrategy) Name() string { return "template-render" }

// BuildTemplate lays the trimmed clips on a timeline at cumulative start
// offsets and positions overlay elements by the platform's aspect. Timeline
// order equals clip order.
func BuildTemplate(job *JobContext) mediahost.Template {
	var tpl mediahost.Template
	tpl.Output.Width = job.Platform.Width
	tpl.Output.Height = job.Platform.Height
	tpl.Output.Format = "mp4"

	var offset float64
	for i, clip := range job.Clips {
		length := job.Plan[i].TrimmedDuration
		tpl.Timeline = append(tpl.Timeline, mediahost.TimelineClip{
			Src:    clip.SourceURL,
			Start:  offset,
			Length: length,
		})
		offset += length
	}
	total := offset

	if job.Overlay.Empty() {
		return tpl
	}
	headlineY := 0.1
	if job.Platform.Portrait() {
		headlineY = 0.08
	}
	if job.Overlay.Headline != "" {
		tpl.Overlays = append(tpl.Overlays, mediahost.OverlayElement{
			Kind: "headline", Text: job.Overlay.Headline,
			X: 0.5, Y: headlineY, Start: 0, Length: total,
		})
	}
	if job.Overlay.CallToAction != "" {
		tpl.Overlays = append(tpl.Overlays, mediahost.OverlayElement{
			Kind: "cta", Text: job.Overlay.CallToAction,
			X: 0.5, Y: 0.85, Start: 0, Length: total,
		})
	}
	if job.Overlay.EndFrameText != "" {
		length := endFrameSeconds
		if total < length {
			length = total
		}
		tpl.Overlays = append(tpl.Overlays, mediahost.OverlayElement{
			Kind: "end_frame", Text: job.Overlay.EndFrameText,
			X: 0.5, Y: 0.5, Start: total - length, Length: length,
		})
	}
	return tpl
}

func (s *renderStrategy) Run(ctx context.Context, job *JobContext) (Result, error) {
	if s.renderer == nil {
		return Result{}, fmt.Errorf("renderer not configured")
	}
	job.Emit(PhaseRendering, 55)

	submitted, err := s.renderer.Submit(ctx, BuildTemplate(job))
	if err != nil {
		return Result{}, err
	}
	if submitted.URL != "" {
		return Result{RemoteURL: submitted.URL, ContentType: "video/mp4"}, nil
	}

	var finalURL string
	err = await.Ready(ctx, submitted.ID, func(ctx context.Context) (bool, error) {
		st, err := s.renderer.Status(ctx, submitted.ID)
		if err != nil {
			if ctx.Err() != nil {
				return false, err
			}
			// A flaky status check counts as an attempt; only a failed
			// render state aborts the wait.
			s.logger.Warn("render status check failed",
				zap.String("render_id", submitted.ID), zap.Error(err))
			return false, nil
		}
		switch st.State {
		case mediahost.RenderDone:
			finalURL = st.URL
			return true, nil
		case mediahost.RenderFailed:
			return false, fmt.Errorf("render %s failed: %s", submitted.ID, st.Error)
		default:
			return false, nil
		}
	}, s.poll)
	if err != nil {
		return Result{}, err
	}
	if finalURL == "" {
		return Result{}, fmt.Errorf("render %s completed without a URL", submitted.ID)
	}
	return Result{RemoteURL: finalURL, ContentType: "video/mp4"}, nil
}
