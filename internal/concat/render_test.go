package concat

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reelforge/backend/internal/mediahost"
	"github.com/reelforge/backend/internal/models"
	"github.com/reelforge/backend/internal/platform"
	"github.com/reelforge/backend/pkg/await"
)

func renderJob(t *testing.T, platformName string, durations []float64, overlay *models.Overlay) *JobContext {
	t.Helper()
	spec, err := platform.Get(platformName)
	if err != nil {
		t.Fatalf("platform %s: %v", platformName, err)
	}
	clips := make([]ClipReference, len(durations))
	plan := make([]TrimPlan, len(durations))
	for i, d := range durations {
		clips[i] = ClipReference{ID: string(rune('a' + i)), DurationSeconds: d + 1, SourceURL: "https://m/c.mp4", Order: i}
		plan[i] = TrimPlan{ClipID: clips[i].ID, OriginalDuration: d + 1, TrimmedDuration: d}
	}
	return NewJobContext(uuid.New(), time.Now(), spec, clips, plan, overlay, nil)
}

// fakeRenderer emulates the remote renderer: submit hands back a render id
// and each status poll is answered by the scripted respond func.
type fakeRenderer struct {
	statusPolls int32
	respond     func(n int32, w http.ResponseWriter)
}

func (f *fakeRenderer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/render":
			json.NewEncoder(w).Encode(mediahost.SubmitResult{ID: "r1"})
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/render/"):
			f.respond(atomic.AddInt32(&f.statusPolls, 1), w)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newRenderStrategy(srvURL string, attempts int) *renderStrategy {
	return &renderStrategy{
		renderer: mediahost.NewRenderClient(mediahost.RenderConfig{BaseURL: srvURL, APIKey: "k"}, nil),
		poll:     await.Options{MaxAttempts: attempts, Interval: time.Millisecond},
		logger:   zap.NewNop(),
	}
}

func TestRenderStrategySurvivesTransientStatusFailure(t *testing.T) {
	fake := &fakeRenderer{}
	fake.respond = func(n int32, w http.ResponseWriter) {
		switch n {
		case 1:
			w.WriteHeader(http.StatusBadGateway)
		case 2:
			json.NewEncoder(w).Encode(mediahost.StatusResult{State: mediahost.RenderRendering})
		default:
			json.NewEncoder(w).Encode(mediahost.StatusResult{State: mediahost.RenderDone, URL: "https://cdn/render.mp4"})
		}
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := newRenderStrategy(srv.URL, 5)
	res, err := s.Run(context.Background(), renderJob(t, "tiktok", []float64{3, 5}, nil))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RemoteURL != "https://cdn/render.mp4" {
		t.Errorf("RemoteURL = %q", res.RemoteURL)
	}
	if n := atomic.LoadInt32(&fake.statusPolls); n != 3 {
		t.Errorf("status polled %d times, want the flaky poll retried", n)
	}
}

func TestRenderStrategyAbortsOnFailedRender(t *testing.T) {
	fake := &fakeRenderer{}
	fake.respond = func(n int32, w http.ResponseWriter) {
		json.NewEncoder(w).Encode(mediahost.StatusResult{State: mediahost.RenderFailed, Error: "unsupported codec"})
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	s := newRenderStrategy(srv.URL, 5)
	_, err := s.Run(context.Background(), renderJob(t, "tiktok", []float64{3}, nil))
	if err == nil {
		t.Fatal("expected error for a failed render")
	}
	if !strings.Contains(err.Error(), "unsupported codec") {
		t.Errorf("error %q does not carry the renderer's reason", err)
	}
	if n := atomic.LoadInt32(&fake.statusPolls); n != 1 {
		t.Errorf("status polled %d times, want a failed state to abort immediately", n)
	}
}

func TestBuildTemplateTimelineOffsets(t *testing.T) {
	job := renderJob(t, "tiktok", []float64{3, 5, 2}, nil)
	tpl := BuildTemplate(job)

	if tpl.Output.Width != job.Platform.Width || tpl.Output.Height != job.Platform.Height {
		t.Errorf("output %dx%d, want %dx%d", tpl.Output.Width, tpl.Output.Height, job.Platform.Width, job.Platform.Height)
	}
	wantStarts := []float64{0, 3, 8}
	if len(tpl.Timeline) != len(wantStarts) {
		t.Fatalf("timeline has %d clips, want %d", len(tpl.Timeline), len(wantStarts))
	}
	for i, c := range tpl.Timeline {
		if math.Abs(c.Start-wantStarts[i]) > 1e-9 {
			t.Errorf("timeline[%d].Start = %v, want %v", i, c.Start, wantStarts[i])
		}
	}
	if len(tpl.Overlays) != 0 {
		t.Errorf("plain job has %d overlays, want none", len(tpl.Overlays))
	}
}

func TestBuildTemplateOverlayPlacement(t *testing.T) {
	overlay := &models.Overlay{Headline: "Summer Sale", CallToAction: "Shop now", EndFrameText: "brand.example"}

	t.Run("portrait", func(t *testing.T) {
		tpl := BuildTemplate(renderJob(t, "tiktok", []float64{4, 6}, overlay))
		if len(tpl.Overlays) != 3 {
			t.Fatalf("got %d overlays, want 3", len(tpl.Overlays))
		}
		headline := tpl.Overlays[0]
		if headline.Kind != "headline" || headline.Y != 0.08 {
			t.Errorf("headline = %+v, want kind=headline y=0.08 on portrait", headline)
		}
		cta := tpl.Overlays[1]
		if cta.Kind != "cta" || cta.Y != 0.85 || cta.Length != 10 {
			t.Errorf("cta = %+v, want y=0.85 spanning the full 10s", cta)
		}
		end := tpl.Overlays[2]
		if end.Kind != "end_frame" || end.Start != 7 || end.Length != 3 {
			t.Errorf("end frame = %+v, want last 3s of a 10s timeline", end)
		}
	})

	t.Run("landscape headline sits lower", func(t *testing.T) {
		tpl := BuildTemplate(renderJob(t, "youtube", []float64{4, 6}, overlay))
		if tpl.Overlays[0].Y != 0.1 {
			t.Errorf("headline Y = %v, want 0.1 on landscape", tpl.Overlays[0].Y)
		}
	})

	t.Run("end frame capped by short timeline", func(t *testing.T) {
		tpl := BuildTemplate(renderJob(t, "tiktok", []float64{2}, &models.Overlay{EndFrameText: "x"}))
		end := tpl.Overlays[0]
		if end.Start != 0 || end.Length != 2 {
			t.Errorf("end frame = %+v, want the whole 2s timeline", end)
		}
	})
}
