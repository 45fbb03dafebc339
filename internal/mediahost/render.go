package mediahost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RenderState is the remote renderer's job lifecycle.
type RenderState string

const (
	RenderQueued    RenderState = "queued"
	RenderRendering RenderState = "rendering"
	RenderDone      RenderState = "done"
	RenderFailed    RenderState = "failed"
)

// RenderConfig holds renderer credentials.
type RenderConfig struct {
	BaseURL string
	APIKey  string
}

// RenderClient submits declarative templates to the remote renderer and polls
// their completion.
type RenderClient struct {
	cfg    RenderConfig
	http   *http.Client
	logger *zap.Logger
}

// NewRenderClient creates a renderer client.
func NewRenderClient(cfg RenderConfig, logger *zap.Logger) *RenderClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// TimelineClip places one source at a start offset for a given length, both
// in seconds of output time.
type TimelineClip struct {
	Src    string  `json:"src"`
	Start  float64 `json:"start"`
	Length float64 `json:"length"`
}

// OverlayElement is a text element composited over the timeline. Position is
// fractional (0..1) of the output frame so one template serves every aspect.
type OverlayElement struct {
	Kind   string  `json:"kind"` // headline, cta, end_frame
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Start  float64 `json:"start"`
	Length float64 `json:"length"`
}

// Template is the full declarative render description: ordered clips with
// computed offsets plus overlay elements, rendered in one pass.
type Template struct {
	Output struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
	} `json:"output"`
	Timeline []TimelineClip   `json:"timeline"`
	Overlays []OverlayElement `json:"overlays,omitempty"`
}

// SubmitResult is the renderer's response: either a completed URL right away
// or a render id to poll.
type SubmitResult struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Submit sends a template for rendering.
func (r *RenderClient) Submit(ctx context.Context, tpl Template) (SubmitResult, error) {
	raw, err := json.Marshal(tpl)
	if err != nil {
		return SubmitResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(r.cfg.BaseURL, "/")+"/v1/render", bytes.NewReader(raw))
	if err != nil {
		return SubmitResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	resp, err := r.http.Do(req)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("submit render: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return SubmitResult{}, fmt.Errorf("renderer returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return SubmitResult{}, fmt.Errorf("decode render response: %w", err)
	}
	return out, nil
}

// StatusResult reports a render's progress.
type StatusResult struct {
	State RenderState `json:"state"`
	URL   string      `json:"url"`
	Error string      `json:"error"`
}

// Status fetches the state of a submitted render.
func (r *RenderClient) Status(ctx context.Context, id string) (StatusResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/render/%s", strings.TrimRight(r.cfg.BaseURL, "/"), id), nil)
	if err != nil {
		return StatusResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	resp, err := r.http.Do(req)
	if err != nil {
		return StatusResult{}, fmt.Errorf("render status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return StatusResult{}, fmt.Errorf("renderer status returned %d", resp.StatusCode)
	}
	var out StatusResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return StatusResult{}, fmt.Errorf("decode status response: %w", err)
	}
	return out, nil
}
