// Package mediahost is the HTTP adapter for the remote media-processing
// backend: transformation chaining, eager trims, manifest concatenation,
// resource status and deletion.
package mediahost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned when the host reports a resource does not exist.
// The cleaner treats it as a successful deletion.
var ErrNotFound = errors.New("mediahost: resource not found")

// AssetKind distinguishes video assets from raw uploads (manifests).
type AssetKind string

const (
	KindVideo AssetKind = "video"
	KindRaw   AssetKind = "raw"
)

// maxChainURLLength guards against backends that reject long transformation
// URLs; exceeding it is the usual reason the manifest strategy exists.
const maxChainURLLength = 2000

// Config holds media host credentials.
type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

// Client talks to the media host API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a media host client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// TrimSegment is one clip of a transformation chain: the asset to include and
// the duration to keep from its start.
type TrimSegment struct {
	PublicID string
	Duration float64
}

// ChainURL builds a single delivery URL that trims every segment and splices
// them in order. Segment order in the URL is the concatenation order.
func (c *Client) ChainURL(segments []TrimSegment) (string, error) {
	if len(segments) == 0 {
		return "", errors.New("chain: no segments")
	}
	parts := make([]string, 0, len(segments))
	parts = append(parts, fmt.Sprintf("du_%.2f", segments[0].Duration))
	for _, seg := range segments[1:] {
		// layer ids escape path separators with ':'
		layerID := strings.ReplaceAll(seg.PublicID, "/", ":")
		parts = append(parts, fmt.Sprintf("du_%.2f,l_video:%s,fl_splice/fl_layer_apply", seg.Duration, layerID))
	}
	url := fmt.Sprintf("%s/video/upload/%s/%s.mp4", strings.TrimRight(c.cfg.BaseURL, "/"), strings.Join(parts, "/"), segments[0].PublicID)
	if len(url) > maxChainURLLength {
		return "", fmt.Errorf("chain: transformation URL exceeds %d bytes (%d segments)", maxChainURLLength, len(segments))
	}
	return url, nil
}

// Derive asks the host to eagerly materialize a transformation URL into a new
// derived asset addressed by targetID.
func (c *Client) Derive(ctx context.Context, transformationURL, targetID string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/assets/derive", map[string]any{
		"source":    transformationURL,
		"public_id": targetID,
	}, nil)
}

// EagerTrim creates a trimmed intermediate of publicID addressed by targetID.
func (c *Client) EagerTrim(ctx context.Context, publicID string, duration float64, targetID string) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/v1/assets/%s/trim", publicID), map[string]any{
		"duration":  duration,
		"public_id": targetID,
	}, nil)
}

// UploadRaw uploads bytes as a raw asset (e.g. a concat manifest).
func (c *Client) UploadRaw(ctx context.Context, publicID string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/raw/%s", strings.TrimRight(c.cfg.BaseURL, "/"), publicID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.APIKey, c.cfg.APISecret)
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload raw: %w", err)
	}
	defer resp.Body.Close()
	return c.checkStatus(resp)
}

// ConcatenateByManifest asks the host to build a video addressed by targetID
// from an uploaded ordered manifest.
func (c *Client) ConcatenateByManifest(ctx context.Context, manifestID, targetID string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/assets/concat", map[string]any{
		"manifest_id": manifestID,
		"public_id":   targetID,
	}, nil)
}

// Resource describes a hosted asset's availability.
type Resource struct {
	Exists   bool    `json:"exists"`
	Duration float64 `json:"duration"`
	URL      string  `json:"url"`
}

// Resource returns the status of an asset. A 404 yields Exists=false, not an error.
func (c *Client) Resource(ctx context.Context, publicID string, kind AssetKind) (Resource, error) {
	var res Resource
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/v1/%s/%s/status", kind, publicID), nil, &res)
	if errors.Is(err, ErrNotFound) {
		return Resource{}, nil
	}
	if err != nil {
		return Resource{}, err
	}
	return res, nil
}

// VideoReady reports whether a video asset exists with a valid non-zero
// duration; raw assets only need to exist.
func (c *Client) VideoReady(ctx context.Context, publicID string, kind AssetKind) (bool, error) {
	res, err := c.Resource(ctx, publicID, kind)
	if err != nil {
		return false, err
	}
	if kind == KindVideo {
		return res.Exists && res.Duration > 0, nil
	}
	return res.Exists, nil
}

// Delete removes an asset from the host. Returns ErrNotFound for missing assets.
func (c *Client) Delete(ctx context.Context, publicID string, kind AssetKind) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/v1/%s/%s", kind, publicID), nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.APIKey, c.cfg.APISecret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if err := c.checkStatus(resp); err != nil {
		return err
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("media host returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}
