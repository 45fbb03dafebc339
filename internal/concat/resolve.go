package concat

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/reelforge/backend/internal/models"
)

var versionSegmentRe = regexp.MustCompile(`^v\d+/`)

// ExtractPublicID derives the identifier the media host uses to address an
// asset from its hosted URL. Three URL shapes are tolerated:
//
//	https://host/demo/video/upload/v1712345/brand/intro.mp4 -> brand/intro
//	https://host/demo/video/upload/brand/intro.mp4          -> brand/intro
//	intro.mp4                                               -> intro
func ExtractPublicID(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("empty url")
	}
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	if i := strings.Index(p, "/upload/"); i >= 0 {
		rest := p[i+len("/upload/"):]
		rest = versionSegmentRe.ReplaceAllString(rest, "")
		rest = strings.TrimSuffix(rest, path.Ext(rest))
		rest = strings.Trim(rest, "/")
		if rest == "" {
			return "", fmt.Errorf("no public id after upload segment in %q", raw)
		}
		return rest, nil
	}
	base := path.Base(p)
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		return "", fmt.Errorf("no public id in %q", raw)
	}
	return base, nil
}

// Resolve maps the user's ordered clip selection onto the catalog snapshot.
// Output order is selection order, never catalog order. Individual ids that
// are unknown, inactive, missing a hosted URL or whose public-id extraction
// fails are dropped with a warning; an empty selection or an empty result is
// an AssetResolutionError.
func Resolve(selectedIDs []string, catalog []models.Clip, logger *zap.Logger) ([]ClipReference, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(selectedIDs) == 0 {
		return nil, &AssetResolutionError{Reason: "empty selection"}
	}

	byID := make(map[string]models.Clip, len(catalog))
	for _, c := range catalog {
		byID[c.ID.String()] = c
	}

	refs := make([]ClipReference, 0, len(selectedIDs))
	for _, id := range selectedIDs {
		clip, ok := byID[id]
		if !ok {
			logger.Warn("selected clip not in catalog, dropping", zap.String("clip_id", id))
			continue
		}
		if !clip.IsActive {
			logger.Warn("selected clip is inactive, dropping", zap.String("clip_id", id))
			continue
		}
		if clip.HostedURL == "" {
			logger.Warn("selected clip has no hosted URL, dropping", zap.String("clip_id", id))
			continue
		}
		publicID, err := ExtractPublicID(clip.HostedURL)
		if err != nil {
			logger.Warn("public id extraction failed, dropping clip",
				zap.String("clip_id", id), zap.String("url", clip.HostedURL), zap.Error(err))
			continue
		}
		refs = append(refs, ClipReference{
			ID:              id,
			Name:            clip.Name,
			DurationSeconds: clip.DurationSeconds,
			SourceURL:       clip.HostedURL,
			PublicID:        publicID,
			Order:           len(refs),
		})
	}

	if len(refs) == 0 {
		return nil, &AssetResolutionError{Reason: "no resolvable clips in selection"}
	}
	return refs, nil
}
