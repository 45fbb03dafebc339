package concat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxClipDownloadBytes caps a single clip fetch so a mis-tagged asset cannot
// exhaust worker memory.
const maxClipDownloadBytes = 512 * 1024 * 1024

// downloader fetches clip bytes with bounded concurrency. Downloads run in
// parallel but results are slotted by input index, so concatenation order is
// never affected by completion order.
type downloader struct {
	http        *http.Client
	timeout     time.Duration
	concurrency int
	logger      *zap.Logger
}

func newDownloader(timeout time.Duration, concurrency int, logger *zap.Logger) *downloader {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &downloader{
		http:        &http.Client{},
		timeout:     timeout,
		concurrency: concurrency,
		logger:      logger,
	}
}

// fetchAll downloads every clip and returns the payloads in input order.
// A clip that fails to download is dropped with a warning, mirroring the
// resolver's partial-tolerance rule; all clips failing is a DownloadError.
func (d *downloader) fetchAll(ctx context.Context, refs []ClipReference) ([][]byte, error) {
	slots := make([][]byte, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			data, err := d.fetch(gctx, ref.SourceURL)
			if err != nil {
				// partial tolerance: log and leave the slot empty
				d.logger.Warn("clip download failed, dropping from output",
					zap.String("clip_id", ref.ID), zap.String("url", ref.SourceURL), zap.Error(err))
				return nil
			}
			slots[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([][]byte, 0, len(refs))
	for _, data := range slots {
		if data != nil {
			out = append(out, data)
		}
	}
	if len(out) == 0 {
		return nil, &DownloadError{URL: refs[0].SourceURL, Err: fmt.Errorf("all %d clip downloads failed", len(refs))}
	}
	return out, nil
}

func (d *downloader) fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &DownloadError{URL: url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxClipDownloadBytes+1))
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}
	if int64(len(data)) > maxClipDownloadBytes {
		return nil, &DownloadError{URL: url, Err: fmt.Errorf("exceeds %d byte limit", maxClipDownloadBytes)}
	}
	return data, nil
}
