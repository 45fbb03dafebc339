// Package publish exposes finished export assets to the client: small
// payloads inline, everything else through object storage with a public URL.
package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reelforge/backend/pkg/storage"
)

// DefaultInlineMaxBytes is the payload size cutoff below which the result is
// returned inline instead of stored.
const DefaultInlineMaxBytes = 4 * 1024 * 1024

// StorageError means the final asset could not be uploaded or addressed.
// Always fatal: the job never degrades to a broken download link.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("publish: %v", e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// JobMeta identifies the job being published. The filename is derived from it
// deterministically, which is what makes publishing idempotent per job.
type JobMeta struct {
	JobID     uuid.UUID
	CreatedAt time.Time
	Platform  string
	ClipCount int
}

// Payload is the produced asset: a remote URL to stream from, or raw bytes.
type Payload struct {
	RemoteURL   string
	Bytes       []byte
	ContentType string
}

// Result is the published outcome handed back to the client.
type Result struct {
	PublicURL string
	Filename  string
	Inline    bool
	Size      int64
}

// Publisher writes exactly one object to storage per job.
type Publisher struct {
	s3        *storage.S3
	http      *http.Client
	inlineMax int64
	logger    *zap.Logger
}

// NewPublisher creates a publisher. inlineMax <= 0 falls back to the default
// cutoff.
func NewPublisher(s3 *storage.S3, inlineMax int64, logger *zap.Logger) *Publisher {
	if inlineMax <= 0 {
		inlineMax = DefaultInlineMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		s3:        s3,
		http:      &http.Client{Timeout: 5 * time.Minute},
		inlineMax: inlineMax,
		logger:    logger,
	}
}

// Filename encodes creation timestamp, platform and clip count for
// traceability. Derived only from immutable job fields, so retries produce
// the same name.
func Filename(meta JobMeta) string {
	return fmt.Sprintf("%s-%s-%dclips.mp4",
		meta.CreatedAt.UTC().Format("20060102T150405Z"), meta.Platform, meta.ClipCount)
}

// Publish exposes the final asset. Byte payloads at or below the inline
// cutoff are returned as a data URL without touching storage; everything else
// is uploaded to the exports bucket under a key derived from the job.
func (p *Publisher) Publish(ctx context.Context, meta JobMeta, payload Payload) (Result, error) {
	filename := Filename(meta)
	contentType := payload.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}

	if payload.RemoteURL != "" {
		return p.publishFromURL(ctx, meta, payload.RemoteURL, contentType, filename)
	}

	size := int64(len(payload.Bytes))
	if size == 0 {
		return Result{}, &StorageError{Err: fmt.Errorf("empty payload for job %s", meta.JobID)}
	}
	if size <= p.inlineMax {
		url := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(payload.Bytes)
		return Result{PublicURL: url, Filename: filename, Inline: true, Size: size}, nil
	}

	key := storage.ExportKey(meta.JobID.String(), filename)
	url, err := p.s3.Upload(ctx, p.s3.ExportsBucket(), key, contentType, bytes.NewReader(payload.Bytes), size, true)
	if err != nil {
		return Result{}, &StorageError{Err: err}
	}
	return Result{PublicURL: url, Filename: filename, Size: size}, nil
}

func (p *Publisher) publishFromURL(ctx context.Context, meta JobMeta, remoteURL, contentType, filename string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return Result{}, &StorageError{Err: err}
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return Result{}, &StorageError{Err: fmt.Errorf("fetch final asset: %w", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, &StorageError{Err: fmt.Errorf("fetch final asset: status %d", resp.StatusCode)}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		contentType = ct
	}

	key := storage.ExportKey(meta.JobID.String(), filename)
	url, err := p.s3.Upload(ctx, p.s3.ExportsBucket(), key, contentType, resp.Body, resp.ContentLength, true)
	if err != nil {
		return Result{}, &StorageError{Err: err}
	}
	return Result{PublicURL: url, Filename: filename, Size: resp.ContentLength}, nil
}
