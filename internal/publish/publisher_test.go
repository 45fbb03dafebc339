package publish

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testMeta() JobMeta {
	return JobMeta{
		JobID:     uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		CreatedAt: time.Date(2026, 8, 20, 14, 30, 5, 0, time.UTC),
		Platform:  "tiktok",
		ClipCount: 3,
	}
}

func TestFilenameDeterministic(t *testing.T) {
	meta := testMeta()
	want := "20260820T143005Z-tiktok-3clips.mp4"
	if got := Filename(meta); got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}
	// retries see the same immutable meta and must derive the same name
	if Filename(meta) != Filename(testMeta()) {
		t.Error("Filename is not deterministic")
	}
}

func TestFilenameNormalizesToUTC(t *testing.T) {
	meta := testMeta()
	loc := time.FixedZone("UTC+5", 5*3600)
	meta.CreatedAt = meta.CreatedAt.In(loc)
	if got := Filename(meta); got != "20260820T143005Z-tiktok-3clips.mp4" {
		t.Errorf("Filename = %q, zone leaked into the name", got)
	}
}

func TestPublishInlineSmallPayload(t *testing.T) {
	p := NewPublisher(nil, 1024, nil)
	payload := []byte("tiny video bytes")

	res, err := p.Publish(context.Background(), testMeta(), Payload{Bytes: payload, ContentType: "video/mp4"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !res.Inline {
		t.Fatal("small payload not inlined")
	}
	if res.Size != int64(len(payload)) {
		t.Errorf("Size = %d, want %d", res.Size, len(payload))
	}
	const prefix = "data:video/mp4;base64,"
	if !strings.HasPrefix(res.PublicURL, prefix) {
		t.Fatalf("URL %q missing data prefix", res.PublicURL)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(res.PublicURL, prefix))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != string(payload) {
		t.Error("decoded payload differs from input")
	}
}

func TestPublishInlineDefaultsContentType(t *testing.T) {
	p := NewPublisher(nil, 1024, nil)
	res, err := p.Publish(context.Background(), testMeta(), Payload{Bytes: []byte("x")})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !strings.HasPrefix(res.PublicURL, "data:video/mp4;base64,") {
		t.Errorf("URL %q should default to video/mp4", res.PublicURL)
	}
}

func TestPublishEmptyPayload(t *testing.T) {
	p := NewPublisher(nil, 1024, nil)
	_, err := p.Publish(context.Background(), testMeta(), Payload{})
	if err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, ok := err.(*StorageError); !ok {
		t.Fatalf("expected *StorageError, got %T: %v", err, err)
	}
}
