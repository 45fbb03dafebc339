package concat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reelforge/backend/internal/mediahost"
	"github.com/reelforge/backend/internal/models"
)

type fakeDeleter struct {
	deleted  []string
	failures map[string]int // id -> times to fail before succeeding
	missing  map[string]bool
}

func (f *fakeDeleter) Delete(ctx context.Context, publicID string, kind mediahost.AssetKind) error {
	if f.missing[publicID] {
		return mediahost.ErrNotFound
	}
	if n := f.failures[publicID]; n > 0 {
		f.failures[publicID] = n - 1
		return errors.New("transient")
	}
	f.deleted = append(f.deleted, publicID)
	return nil
}

func fastCleaner(d Deleter) *Cleaner {
	c := NewCleaner(d, nil)
	c.backoff = time.Millisecond
	return c
}

func TestCleanerDeletesAllAssets(t *testing.T) {
	d := &fakeDeleter{}
	assets := []models.TempAsset{
		{ID: "tmp/j/trim-00", Kind: "video"},
		{ID: "tmp/j/manifest", Kind: "raw"},
	}
	report := fastCleaner(d).Cleanup(context.Background(), assets)
	if len(report.Deleted) != 2 || len(report.Failed) != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(d.deleted) != 2 {
		t.Errorf("deleter saw %d deletes, want 2", len(d.deleted))
	}
}

func TestCleanerRetriesTransientFailures(t *testing.T) {
	d := &fakeDeleter{failures: map[string]int{"tmp/j/a": 2}}
	report := fastCleaner(d).Cleanup(context.Background(), []models.TempAsset{{ID: "tmp/j/a", Kind: "video"}})
	if len(report.Deleted) != 1 {
		t.Fatalf("report = %+v, want success after retries", report)
	}
}

func TestCleanerReportsPersistentFailures(t *testing.T) {
	d := &fakeDeleter{failures: map[string]int{"tmp/j/bad": 99}}
	assets := []models.TempAsset{
		{ID: "tmp/j/bad", Kind: "video"},
		{ID: "tmp/j/good", Kind: "video"},
	}
	report := fastCleaner(d).Cleanup(context.Background(), assets)
	if len(report.Failed) != 1 || report.Failed[0] != "tmp/j/bad" {
		t.Errorf("Failed = %v, want [tmp/j/bad]", report.Failed)
	}
	if len(report.Deleted) != 1 || report.Deleted[0] != "tmp/j/good" {
		t.Errorf("Deleted = %v, want [tmp/j/good]", report.Deleted)
	}
}

func TestCleanerIdempotentSecondPass(t *testing.T) {
	d := &fakeDeleter{missing: map[string]bool{}}
	assets := []models.TempAsset{
		{ID: "tmp/j/a", Kind: "video"},
		{ID: "tmp/j/b", Kind: "raw"},
	}
	c := fastCleaner(d)
	first := c.Cleanup(context.Background(), assets)
	if len(first.Deleted) != 2 {
		t.Fatalf("first pass report = %+v", first)
	}

	// Everything is gone now; the host answers not-found and the second pass
	// still reports full success.
	d.missing["tmp/j/a"] = true
	d.missing["tmp/j/b"] = true
	second := c.Cleanup(context.Background(), assets)
	if len(second.Deleted) != 2 || len(second.Failed) != 0 {
		t.Errorf("second pass report = %+v, want full success", second)
	}
}

func TestCleanerNilDeleter(t *testing.T) {
	report := NewCleaner(nil, nil).Cleanup(context.Background(), []models.TempAsset{{ID: "x", Kind: "video"}})
	if len(report.Deleted) != 1 || len(report.Failed) != 0 {
		t.Errorf("report = %+v, want all deleted with no backend", report)
	}
}
