package concat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func clipServer(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAllPreservesInputOrder(t *testing.T) {
	srv := clipServer(t, map[string]string{
		"/a.mp4": "AAAA",
		"/b.mp4": "BB",
		"/c.mp4": "CCCCCC",
	})
	refs := []ClipReference{
		{ID: "a", SourceURL: srv.URL + "/a.mp4"},
		{ID: "b", SourceURL: srv.URL + "/b.mp4"},
		{ID: "c", SourceURL: srv.URL + "/c.mp4"},
	}
	d := newDownloader(time.Second, 2, nil)
	got, err := d.fetchAll(context.Background(), refs)
	if err != nil {
		t.Fatalf("fetchAll: %v", err)
	}
	want := []string{"AAAA", "BB", "CCCCCC"}
	if len(got) != len(want) {
		t.Fatalf("got %d payloads, want %d", len(got), len(want))
	}
	for i := range want {
		if string(got[i]) != want[i] {
			t.Errorf("payload[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFetchAllDropsFailedClips(t *testing.T) {
	srv := clipServer(t, map[string]string{
		"/a.mp4": "AAAA",
		"/c.mp4": "CC",
	})
	refs := []ClipReference{
		{ID: "a", SourceURL: srv.URL + "/a.mp4"},
		{ID: "b", SourceURL: srv.URL + "/missing.mp4"},
		{ID: "c", SourceURL: srv.URL + "/c.mp4"},
	}
	d := newDownloader(time.Second, 4, nil)
	got, err := d.fetchAll(context.Background(), refs)
	if err != nil {
		t.Fatalf("fetchAll: %v", err)
	}
	if len(got) != 2 || string(got[0]) != "AAAA" || string(got[1]) != "CC" {
		t.Errorf("payloads = %q, want surviving clips in order", got)
	}
}

func TestFetchAllFailsWhenEveryClipFails(t *testing.T) {
	srv := clipServer(t, nil)
	refs := []ClipReference{
		{ID: "a", SourceURL: srv.URL + "/a.mp4"},
		{ID: "b", SourceURL: srv.URL + "/b.mp4"},
	}
	d := newDownloader(time.Second, 4, nil)
	_, err := d.fetchAll(context.Background(), refs)
	var de *DownloadError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DownloadError, got %T: %v", err, err)
	}
}

func TestBinaryStrategyConcatenatesInOrder(t *testing.T) {
	srv := clipServer(t, map[string]string{
		"/a.mp4": "head",
		"/b.mp4": "tail",
	})
	job := testJob(nil)
	job.Clips[0].SourceURL = srv.URL + "/a.mp4"
	job.Clips[1].SourceURL = srv.URL + "/b.mp4"

	s := &binaryStrategy{dl: newDownloader(time.Second, 2, nil)}
	res, err := s.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(res.Bytes) != "headtail" {
		t.Errorf("bytes = %q, want headtail", res.Bytes)
	}
	if res.ContentType != "video/mp4" {
		t.Errorf("content type = %q", res.ContentType)
	}
}
