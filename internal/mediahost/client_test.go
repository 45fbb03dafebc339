package mediahost

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChainURL(t *testing.T) {
	c := NewClient(Config{BaseURL: "https://media.example.com/acct"}, nil)

	t.Run("single segment", func(t *testing.T) {
		url, err := c.ChainURL([]TrimSegment{{PublicID: "brand/intro", Duration: 2.5}})
		if err != nil {
			t.Fatalf("ChainURL: %v", err)
		}
		want := "https://media.example.com/acct/video/upload/du_2.50/brand/intro.mp4"
		if url != want {
			t.Errorf("got %q, want %q", url, want)
		}
	})

	t.Run("spliced segments escape path separators", func(t *testing.T) {
		url, err := c.ChainURL([]TrimSegment{
			{PublicID: "brand/intro", Duration: 2},
			{PublicID: "brand/mid", Duration: 3.25},
		})
		if err != nil {
			t.Fatalf("ChainURL: %v", err)
		}
		if !strings.Contains(url, "du_3.25,l_video:brand:mid,fl_splice/fl_layer_apply") {
			t.Errorf("missing splice layer in %q", url)
		}
		// the base asset keeps its real path
		if !strings.HasSuffix(url, "/brand/intro.mp4") {
			t.Errorf("base asset mangled in %q", url)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := c.ChainURL(nil); err == nil {
			t.Error("expected error for no segments")
		}
	})

	t.Run("over length limit", func(t *testing.T) {
		long := make([]TrimSegment, 60)
		for i := range long {
			long[i] = TrimSegment{PublicID: "campaigns/2026/summer/segment-with-a-long-name", Duration: 1}
		}
		if _, err := c.ChainURL(long); err == nil {
			t.Error("expected error for oversized chain URL")
		}
	})
}

func TestVideoReady(t *testing.T) {
	tests := []struct {
		name string
		kind AssetKind
		res  Resource
		want bool
	}{
		{"video exists with duration", KindVideo, Resource{Exists: true, Duration: 5}, true},
		{"video exists but zero duration", KindVideo, Resource{Exists: true, Duration: 0}, false},
		{"video missing", KindVideo, Resource{}, false},
		{"raw only needs existence", KindRaw, Resource{Exists: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.res)
			}))
			defer srv.Close()
			c := NewClient(Config{BaseURL: srv.URL, APIKey: "k", APISecret: "s"}, nil)
			ready, err := c.VideoReady(context.Background(), "some/id", tt.kind)
			if err != nil {
				t.Fatalf("VideoReady: %v", err)
			}
			if ready != tt.want {
				t.Errorf("ready = %v, want %v", ready, tt.want)
			}
		})
	}
}

func TestDeleteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k", APISecret: "s"}, nil)
	err := c.Delete(context.Background(), "gone", KindVideo)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDoJSONSendsBasicAuth(t *testing.T) {
	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "key", APISecret: "secret"}, nil)
	if err := c.Derive(context.Background(), "https://x/y.mp4", "tmp/t"); err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if gotUser != "key" || gotPass != "secret" {
		t.Errorf("basic auth = %q/%q", gotUser, gotPass)
	}
}
