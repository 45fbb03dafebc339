package concat

import (
	"testing"

	"github.com/google/uuid"

	"github.com/reelforge/backend/internal/models"
)

func TestExtractPublicID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "versioned upload path",
			url:  "https://media.example.com/demo/video/upload/v1712345678/brand/intro.mp4",
			want: "brand/intro",
		},
		{
			name: "unversioned upload path",
			url:  "https://media.example.com/demo/video/upload/brand/intro.mp4",
			want: "brand/intro",
		},
		{
			name: "bare filename",
			url:  "intro.mp4",
			want: "intro",
		},
		{
			name: "nested folder with version",
			url:  "https://media.example.com/acct/video/upload/v99/campaigns/q3/teaser.webm",
			want: "campaigns/q3/teaser",
		},
		{
			name: "no extension",
			url:  "https://media.example.com/demo/video/upload/v1/clips/raw",
			want: "clips/raw",
		},
		{
			name:    "empty",
			url:     "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			url:     "   ",
			wantErr: true,
		},
		{
			name:    "upload segment with nothing after",
			url:     "https://media.example.com/demo/video/upload/",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractPublicID(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractPublicID(%q): %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("ExtractPublicID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func catalogClip(name, url string, active bool) models.Clip {
	return models.Clip{
		ID:              uuid.New(),
		Name:            name,
		DurationSeconds: 10,
		HostedURL:       url,
		IsActive:        active,
	}
}

func TestResolveKeepsSelectionOrder(t *testing.T) {
	a := catalogClip("a", "https://m/x/video/upload/v1/a.mp4", true)
	b := catalogClip("b", "https://m/x/video/upload/v1/b.mp4", true)
	c := catalogClip("c", "https://m/x/video/upload/v1/c.mp4", true)
	// catalog order differs from selection order
	catalog := []models.Clip{a, b, c}
	selection := []string{c.ID.String(), a.ID.String(), b.ID.String()}

	refs, err := Resolve(selection, catalog, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	wantNames := []string{"c", "a", "b"}
	if len(refs) != len(wantNames) {
		t.Fatalf("got %d refs, want %d", len(refs), len(wantNames))
	}
	for i, ref := range refs {
		if ref.Name != wantNames[i] {
			t.Errorf("refs[%d].Name = %q, want %q", i, ref.Name, wantNames[i])
		}
		if ref.Order != i {
			t.Errorf("refs[%d].Order = %d, want %d", i, ref.Order, i)
		}
	}
}

func TestResolveDropsUnusableClips(t *testing.T) {
	ok1 := catalogClip("ok1", "https://m/x/video/upload/v1/ok1.mp4", true)
	inactive := catalogClip("inactive", "https://m/x/video/upload/v1/in.mp4", false)
	noURL := catalogClip("nourl", "", true)
	// hosted URL ends at the upload segment, so no public id can be derived
	noPublicID := catalogClip("nopid", "https://m/x/video/upload/", true)
	ok2 := catalogClip("ok2", "https://m/x/video/upload/v1/ok2.mp4", true)
	catalog := []models.Clip{ok1, inactive, noURL, noPublicID, ok2}

	selection := []string{
		ok1.ID.String(),
		inactive.ID.String(),
		noURL.ID.String(),
		noPublicID.ID.String(),
		uuid.New().String(), // unknown
		ok2.ID.String(),
	}
	refs, err := Resolve(selection, catalog, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d refs, want 2", len(refs))
	}
	if refs[0].Name != "ok1" || refs[1].Name != "ok2" {
		t.Errorf("got %q, %q; want ok1, ok2", refs[0].Name, refs[1].Name)
	}
}

func TestResolveFailsWhenNothingResolves(t *testing.T) {
	inactive := catalogClip("inactive", "https://m/x/video/upload/v1/in.mp4", false)
	catalog := []models.Clip{inactive}

	_, err := Resolve([]string{inactive.ID.String(), uuid.New().String()}, catalog, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if _, ok := err.(*AssetResolutionError); !ok {
		t.Fatalf("expected *AssetResolutionError, got %T: %v", err, err)
	}
}

func TestResolveEmptySelection(t *testing.T) {
	_, err := Resolve(nil, nil, nil)
	if _, ok := err.(*AssetResolutionError); !ok {
		t.Fatalf("expected *AssetResolutionError, got %T: %v", err, err)
	}
}
