package storage

import "testing"

func TestValidateClipFileType(t *testing.T) {
	tests := []struct {
		contentType string
		filename    string
		want        bool
	}{
		{"video/mp4", "clip.mp4", true},
		{"video/quicktime", "clip.mov", true},
		{"video/webm", "clip.webm", true},
		{"", "clip.mp4", true},
		{"", "CLIP.MP4", true},
		{"application/octet-stream", "clip.mov", true}, // extension rescues unknown type
		{"image/png", "clip.png", false},
		{"", "notes.txt", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := ValidateClipFileType(tt.contentType, tt.filename); got != tt.want {
			t.Errorf("ValidateClipFileType(%q, %q) = %v, want %v", tt.contentType, tt.filename, got, tt.want)
		}
	}
}

func TestKeys(t *testing.T) {
	if got := ClipKey("abc-123", "intro.mp4"); got != "clips/abc-123/intro.mp4" {
		t.Errorf("ClipKey = %q", got)
	}
	// path.Base strips any sneaky directory components
	if got := ClipKey("abc-123", "../../etc/passwd"); got != "clips/abc-123/passwd" {
		t.Errorf("ClipKey with traversal = %q", got)
	}
	if got := ExportKey("job-1", "out.mp4"); got != "exports/job-1/out.mp4" {
		t.Errorf("ExportKey = %q", got)
	}
}

func TestContentTypeForFilename(t *testing.T) {
	if got := ContentTypeForFilename("a.webm"); got != "video/webm" {
		t.Errorf("got %q", got)
	}
	if got := ContentTypeForFilename("a.bin"); got != "application/octet-stream" {
		t.Errorf("got %q", got)
	}
}
