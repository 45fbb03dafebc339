package platform

import "testing"

func TestGet(t *testing.T) {
	tests := []struct {
		name         string
		platform     string
		wantErr      bool
		wantPortrait bool
	}{
		{"tiktok", "tiktok", false, true},
		{"youtube", "youtube", false, false},
		{"square", "instagram_feed", false, false},
		{"unknown", "myspace", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Get(tt.platform)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if s.Portrait() != tt.wantPortrait {
				t.Fatalf("Portrait() = %v, want %v", s.Portrait(), tt.wantPortrait)
			}
		})
	}
}
