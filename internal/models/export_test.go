package models

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{ExportStatusPending, ExportStatusInProgress, true},
		{ExportStatusInProgress, ExportStatusReadyToConcatenate, true},
		{ExportStatusReadyToConcatenate, ExportStatusCompleted, true},
		{ExportStatusInProgress, ExportStatusFailed, true},
		{ExportStatusPending, ExportStatusCompleted, true},
		{ExportStatusInProgress, ExportStatusInProgress, true}, // idempotent redelivery

		{ExportStatusCompleted, ExportStatusInProgress, false},
		{ExportStatusFailed, ExportStatusPending, false},
		{ExportStatusReadyToConcatenate, ExportStatusInProgress, false},
		{"bogus", ExportStatusCompleted, false},
		{ExportStatusPending, "bogus", false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestOverlayEmpty(t *testing.T) {
	var nilOverlay *Overlay
	if !nilOverlay.Empty() {
		t.Error("nil overlay should be empty")
	}
	if !(&Overlay{}).Empty() {
		t.Error("zero overlay should be empty")
	}
	if (&Overlay{CallToAction: "Buy"}).Empty() {
		t.Error("overlay with CTA should not be empty")
	}
}
