package concat

import (
	"math"
	"testing"
)

func refsWithDurations(durations ...float64) []ClipReference {
	refs := make([]ClipReference, len(durations))
	for i, d := range durations {
		refs[i] = ClipReference{ID: string(rune('a' + i)), DurationSeconds: d, Order: i}
	}
	return refs
}

func TestAllocateProportional(t *testing.T) {
	tests := []struct {
		name      string
		durations []float64
		target    float64
		want      []float64
	}{
		{
			name:      "uneven clips scale by contribution",
			durations: []float64{5, 20, 5},
			target:    15,
			want:      []float64{2.5, 10, 2.5},
		},
		{
			name:      "equal clips share evenly",
			durations: []float64{10, 10},
			target:    10,
			want:      []float64{5, 5},
		},
		{
			name:      "single clip",
			durations: []float64{42},
			target:    7,
			want:      []float64{7},
		},
		{
			name:      "tiny target still represents every clip",
			durations: []float64{30, 60, 30},
			target:    0.3,
			want:      []float64{0.075, 0.15, 0.075},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans, err := Allocate(refsWithDurations(tt.durations...), tt.target)
			if err != nil {
				t.Fatalf("Allocate: %v", err)
			}
			if len(plans) != len(tt.want) {
				t.Fatalf("got %d plans, want %d", len(plans), len(tt.want))
			}
			var sum float64
			for i, p := range plans {
				if math.Abs(p.TrimmedDuration-tt.want[i]) > 1e-9 {
					t.Errorf("plan[%d]: got %v, want %v", i, p.TrimmedDuration, tt.want[i])
				}
				if p.TrimmedDuration > p.OriginalDuration {
					t.Errorf("plan[%d]: trimmed %v exceeds original %v", i, p.TrimmedDuration, p.OriginalDuration)
				}
				sum += p.TrimmedDuration
			}
			if math.Abs(sum-tt.target) > 1e-6 {
				t.Errorf("total %v, want %v", sum, tt.target)
			}
		})
	}
}

func TestAllocateNoTrimWhenTargetCoversTotal(t *testing.T) {
	for _, target := range []float64{30, 31, 1000} {
		plans, err := Allocate(refsWithDurations(10, 20), target)
		if err != nil {
			t.Fatalf("Allocate(target=%v): %v", target, err)
		}
		for i, p := range plans {
			if p.TrimmedDuration != p.OriginalDuration {
				t.Errorf("target=%v plan[%d]: got %v, want untrimmed %v", target, i, p.TrimmedDuration, p.OriginalDuration)
			}
		}
	}
}

func TestAllocateValidation(t *testing.T) {
	tests := []struct {
		name   string
		clips  []ClipReference
		target float64
	}{
		{"no clips", nil, 10},
		{"zero target", refsWithDurations(10), 0},
		{"negative target", refsWithDurations(10), -5},
		{"zero-duration clip", refsWithDurations(10, 0), 5},
		{"negative-duration clip", refsWithDurations(-1), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Allocate(tt.clips, tt.target)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if _, ok := err.(*ValidationError); !ok {
				t.Fatalf("expected *ValidationError, got %T: %v", err, err)
			}
		})
	}
}
