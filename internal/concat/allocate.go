package concat

import "fmt"

// Allocate computes per-clip trimmed durations so the concatenated output
// matches targetSeconds. When the target is shorter than the combined length,
// every clip is scaled proportionally to its contribution instead of
// truncating from the end, so each clip stays represented in the output. When
// the target is at least the combined length, clips pass through untrimmed;
// the output is never padded or stretched.
//
// No minimum per-clip duration is enforced: with a very small target a clip
// may be allocated near-zero seconds.
func Allocate(clips []ClipReference, targetSeconds float64) ([]TrimPlan, error) {
	if len(clips) == 0 {
		return nil, &ValidationError{Reason: "no clips to allocate"}
	}
	if targetSeconds <= 0 {
		return nil, &ValidationError{Reason: fmt.Sprintf("target duration must be positive, got %v", targetSeconds)}
	}

	// Left-to-right summation keeps results reproducible.
	var total float64
	for _, c := range clips {
		if c.DurationSeconds <= 0 {
			return nil, &ValidationError{Reason: fmt.Sprintf("clip %s has non-positive duration %v", c.ID, c.DurationSeconds)}
		}
		total += c.DurationSeconds
	}

	plans := make([]TrimPlan, len(clips))
	if targetSeconds >= total {
		for i, c := range clips {
			plans[i] = TrimPlan{ClipID: c.ID, OriginalDuration: c.DurationSeconds, TrimmedDuration: c.DurationSeconds}
		}
		return plans, nil
	}

	scale := targetSeconds / total
	for i, c := range clips {
		plans[i] = TrimPlan{
			ClipID:           c.ID,
			OriginalDuration: c.DurationSeconds,
			TrimmedDuration:  c.DurationSeconds * scale,
		}
	}
	return plans, nil
}
