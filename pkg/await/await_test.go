package await

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestReady_TimeoutAfterExactAttempts(t *testing.T) {
	calls := 0
	probe := func(context.Context) (bool, error) {
		calls++
		return false, nil
	}

	start := time.Now()
	err := Ready(context.Background(), "asset-1", probe, Options{MaxAttempts: 3, Interval: 10 * time.Millisecond})
	elapsed := time.Since(start)

	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if te.AssetID != "asset-1" || te.Attempts != 3 {
		t.Fatalf("unexpected timeout details: %+v", te)
	}
	if calls != 3 {
		t.Fatalf("expected exactly 3 probes, got %d", calls)
	}
	// Two waits of 10ms between three probes; allow slack for slow CI.
	if elapsed > 200*time.Millisecond {
		t.Fatalf("polling took too long: %v", elapsed)
	}
}

func TestReady_NoFurtherProbesAfterTimeout(t *testing.T) {
	calls := 0
	probe := func(context.Context) (bool, error) {
		calls++
		return false, nil
	}
	_ = Ready(context.Background(), "a", probe, Options{MaxAttempts: 2, Interval: time.Millisecond})
	got := calls
	time.Sleep(20 * time.Millisecond)
	if calls != got {
		t.Fatalf("probe fired after timeout: %d -> %d", got, calls)
	}
}

func TestReady_SucceedsMidway(t *testing.T) {
	calls := 0
	probe := func(context.Context) (bool, error) {
		calls++
		return calls == 2, nil
	}
	if err := Ready(context.Background(), "a", probe, Options{MaxAttempts: 5, Interval: time.Millisecond}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 probes, got %d", calls)
	}
}

func TestReady_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	probe := func(context.Context) (bool, error) {
		calls++
		if calls == 1 {
			cancel()
		}
		return false, nil
	}
	err := Ready(ctx, "a", probe, Options{MaxAttempts: 100, Interval: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected polling to stop after cancellation, got %d probes", calls)
	}
}

func TestReady_ProbeError(t *testing.T) {
	boom := errors.New("boom")
	err := Ready(context.Background(), "a", func(context.Context) (bool, error) {
		return false, boom
	}, Options{MaxAttempts: 3, Interval: time.Millisecond})
	if !errors.Is(err, boom) {
		t.Fatalf("expected probe error, got %v", err)
	}
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		failUntil int // fn fails for calls <= failUntil
		attempts  int
		wantCalls int
		wantErr   bool
	}{
		{"first try", 0, 3, 1, false},
		{"succeeds on last", 2, 3, 3, false},
		{"exhausted", 5, 3, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), tt.attempts, time.Millisecond, func(context.Context) error {
				calls++
				if calls <= tt.failUntil {
					return errors.New("transient")
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Millisecond, func(context.Context) error { return errors.New("x") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
