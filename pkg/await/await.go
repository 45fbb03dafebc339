// Package await provides bounded polling for asynchronous remote resources
// and a shared retry-with-backoff helper. It replaces the per-call-site
// timeout loops the processing handlers used to carry individually.
package await

import (
	"context"
	"fmt"
	"time"
)

// TimeoutError is returned when polling exhausts its attempts without the
// resource becoming ready.
type TimeoutError struct {
	AssetID  string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("asset %s not ready after %d attempts", e.AssetID, e.Attempts)
}

// Options bounds a polling loop. Asset-availability checks and long-running
// renders need independently configured bounds, so callers pass their own.
type Options struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultAssetOptions suits availability checks on freshly created assets.
func DefaultAssetOptions() Options { return Options{MaxAttempts: 10, Interval: 2 * time.Second} }

// DefaultRenderOptions suits long-running remote renders.
func DefaultRenderOptions() Options { return Options{MaxAttempts: 60, Interval: 5 * time.Second} }

// Ready polls probe once per interval until it reports ready, the attempts
// are exhausted, or ctx is cancelled. The first probe fires immediately; no
// wait follows the final probe. Cancellation stops polling and releases the
// interval timer before returning.
func Ready(ctx context.Context, assetID string, probe func(context.Context) (bool, error), opts Options) error {
	if opts.MaxAttempts <= 0 {
		return &TimeoutError{AssetID: assetID}
	}
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		ready, err := probe(ctx)
		if err != nil {
			return fmt.Errorf("probe %s: %w", assetID, err)
		}
		if ready {
			return nil
		}
		if attempt >= opts.MaxAttempts {
			return &TimeoutError{AssetID: assetID, Attempts: attempt}
		}
		timer := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Retry runs fn up to attempts times with increasing backoff (initial, 2x,
// 3x, ...). The error from the last attempt is returned. A cancelled ctx
// stops further attempts immediately.
func Retry(ctx context.Context, attempts int, initial time.Duration, fn func(context.Context) error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		timer := time.NewTimer(time.Duration(i+1) * initial)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
