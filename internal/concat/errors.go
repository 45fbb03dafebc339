package concat

import "fmt"

// ValidationError reports invalid job input (empty selection, non-positive
// durations). Surfaced before any network call, never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// AssetResolutionError means no resolvable clip URLs remain. Fatal to the job.
type AssetResolutionError struct {
	Reason string
}

func (e *AssetResolutionError) Error() string { return "asset resolution: " + e.Reason }

// RemoteStrategyError wraps a single concatenation strategy's failure.
type RemoteStrategyError struct {
	Strategy string
	Err      error
}

func (e *RemoteStrategyError) Error() string {
	return fmt.Sprintf("strategy %s: %v", e.Strategy, e.Err)
}

func (e *RemoteStrategyError) Unwrap() error { return e.Err }

// DownloadError reports a clip or intermediate asset that could not be fetched.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string { return fmt.Sprintf("download %s: %v", e.URL, e.Err) }

func (e *DownloadError) Unwrap() error { return e.Err }

// JobFailedError is the single consolidated failure the driver returns after
// every eligible strategy has been exhausted. It carries the last underlying
// cause.
type JobFailedError struct {
	LastStrategy string
	Err          error
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("export failed (last strategy %s): %v", e.LastStrategy, e.Err)
}

func (e *JobFailedError) Unwrap() error { return e.Err }
