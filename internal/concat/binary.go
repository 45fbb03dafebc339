package concat

import (
	"bytes"
	"context"

	"go.uber.org/zap"
)

// binaryStrategy downloads each clip's bytes and concatenates the streams in
// order. It is the last resort when no remote concatenation capability is
// available: the result is a valid container only when every clip shares the
// same codec and container, and the trim plan cannot be applied to raw bytes
// at all. Returning a best-effort file still beats failing the job outright.
type binaryStrategy struct {
	dl     *downloader
	logger *zap.Logger
}

func (s *binaryStrategy) Name() string { return "binary-concat" }

func (s *binaryStrategy) Run(ctx context.Context, job *JobContext) (Result, error) {
	job.Emit(PhaseDownloading, 40)
	payloads, err := s.dl.fetchAll(ctx, job.Clips)
	if err != nil {
		return Result{}, err
	}

	job.Emit(PhaseConcatenating, 55)
	var buf bytes.Buffer
	for _, p := range payloads {
		buf.Write(p)
	}
	return Result{Bytes: buf.Bytes(), ContentType: "video/mp4"}, nil
}
