package concat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// ffmpegStrategy trims and concatenates locally with ffmpeg (concat demuxer,
// stream copy). Used as the last resort instead of binary-concat when a local
// ffmpeg binary is available, since it produces a valid container.
type ffmpegStrategy struct {
	dl     *downloader
	logger *zap.Logger
}

func (s *ffmpegStrategy) Name() string { return "local-ffmpeg" }

func (s *ffmpegStrategy) Run(ctx context.Context, job *JobContext) (Result, error) {
	job.Emit(PhaseDownloading, 40)

	dir, err := os.MkdirTemp("", "export-"+job.JobID.String())
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(dir)

	// Sequential download keeps the plan index aligned with the file list.
	var entries []string
	for i, clip := range job.Clips {
		data, err := s.dl.fetch(ctx, clip.SourceURL)
		if err != nil {
			s.logger.Warn("clip download failed, dropping from output",
				zap.String("clip_id", clip.ID), zap.Error(err))
			continue
		}
		src := filepath.Join(dir, fmt.Sprintf("src-%02d.mp4", i))
		if err := os.WriteFile(src, data, 0o644); err != nil {
			return Result{}, err
		}
		trimmedPath := filepath.Join(dir, fmt.Sprintf("trim-%02d.mp4", i))
		err = ffmpeg.Input(src).
			Output(trimmedPath, ffmpeg.KwArgs{"t": fmt.Sprintf("%.3f", job.Plan[i].TrimmedDuration), "c": "copy"}).
			OverWriteOutput().Silent(true).Run()
		if err != nil {
			return Result{}, fmt.Errorf("trim clip %s: %w", clip.ID, err)
		}
		entries = append(entries, fmt.Sprintf("file '%s'", trimmedPath))
	}
	if len(entries) == 0 {
		return Result{}, &DownloadError{URL: "", Err: fmt.Errorf("all %d clip downloads failed", len(job.Clips))}
	}

	job.Emit(PhaseConcatenating, 55)
	listPath := filepath.Join(dir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(strings.Join(entries, "\n")+"\n"), 0o644); err != nil {
		return Result{}, err
	}
	outPath := filepath.Join(dir, "out.mp4")
	err = ffmpeg.Input(listPath, ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(outPath, ffmpeg.KwArgs{"c": "copy"}).
		OverWriteOutput().Silent(true).Run()
	if err != nil {
		return Result{}, fmt.Errorf("ffmpeg concat: %w", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return Result{}, err
	}
	return Result{Bytes: data, ContentType: "video/mp4"}, nil
}
