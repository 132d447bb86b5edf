package sampling

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Engine drives one video through a full decode pass: every native frame is
// read, the keep condition selects frames at roughly TargetFPS per native
// second, kept frames are transformed and written into the output area.
type Engine struct {
	opener Opener
	logger *zap.Logger

	// overridable in tests
	newTransform func(Config) Transformer
}

func NewEngine(opener Opener, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		opener:       opener,
		logger:       logger,
		newTransform: func(cfg Config) Transformer { return NewTransform(cfg) },
	}
}

// Run scans one video and writes its kept frames into outputDir. Files are
// named {videoBaseName}_frame_{timestampSeconds}.jpg, so re-running the
// same video with the same config reproduces the same filename set. Two
// frame indices flooring to the same timestamp overwrite each other; the
// last write wins.
//
// Unreadable sources and per-frame transform failures are absorbed; only
// decode or output I/O errors mid-scan fail the video, and even those never
// escape as an error — every outcome is a VideoResult.
func (e *Engine) Run(ctx context.Context, videoPath string, cfg Config, outputDir string, progress ProgressSink) VideoResult {
	if progress == nil {
		progress = NopSink{}
	}
	name := baseName(videoPath)
	log := e.logger.With(zap.String("video", name))

	src, err := e.opener.Open(ctx, videoPath)
	if err != nil {
		log.Warn("skipping video, source unreadable", zap.Error(err))
		return VideoResult{VideoName: name, Status: StatusSkippedFPS}
	}
	defer src.Close()

	meta := src.Metadata()
	if meta.FrameRate <= 0 {
		log.Warn("skipping video, unable to determine fps")
		return VideoResult{VideoName: name, Status: StatusSkippedFPS}
	}

	interval := frameInterval(meta.FrameRate, cfg.TargetFPS)
	transform := e.newTransform(cfg)
	estimatedFrames := meta.DurationSeconds * meta.FrameRate

	frameIndex := 0
	saved := 0
	for {
		if err := ctx.Err(); err != nil {
			return e.failed(name, meta, frameIndex, saved, err)
		}

		frame, err := src.NextFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Error("decode failed mid-stream", zap.Int("frame_index", frameIndex), zap.Error(err))
			return e.failed(name, meta, frameIndex, saved, err)
		}

		if frameIndex%interval == 0 {
			timestamp := int(float64(frameIndex) / meta.FrameRate)
			data, err := transform.Encode(frame)
			if err != nil {
				// Per-frame recoverable: skip this frame, keep scanning.
				log.Warn("frame transform failed, skipping frame",
					zap.Int("frame_index", frameIndex), zap.Error(err))
			} else {
				filename := fmt.Sprintf("%s_frame_%d.jpg", name, timestamp)
				if err := os.WriteFile(filepath.Join(outputDir, filename), data, 0o644); err != nil {
					return e.failed(name, meta, frameIndex, saved, fmt.Errorf("write frame: %w", err))
				}
				saved++
			}
		}

		frameIndex++
		if estimatedFrames > 0 {
			fraction := float64(frameIndex) / estimatedFrames
			if fraction > 1 {
				fraction = 1
			}
			progress.Report(name, fraction)
		}
	}

	progress.Report(name, 1)
	return VideoResult{
		VideoName:       name,
		SavedFrames:     saved,
		DurationSeconds: duration(meta, frameIndex),
		Status:          StatusOK,
	}
}

func (e *Engine) failed(name string, meta Metadata, frames, saved int, err error) VideoResult {
	return VideoResult{
		VideoName:       name,
		SavedFrames:     saved,
		DurationSeconds: duration(meta, frames),
		Status:          StatusFailed,
		Reason:          err.Error(),
	}
}

// duration prefers the container-reported value and falls back to
// frames-read over native rate. Best-effort either way.
func duration(meta Metadata, framesRead int) float64 {
	if meta.DurationSeconds > 0 {
		return meta.DurationSeconds
	}
	if meta.FrameRate > 0 {
		return float64(framesRead) / meta.FrameRate
	}
	return 0
}

func baseName(videoPath string) string {
	base := filepath.Base(videoPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
