package sampling

import (
	"context"
	"errors"
	"image"
)

// ErrUnreadable marks a video whose native frame rate (or geometry) cannot
// be determined. The engine treats it as skip-and-continue, never as a
// batch failure.
var ErrUnreadable = errors.New("unreadable video source")

// Metadata describes an opened video stream.
type Metadata struct {
	FrameRate       float64
	Width           int
	Height          int
	DurationSeconds float64 // best-effort, 0 when the container reports nothing
}

// Source is a sequential, forward-only stream of decoded frames. NextFrame
// returns io.EOF once the stream is exhausted. Close must be safe to call
// on every exit path, including mid-stream.
type Source interface {
	Metadata() Metadata
	NextFrame() (image.Image, error)
	Close() error
}

// Opener opens a video file for sequential decoding.
type Opener interface {
	Open(ctx context.Context, path string) (Source, error)
}

// ProgressSink receives per-video progress fractions in [0,1]. Report is
// fire-and-forget: implementations must not block and must swallow their
// own delivery failures.
type ProgressSink interface {
	Report(videoName string, fraction float64)
}

// NopSink discards progress reports.
type NopSink struct{}

func (NopSink) Report(string, float64) {}
