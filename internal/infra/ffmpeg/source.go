package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"

	"github.com/sobarine21/vexsnip/internal/sampling"
	"go.uber.org/zap"
)

// Opener implements sampling.Opener on top of the ffmpeg binaries: ffprobe
// for metadata, ffmpeg for a raw rgb24 frame stream piped over stdout.
type Opener struct {
	logger *zap.Logger
}

func NewOpener(logger *zap.Logger) *Opener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Opener{logger: logger}
}

func (o *Opener) Open(ctx context.Context, videoPath string) (sampling.Source, error) {
	meta, err := Probe(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sampling.ErrUnreadable, err)
	}
	if meta.FrameRate <= 0 {
		return nil, fmt.Errorf("%w: fps unknown or zero", sampling.ErrUnreadable)
	}
	if meta.Width < 1 || meta.Height < 1 {
		return nil, fmt.Errorf("%w: degenerate geometry %dx%d", sampling.ErrUnreadable, meta.Width, meta.Height)
	}

	cmd := exec.CommandContext(ctx, ffmpegCmd,
		"-v", "error",
		"-i", videoPath,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	o.logger.Debug("ffmpeg frame stream started",
		zap.String("video", videoPath),
		zap.Float64("fps", meta.FrameRate),
		zap.Int("width", meta.Width),
		zap.Int("height", meta.Height),
	)

	return &source{
		cmd:    cmd,
		stdout: stdout,
		stderr: &stderr,
		meta:   meta,
		buf:    make([]byte, meta.Width*meta.Height*3),
	}, nil
}

type source struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	meta   sampling.Metadata
	buf    []byte
	waited bool
}

func (s *source) Metadata() sampling.Metadata { return s.meta }

// NextFrame reads exactly one rgb24 frame. A clean EOF is only reported
// after ffmpeg itself exited cleanly; an early exit or a truncated frame
// surfaces as a decode error.
func (s *source) NextFrame() (image.Image, error) {
	_, err := io.ReadFull(s.stdout, s.buf)
	switch err {
	case nil:
	case io.EOF:
		s.waited = true
		if werr := s.cmd.Wait(); werr != nil {
			return nil, fmt.Errorf("ffmpeg exited: %v: %s", werr, trimStderr(s.stderr))
		}
		return nil, io.EOF
	case io.ErrUnexpectedEOF:
		s.waited = true
		_ = s.cmd.Wait()
		return nil, fmt.Errorf("truncated frame: %s", trimStderr(s.stderr))
	default:
		return nil, fmt.Errorf("read frame: %w", err)
	}

	frame := image.NewNRGBA(image.Rect(0, 0, s.meta.Width, s.meta.Height))
	for i, j := 0, 0; i < len(s.buf); i, j = i+3, j+4 {
		frame.Pix[j] = s.buf[i]
		frame.Pix[j+1] = s.buf[i+1]
		frame.Pix[j+2] = s.buf[i+2]
		frame.Pix[j+3] = 0xff
	}
	return frame, nil
}

func (s *source) Close() error {
	err := s.stdout.Close()
	if !s.waited {
		s.waited = true
		// Closing stdout mid-stream makes ffmpeg exit; the status is
		// irrelevant on this path.
		_ = s.cmd.Wait()
	}
	return err
}

func trimStderr(buf *bytes.Buffer) string {
	const max = 512
	s := buf.String()
	if len(s) > max {
		s = s[len(s)-max:]
	}
	if s == "" {
		s = "no ffmpeg diagnostics"
	}
	return s
}
