package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sobarine21/vexsnip/internal/sampling"
)

var (
	ffprobeCmd = "ffprobe"
	ffmpegCmd  = "ffmpeg"
)

// Probe queries stream metadata via ffprobe. The frame rate comes back as a
// rational string ("30000/1001"); a zero denominator or zero rate means the
// source is unreadable for sampling purposes.
func Probe(ctx context.Context, videoPath string) (sampling.Metadata, error) {
	var meta sampling.Metadata

	cmd := exec.CommandContext(ctx, ffprobeCmd,
		"-v", "error",
		"-select_streams", "v:0",
		"-of", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return meta, fmt.Errorf("ffprobe %s: %w", videoPath, err)
	}

	return parseProbeOutput(out)
}

func parseProbeOutput(out []byte) (sampling.Metadata, error) {
	var meta sampling.Metadata

	type stream struct {
		FrameRate string  `json:"r_frame_rate,omitempty"`
		AvgRate   string  `json:"avg_frame_rate,omitempty"`
		Duration  float64 `json:"duration,omitempty,string"`
		Width     int     `json:"width,omitempty"`
		Height    int     `json:"height,omitempty"`
	}
	probed := &struct {
		Streams []stream
		Format  struct {
			Duration float64 `json:"duration,omitempty,string"`
		}
	}{}
	if err := json.Unmarshal(out, probed); err != nil {
		return meta, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(probed.Streams) == 0 {
		return meta, fmt.Errorf("no video stream found")
	}

	s := probed.Streams[0]
	rate := parseRational(s.FrameRate)
	if rate <= 0 {
		rate = parseRational(s.AvgRate)
	}

	meta.FrameRate = rate
	meta.Width = s.Width
	meta.Height = s.Height
	// Some containers (mkv) only report duration at format level.
	meta.DurationSeconds = math.Max(s.Duration, probed.Format.Duration)
	return meta, nil
}

// parseRational handles ffprobe's "num/den" frame rate form as well as a
// plain float. Returns 0 for anything unparsable or degenerate.
func parseRational(s string) float64 {
	if s == "" {
		return 0
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN != nil || errD != nil || d == 0 {
			return 0
		}
		return n / d
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
