package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRational(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 29.97002997002997},
		{"25", 25},
		{"0/0", 0},
		{"1/0", 0},
		{"", 0},
		{"garbage", 0},
		{"x/y", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, parseRational(tt.in), 1e-9, "input %q", tt.in)
	}
}

func TestParseProbeOutput(t *testing.T) {
	out := []byte(`{
		"streams": [{
			"width": 1280,
			"height": 720,
			"r_frame_rate": "30000/1001",
			"avg_frame_rate": "30000/1001",
			"duration": "12.345"
		}],
		"format": {"duration": "12.400"}
	}`)

	meta, err := parseProbeOutput(out)
	require.NoError(t, err)
	assert.InDelta(t, 29.97, meta.FrameRate, 0.01)
	assert.Equal(t, 1280, meta.Width)
	assert.Equal(t, 720, meta.Height)
	// Format-level duration wins when larger (mkv reports it only there).
	assert.InDelta(t, 12.4, meta.DurationSeconds, 0.001)
}

func TestParseProbeOutputMkvDurationFallback(t *testing.T) {
	out := []byte(`{
		"streams": [{"width": 640, "height": 480, "r_frame_rate": "25/1"}],
		"format": {"duration": "3.000"}
	}`)

	meta, err := parseProbeOutput(out)
	require.NoError(t, err)
	assert.InDelta(t, 25, meta.FrameRate, 1e-9)
	assert.InDelta(t, 3.0, meta.DurationSeconds, 1e-9)
}

func TestParseProbeOutputFallsBackToAvgFrameRate(t *testing.T) {
	out := []byte(`{
		"streams": [{"width": 640, "height": 480, "r_frame_rate": "0/0", "avg_frame_rate": "24/1"}],
		"format": {}
	}`)

	meta, err := parseProbeOutput(out)
	require.NoError(t, err)
	assert.InDelta(t, 24, meta.FrameRate, 1e-9)
}

func TestParseProbeOutputNoStreams(t *testing.T) {
	_, err := parseProbeOutput([]byte(`{"streams": [], "format": {}}`))
	assert.Error(t, err)
}

func TestParseProbeOutputInvalidJSON(t *testing.T) {
	_, err := parseProbeOutput([]byte(`{not json`))
	assert.Error(t, err)
}
