package sampling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"minimal valid", Config{TargetFPS: 1, IntervalSeconds: 1}, false},
		{"with resize and quality", Config{TargetFPS: 5, IntervalSeconds: 1, Resize: &Dimensions{Width: 320, Height: 240}, JPEGQuality: 85}, false},
		{"zero fps", Config{TargetFPS: 0, IntervalSeconds: 1}, true},
		{"fractional fps below one", Config{TargetFPS: 0.5, IntervalSeconds: 1}, true},
		{"zero interval", Config{TargetFPS: 1, IntervalSeconds: 0}, true},
		{"zero resize width", Config{TargetFPS: 1, IntervalSeconds: 1, Resize: &Dimensions{Width: 0, Height: 10}}, true},
		{"quality too high", Config{TargetFPS: 1, IntervalSeconds: 1, JPEGQuality: 101}, true},
		{"quality default sentinel", Config{TargetFPS: 1, IntervalSeconds: 1, JPEGQuality: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFrameInterval(t *testing.T) {
	tests := []struct {
		native float64
		target float64
		want   int
	}{
		{30, 1, 30},
		{30, 7, 4},  // truncation, not rounding
		{25, 10, 2},
		{24, 24, 1},
		{10, 30, 1}, // target above native floors at 1
		{29.97, 1, 29},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, frameInterval(tt.native, tt.target),
			"native=%g target=%g", tt.native, tt.target)
	}
}
