package sampling

import "fmt"

// Dimensions is an exact resize target. Aspect ratio is the caller's
// responsibility; no letterboxing is applied.
type Dimensions struct {
	Width  int
	Height int
}

// Config describes the extraction intent for one batch. It is passed by
// value into every run and shared read-only across concurrent videos.
type Config struct {
	// TargetFPS is the desired number of kept frames per native second.
	// Values above the native rate degrade to keeping every frame.
	TargetFPS float64

	// IntervalSeconds is a reserved multiplier on top of the fps-derived
	// interval. It is validated but not yet folded into the keep condition.
	IntervalSeconds int

	// Resize, when non-nil, scales every kept frame to these exact
	// dimensions before encoding.
	Resize *Dimensions

	// JPEGQuality is the encode quality factor 1..100. Zero means the
	// encoder default.
	JPEGQuality int
}

func (c Config) Validate() error {
	if c.TargetFPS < 1 {
		return fmt.Errorf("target fps must be >= 1, got %g", c.TargetFPS)
	}
	if c.IntervalSeconds < 1 {
		return fmt.Errorf("interval seconds must be >= 1, got %d", c.IntervalSeconds)
	}
	if c.Resize != nil && (c.Resize.Width < 1 || c.Resize.Height < 1) {
		return fmt.Errorf("resize dimensions must be >= 1, got %dx%d", c.Resize.Width, c.Resize.Height)
	}
	if c.JPEGQuality != 0 && (c.JPEGQuality < 1 || c.JPEGQuality > 100) {
		return fmt.Errorf("jpeg quality must be 1..100, got %d", c.JPEGQuality)
	}
	return nil
}

// frameInterval derives the number of native frames between two kept
// frames. Integer truncation makes the result an approximation of
// TargetFPS kept frames per second; it never drops below 1.
func frameInterval(nativeRate, targetFPS float64) int {
	if targetFPS <= 0 {
		return 1
	}
	interval := int(nativeRate / targetFPS)
	if interval < 1 {
		interval = 1
	}
	return interval
}
