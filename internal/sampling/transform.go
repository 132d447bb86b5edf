package sampling

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// Transformer turns a decoded frame into an encodable image payload.
type Transformer interface {
	Encode(frame image.Image) ([]byte, error)
}

// Transform is the pure resize+encode step applied to every kept frame.
type Transform struct {
	resize  *Dimensions
	quality int
}

func NewTransform(cfg Config) Transform {
	quality := cfg.JPEGQuality
	if quality == 0 {
		quality = jpeg.DefaultQuality
	}
	return Transform{resize: cfg.Resize, quality: quality}
}

func (t Transform) Encode(frame image.Image) ([]byte, error) {
	if frame == nil {
		return nil, fmt.Errorf("nil frame")
	}
	if t.resize != nil {
		if t.resize.Width < 1 || t.resize.Height < 1 {
			return nil, fmt.Errorf("degenerate resize dimensions %dx%d", t.resize.Width, t.resize.Height)
		}
		dst := image.NewNRGBA(image.Rect(0, 0, t.resize.Width, t.resize.Height))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame, frame.Bounds(), draw.Src, nil)
		frame = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: t.quality}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}
