package sampling

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sourceSpec describes a synthetic video for one fake opener entry.
type sourceSpec struct {
	meta    Metadata
	frames  int
	openErr error
	errAt   int // 1-based frame read that fails; 0 = never
	readErr error
}

type fakeSource struct {
	spec   sourceSpec
	read   int
	closed bool
}

func (s *fakeSource) Metadata() Metadata { return s.spec.meta }

func (s *fakeSource) NextFrame() (image.Image, error) {
	if s.spec.errAt > 0 && s.read+1 == s.spec.errAt {
		return nil, s.spec.readErr
	}
	if s.read >= s.spec.frames {
		return nil, io.EOF
	}
	s.read++
	return image.NewNRGBA(image.Rect(0, 0, 8, 8)), nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeOpener struct {
	specs  map[string]sourceSpec
	opened []*fakeSource
}

func (o *fakeOpener) Open(_ context.Context, path string) (Source, error) {
	spec, ok := o.specs[path]
	if !ok {
		return nil, fmt.Errorf("%w: unknown fixture %s", ErrUnreadable, path)
	}
	if spec.openErr != nil {
		return nil, spec.openErr
	}
	src := &fakeSource{spec: spec}
	o.opened = append(o.opened, src)
	return src, nil
}

func singleOpener(path string, spec sourceSpec) *fakeOpener {
	return &fakeOpener{specs: map[string]sourceSpec{path: spec}}
}

func listFrameFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestEngineSkipsVideoWithZeroFPS(t *testing.T) {
	dir := t.TempDir()
	opener := singleOpener("bad.mp4", sourceSpec{
		meta:   Metadata{FrameRate: 0, Width: 8, Height: 8},
		frames: 100,
	})
	engine := NewEngine(opener, nil)

	res := engine.Run(context.Background(), "bad.mp4", Config{TargetFPS: 1, IntervalSeconds: 1}, dir, nil)

	assert.Equal(t, StatusSkippedFPS, res.Status)
	assert.Equal(t, 0, res.SavedFrames)
	assert.Empty(t, listFrameFiles(t, dir))
	require.Len(t, opener.opened, 1)
	assert.True(t, opener.opened[0].closed, "handle must be released on skip")
	assert.Equal(t, 0, opener.opened[0].read, "no frame reads after fps check")
}

func TestEngineSkipsVideoThatFailsToOpen(t *testing.T) {
	dir := t.TempDir()
	opener := singleOpener("gone.mp4", sourceSpec{openErr: fmt.Errorf("%w: no stream", ErrUnreadable)})
	engine := NewEngine(opener, nil)

	res := engine.Run(context.Background(), "gone.mp4", Config{TargetFPS: 1, IntervalSeconds: 1}, dir, nil)

	assert.Equal(t, StatusSkippedFPS, res.Status)
	assert.Equal(t, 0, res.SavedFrames)
}

func TestEngineSamplesTenSecondsAtOneFPS(t *testing.T) {
	dir := t.TempDir()
	opener := singleOpener("clip.mp4", sourceSpec{
		meta:   Metadata{FrameRate: 30, Width: 8, Height: 8, DurationSeconds: 10},
		frames: 300,
	})
	engine := NewEngine(opener, nil)

	res := engine.Run(context.Background(), "clip.mp4", Config{TargetFPS: 1, IntervalSeconds: 1}, dir, nil)

	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 10, res.SavedFrames)
	assert.InDelta(t, 10, res.DurationSeconds, 0.001)

	want := make([]string, 0, 10)
	for ts := 0; ts < 10; ts++ {
		want = append(want, fmt.Sprintf("clip_frame_%d.jpg", ts))
	}
	sort.Strings(want)
	assert.Equal(t, want, listFrameFiles(t, dir))
	assert.True(t, opener.opened[0].closed)
}

func TestEngineKeepsEveryFrameWhenTargetExceedsNative(t *testing.T) {
	dir := t.TempDir()
	opener := singleOpener("slow.mp4", sourceSpec{
		meta:   Metadata{FrameRate: 2, Width: 8, Height: 8, DurationSeconds: 5},
		frames: 10,
	})
	engine := NewEngine(opener, nil)

	res := engine.Run(context.Background(), "slow.mp4", Config{TargetFPS: 30, IntervalSeconds: 1}, dir, nil)

	require.Equal(t, StatusOK, res.Status)
	// Interval floors to 1, so every native frame is kept. Two indices per
	// second floor to the same timestamp; the overwrite leaves 5 files.
	assert.Equal(t, 10, res.SavedFrames)
	assert.Len(t, listFrameFiles(t, dir), 5)
}

func TestEngineFilenamesAreDeterministic(t *testing.T) {
	cfg := Config{TargetFPS: 3, IntervalSeconds: 1}
	spec := sourceSpec{
		meta:   Metadata{FrameRate: 24, Width: 8, Height: 8, DurationSeconds: 4},
		frames: 96,
	}

	run := func() []string {
		dir := t.TempDir()
		engine := NewEngine(singleOpener("same.mp4", spec), nil)
		res := engine.Run(context.Background(), "same.mp4", cfg, dir, nil)
		require.Equal(t, StatusOK, res.Status)
		return listFrameFiles(t, dir)
	}

	first := run()
	second := run()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestEngineFailsOnMidStreamDecodeError(t *testing.T) {
	dir := t.TempDir()
	opener := singleOpener("corrupt.mp4", sourceSpec{
		meta:    Metadata{FrameRate: 10, Width: 8, Height: 8, DurationSeconds: 10},
		frames:  100,
		errAt:   25,
		readErr: fmt.Errorf("bitstream error"),
	})
	engine := NewEngine(opener, nil)

	res := engine.Run(context.Background(), "corrupt.mp4", Config{TargetFPS: 10, IntervalSeconds: 1}, dir, nil)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Reason, "bitstream error")
	assert.Equal(t, 24, res.SavedFrames, "frames before the error stay saved")
	assert.True(t, opener.opened[0].closed, "handle must be released on failure")
}

type flakyTransform struct {
	inner Transform
	n     int
}

func (f *flakyTransform) Encode(frame image.Image) ([]byte, error) {
	f.n++
	if f.n%2 == 0 {
		return nil, fmt.Errorf("encode blew up")
	}
	return f.inner.Encode(frame)
}

func TestEngineSkipsFramesThatFailTransform(t *testing.T) {
	dir := t.TempDir()
	opener := singleOpener("clip.mp4", sourceSpec{
		meta:   Metadata{FrameRate: 1, Width: 8, Height: 8, DurationSeconds: 10},
		frames: 10,
	})
	engine := NewEngine(opener, nil)
	engine.newTransform = func(cfg Config) Transformer {
		return &flakyTransform{inner: NewTransform(cfg)}
	}

	res := engine.Run(context.Background(), "clip.mp4", Config{TargetFPS: 1, IntervalSeconds: 1}, dir, nil)

	require.Equal(t, StatusOK, res.Status, "transform failures are per-frame recoverable")
	assert.Equal(t, 5, res.SavedFrames)
	assert.Len(t, listFrameFiles(t, dir), 5)
}

func TestEngineStopsOnCancelledContext(t *testing.T) {
	dir := t.TempDir()
	opener := singleOpener("clip.mp4", sourceSpec{
		meta:   Metadata{FrameRate: 1, Width: 8, Height: 8, DurationSeconds: 10},
		frames: 10,
	})
	engine := NewEngine(opener, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := engine.Run(ctx, "clip.mp4", Config{TargetFPS: 1, IntervalSeconds: 1}, dir, nil)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Reason, context.Canceled.Error())
	assert.True(t, opener.opened[0].closed, "handle must be released on cancellation")
}

type recordingSink struct {
	videos    map[string]bool
	fractions []float64
}

func (r *recordingSink) Report(video string, fraction float64) {
	if r.videos == nil {
		r.videos = make(map[string]bool)
	}
	r.videos[video] = true
	r.fractions = append(r.fractions, fraction)
}

func TestEngineReportsProgress(t *testing.T) {
	dir := t.TempDir()
	opener := singleOpener("clip.mp4", sourceSpec{
		meta:   Metadata{FrameRate: 5, Width: 8, Height: 8, DurationSeconds: 2},
		frames: 10,
	})
	engine := NewEngine(opener, nil)
	sink := &recordingSink{}

	res := engine.Run(context.Background(), "clip.mp4", Config{TargetFPS: 1, IntervalSeconds: 1}, dir, sink)

	require.Equal(t, StatusOK, res.Status)
	assert.True(t, sink.videos["clip"])
	require.NotEmpty(t, sink.fractions)
	for _, f := range sink.fractions {
		assert.GreaterOrEqual(t, f, 0.0)
		assert.LessOrEqual(t, f, 1.0)
	}
	assert.Equal(t, 1.0, sink.fractions[len(sink.fractions)-1])
}
