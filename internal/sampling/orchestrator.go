package sampling

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Orchestrator fans a batch of videos out over a worker pool, one engine
// run per video. The output area is shared: filenames are namespaced by
// video name, so concurrent runs never collide across videos.
type Orchestrator struct {
	engine  *Engine
	workers int
	logger  *zap.Logger
}

// NewOrchestrator builds an orchestrator with the given pool bound.
// workers <= 0 means one worker per submitted video (no artificial cap).
func NewOrchestrator(engine *Engine, workers int, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{engine: engine, workers: workers, logger: logger}
}

// Run processes every path and returns the aggregate. Orchestration always
// completes: a skipped or failed video contributes zero to the totals but
// still appears in the result. On cancellation, videos not yet dispatched
// are reported as failed with the context error; in-flight runs stop at
// their next frame-read boundary.
func (o *Orchestrator) Run(ctx context.Context, videoPaths []string, cfg Config, outputDir string, progress ProgressSink) BatchResult {
	var batch BatchResult
	if len(videoPaths) == 0 {
		return batch
	}

	workers := o.workers
	if workers <= 0 || workers > len(videoPaths) {
		workers = len(videoPaths)
	}

	jobs := make(chan string)
	results := make(chan VideoResult, len(videoPaths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- o.engine.Run(ctx, path, cfg, outputDir, progress)
			}
		}()
	}

	o.logger.Debug("batch dispatch started",
		zap.Int("videos", len(videoPaths)), zap.Int("workers", workers))

	for _, path := range videoPaths {
		if err := ctx.Err(); err != nil {
			results <- VideoResult{VideoName: baseName(path), Status: StatusFailed, Reason: err.Error()}
			continue
		}
		jobs <- path
	}
	close(jobs)
	wg.Wait()
	close(results)

	// Channel order is completion order.
	for r := range results {
		batch.add(r)
	}
	return batch
}
