// Command vexsnip is the one-shot front end over the sampling core: local
// video paths in, a single extracted_frames.zip out. It needs no broker or
// object storage, only the ffmpeg binaries on PATH.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sobarine21/vexsnip/internal/domain/entity"
	"github.com/sobarine21/vexsnip/internal/infra/archive"
	"github.com/sobarine21/vexsnip/internal/infra/ffmpeg"
	"github.com/sobarine21/vexsnip/internal/sampling"
	"github.com/sobarine21/vexsnip/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		targetFPS = flag.Float64("fps", 1, "target sampled frames per second (1-30)")
		interval  = flag.Int("interval", 1, "interval multiplier in seconds (reserved)")
		width     = flag.Int("width", 0, "resize width (0 = keep native size)")
		height    = flag.Int("height", 0, "resize height (0 = keep native size)")
		quality   = flag.Int("quality", 0, "jpeg quality 1-100 (0 = encoder default)")
		workers   = flag.Int("workers", 0, "max concurrent videos (0 = no cap)")
		output    = flag.String("o", "extracted_frames.zip", "output archive path")
		sorted    = flag.Bool("sorted", false, "sort archive entries for reproducible output")
		logLevel  = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: vexsnip [flags] video...")
		flag.PrintDefaults()
		return 2
	}

	log, err := logger.New(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		return 1
	}
	defer log.Sync()

	cfg := sampling.Config{
		TargetFPS:       *targetFPS,
		IntervalSeconds: *interval,
		JPEGQuality:     *quality,
	}
	if *width > 0 || *height > 0 {
		cfg.Resize = &sampling.Dimensions{Width: *width, Height: *height}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		return 2
	}
	if cfg.TargetFPS > 30 {
		fmt.Fprintln(os.Stderr, "invalid config: target fps above 30")
		return 2
	}

	for _, path := range flag.Args() {
		if !entity.IsSupportedVideo(path) {
			fmt.Fprintf(os.Stderr, "unsupported container: %s\n", path)
			return 2
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	outputDir, err := os.MkdirTemp("", "vexsnip-frames-*")
	if err != nil {
		log.Error("create output area", zap.Error(err))
		return 1
	}
	defer os.RemoveAll(outputDir)

	engine := sampling.NewEngine(ffmpeg.NewOpener(log), log)
	orchestrator := sampling.NewOrchestrator(engine, *workers, log)

	result := orchestrator.Run(ctx, flag.Args(), cfg, outputDir, newConsoleSink())

	opts := []archive.Option{}
	if *sorted {
		opts = append(opts, archive.WithSortedEntries())
	}
	if err := archive.NewBuilder(opts...).CreateArchive(ctx, outputDir, *output); err != nil {
		log.Error("archive failed", zap.Error(err))
		return 1
	}

	printSummary(result, *output)
	return 0
}

func printSummary(result sampling.BatchResult, archivePath string) {
	fmt.Println("\n=== Batch Summary ===")
	for _, v := range result.Videos {
		switch v.Status {
		case sampling.StatusOK:
			fmt.Printf("%-30s %d frames (%.1fs)\n", v.VideoName, v.SavedFrames, v.DurationSeconds)
		case sampling.StatusSkippedFPS:
			fmt.Printf("%-30s skipped, unable to determine fps\n", v.VideoName)
		default:
			fmt.Printf("%-30s failed: %s\n", v.VideoName, v.Reason)
		}
	}
	fmt.Printf("Total frames: %d\n", result.TotalSavedFrames)
	fmt.Printf("Archive:      %s\n", archivePath)
}

// consoleSink prints per-video progress at decile steps.
type consoleSink struct {
	mu   sync.Mutex
	last map[string]int
}

func newConsoleSink() *consoleSink {
	return &consoleSink{last: make(map[string]int)}
}

func (s *consoleSink) Report(videoName string, fraction float64) {
	decile := int(fraction * 10)
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, seen := s.last[videoName]; seen && decile <= prev {
		return
	}
	s.last[videoName] = decile
	fmt.Fprintf(os.Stderr, "%s: %d%%\n", videoName, decile*10)
}
