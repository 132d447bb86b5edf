package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sobarine21/vexsnip/internal/domain/entity"
	"github.com/sobarine21/vexsnip/internal/domain/port"
	"github.com/sobarine21/vexsnip/internal/infra/metrics"
	"github.com/sobarine21/vexsnip/internal/sampling"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// BatchRunner runs the sampling engine over a batch of local video paths.
type BatchRunner interface {
	Run(ctx context.Context, videoPaths []string, cfg sampling.Config, outputDir string, progress sampling.ProgressSink) sampling.BatchResult
}

// ProgressFactory binds a job id to a progress sink. A nil factory
// disables progress reporting.
type ProgressFactory func(jobID uuid.UUID) sampling.ProgressSink

type ProcessBatchUseCase struct {
	storage   port.VideoStorage
	runner    BatchRunner
	archiver  port.Archiver
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	progress  ProgressFactory
	logger    *zap.Logger
	tempDir   string
	maxRetry  int
}

type ProcessBatchConfig struct {
	TempDir    string
	MaxRetries int
}

func NewProcessBatchUseCase(
	storage port.VideoStorage,
	runner BatchRunner,
	archiver port.Archiver,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	progress ProgressFactory,
	logger *zap.Logger,
	cfg ProcessBatchConfig,
) *ProcessBatchUseCase {
	return &ProcessBatchUseCase{
		storage:   storage,
		runner:    runner,
		archiver:  archiver,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		progress:  progress,
		logger:    logger,
		tempDir:   cfg.TempDir,
		maxRetry:  cfg.MaxRetries,
	}
}

// Execute drives one batch request end to end. Per-video outcomes never
// fail the batch; only infrastructure stages (download, archive, upload)
// are retryable, and exhausted retries end in the DLQ.
func (uc *ProcessBatchUseCase) Execute(ctx context.Context, rawMsg []byte, attempt int) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessBatchUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.BatchRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("batch.id", msg.JobID.String()),
		attribute.Int("batch.videos", len(msg.VideoKeys)),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("user_id", msg.UserID))

	job := entity.NewBatchJob(msg.JobID, msg.UserID, msg.VideoKeys, attempt, uc.maxRetry)

	if len(msg.VideoKeys) == 0 {
		log.Warn("batch has no videos, sending to DLQ")
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "empty_batch")
		return nil
	}

	cfg := samplingConfig(msg)
	if err := cfg.Validate(); err != nil {
		log.Warn("invalid sampling config", zap.Error(err))
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "invalid_config: "+err.Error())
	}
	// The request surface accepts 1..30 fps; the core itself only requires
	// >= 1 and degrades gracefully above the native rate.
	if cfg.TargetFPS > 30 {
		log.Warn("target fps out of range", zap.Float64("target_fps", cfg.TargetFPS))
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "invalid_config: target fps above 30")
	}

	if !job.CanRetry() {
		log.Warn("batch exhausted retries, sending to DLQ")
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
	}

	job.MarkProcessing()
	metrics.ActiveBatches.Inc()
	defer metrics.ActiveBatches.Dec()

	if err := uc.processBatchPipeline(ctx, job, msg, rawMsg, cfg, log); err != nil {
		return err
	}

	metrics.BatchesProcessedTotal.WithLabelValues("completed").Inc()
	metrics.BatchStageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *ProcessBatchUseCase) processBatchPipeline(
	ctx context.Context,
	job *entity.BatchJob,
	msg entity.BatchRequestMessage,
	rawMsg []byte,
	cfg sampling.Config,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, job.ID.String())
	videosDir := filepath.Join(workDir, "videos")
	framesDir := filepath.Join(workDir, "frames")
	for _, dir := range []string{videosDir, framesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create workdir: %w", err)
		}
	}
	defer os.RemoveAll(workDir)

	// Download every accepted video from object storage. Keys with an
	// unsupported container extension are rejected per video, not per
	// batch.
	dlStart := time.Now()
	ctxDl, spanDl := tracer.Start(ctx, "download_videos")
	var localPaths []string
	var rejected []sampling.VideoResult
	for _, key := range msg.VideoKeys {
		if !entity.IsSupportedVideo(key) {
			log.Warn("rejecting unsupported container", zap.String("video_key", key))
			rejected = append(rejected, sampling.VideoResult{
				VideoName: key,
				Status:    sampling.StatusFailed,
				Reason:    "unsupported container extension",
			})
			continue
		}
		destPath := filepath.Join(videosDir, filepath.Base(key))
		if err := uc.storage.DownloadVideo(ctxDl, key, destPath); err != nil {
			spanDl.End()
			log.Error("failed to download video", zap.String("video_key", key), zap.Error(err))
			return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), log)
		}
		localPaths = append(localPaths, destPath)
	}
	spanDl.End()
	metrics.BatchStageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Sample frames. Orchestration always completes; individual video
	// failures are carried in the result.
	smpStart := time.Now()
	ctxSmp, spanSmp := tracer.Start(ctx, "sample_frames")
	result := uc.runner.Run(ctxSmp, localPaths, cfg, framesDir, uc.progressSink(job.ID))
	spanSmp.End()
	result.Videos = append(result.Videos, rejected...)
	metrics.BatchStageDuration.WithLabelValues("sample").Observe(time.Since(smpStart).Seconds())
	metrics.FramesSampledTotal.Add(float64(result.TotalSavedFrames))
	for _, v := range result.Videos {
		metrics.VideosProcessedTotal.WithLabelValues(string(v.Status)).Inc()
	}

	// Package the shared output area into the single deliverable. A
	// failure here is batch-fatal: there is no partial archive.
	zipStart := time.Now()
	ctxZip, spanZip := tracer.Start(ctx, "create_archive")
	archivePath := filepath.Join(workDir, "extracted_frames.zip")
	if err := uc.archiver.CreateArchive(ctxZip, framesDir, archivePath); err != nil {
		spanZip.End()
		log.Error("archive creation failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "create_archive: "+err.Error(), log)
	}
	spanZip.End()
	metrics.BatchStageDuration.WithLabelValues("archive").Observe(time.Since(zipStart).Seconds())

	// Upload the archive.
	upStart := time.Now()
	ctxUp, spanUp := tracer.Start(ctx, "upload_archive")
	archiveKey := fmt.Sprintf("%s/frames_%s.zip", msg.UserID, job.ID.String())
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		spanUp.End()
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "open_archive: "+err.Error(), log)
	}
	stat, err := archiveFile.Stat()
	if err != nil {
		archiveFile.Close()
		spanUp.End()
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "stat_archive: "+err.Error(), log)
	}
	if err := uc.storage.UploadArchive(ctxUp, archiveKey, archiveFile, stat.Size()); err != nil {
		archiveFile.Close()
		spanUp.End()
		log.Error("archive upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_archive: "+err.Error(), log)
	}
	archiveFile.Close()
	spanUp.End()
	metrics.BatchStageDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	job.MarkCompleted(archiveKey, result.TotalSavedFrames, result.TotalDurationSeconds)
	uc.publishStatus(ctx, job, result.Videos, log)

	log.Info("batch completed",
		zap.Int("videos", len(result.Videos)),
		zap.Int("total_frames", result.TotalSavedFrames),
		zap.Float64("total_duration_secs", result.TotalDurationSeconds),
		zap.String("archive_key", archiveKey),
	)

	return nil
}

func (uc *ProcessBatchUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.BatchJob,
	msg entity.BatchRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, nil, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *ProcessBatchUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.BatchJob,
	msg entity.BatchRequestMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, nil, uc.logger)

	metrics.BatchesProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), len(msg.VideoKeys), errMsg)
	}

	return nil
}

func (uc *ProcessBatchUseCase) publishStatus(ctx context.Context, job *entity.BatchJob, videos []sampling.VideoResult, log *zap.Logger) {
	statusMsg := entity.BatchStatusMessage{
		JobID:         job.ID,
		UserID:        job.UserID,
		Status:        job.Status,
		ArchiveKey:    job.ArchiveKey,
		Videos:        outcomes(videos),
		TotalFrames:   job.TotalFrames,
		TotalDuration: job.TotalDuration,
		ErrorMessage:  job.ErrorMessage,
		Attempt:       job.Attempt,
		MaxAttempts:   job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}

func (uc *ProcessBatchUseCase) progressSink(jobID uuid.UUID) sampling.ProgressSink {
	if uc.progress == nil {
		return sampling.NopSink{}
	}
	return uc.progress(jobID)
}

func outcomes(videos []sampling.VideoResult) []entity.VideoOutcome {
	if len(videos) == 0 {
		return nil
	}
	out := make([]entity.VideoOutcome, 0, len(videos))
	for _, v := range videos {
		out = append(out, entity.VideoOutcome{
			VideoName:       v.VideoName,
			Status:          string(v.Status),
			SavedFrames:     v.SavedFrames,
			DurationSeconds: v.DurationSeconds,
			Error:           v.Reason,
		})
	}
	return out
}

func samplingConfig(msg entity.BatchRequestMessage) sampling.Config {
	cfg := sampling.Config{
		TargetFPS:       msg.TargetFPS,
		IntervalSeconds: msg.IntervalSeconds,
		JPEGQuality:     msg.JPEGQuality,
	}
	if cfg.IntervalSeconds == 0 {
		cfg.IntervalSeconds = 1
	}
	if msg.ResizeWidth > 0 || msg.ResizeHeight > 0 {
		cfg.Resize = &sampling.Dimensions{Width: msg.ResizeWidth, Height: msg.ResizeHeight}
	}
	return cfg
}
