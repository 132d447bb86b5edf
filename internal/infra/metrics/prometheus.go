package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vexsnip_batches_processed_total",
		Help: "Total number of batches processed, by status",
	}, []string{"status"})

	BatchStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vexsnip_batch_stage_duration_seconds",
		Help:    "Duration of batch pipeline stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	VideosProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vexsnip_videos_processed_total",
		Help: "Total number of videos processed, by outcome",
	}, []string{"outcome"})

	FramesSampledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vexsnip_frames_sampled_total",
		Help: "Total number of frames saved across all batches",
	})

	ActiveBatches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vexsnip_active_batches",
		Help: "Number of batches currently being processed",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vexsnip_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
