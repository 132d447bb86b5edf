package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"go.uber.org/zap"
)

// Host resource gauges. Purely advisory: nothing in the pipeline reads
// them, and a failing sample never affects processing.
var (
	hostCPUPercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vexsnip_host_cpu_percent",
		Help: "Host CPU utilisation percentage",
	})
	hostMemoryPercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vexsnip_host_memory_percent",
		Help: "Host memory utilisation percentage",
	})
	hostDiskPercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vexsnip_host_disk_percent",
		Help: "Utilisation percentage of the filesystem holding the temp dir",
	})
	hostNetBytesSent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vexsnip_host_net_bytes_sent_total",
		Help: "Cumulative bytes sent across host interfaces",
	})
	hostNetBytesRecv = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vexsnip_host_net_bytes_recv_total",
		Help: "Cumulative bytes received across host interfaces",
	})
)

// Collector periodically samples host metrics into the gauges above.
type Collector struct {
	interval time.Duration
	diskPath string
	logger   *zap.Logger
}

func NewCollector(interval time.Duration, diskPath string, logger *zap.Logger) *Collector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if diskPath == "" {
		diskPath = "/"
	}
	return &Collector{interval: interval, diskPath: diskPath, logger: logger}
}

// Start samples until ctx is cancelled.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sample(ctx)
			}
		}
	}()
}

func (c *Collector) sample(ctx context.Context) {
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		hostCPUPercent.Set(percents[0])
	} else if err != nil {
		c.logger.Debug("cpu sample failed", zap.Error(err))
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		hostMemoryPercent.Set(vm.UsedPercent)
	}

	if du, err := disk.UsageWithContext(ctx, c.diskPath); err == nil {
		hostDiskPercent.Set(du.UsedPercent)
	}

	if counters, err := net.IOCountersWithContext(ctx, false); err == nil && len(counters) > 0 {
		hostNetBytesSent.Set(float64(counters[0].BytesSent))
		hostNetBytesRecv.Set(float64(counters[0].BytesRecv))
	}
}
