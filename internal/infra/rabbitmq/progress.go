package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sobarine21/vexsnip/internal/domain/entity"
	"github.com/sobarine21/vexsnip/internal/sampling"
	"go.uber.org/zap"
)

// ProgressPublisher forwards per-video progress fractions to the
// batch.progress routing key. Delivery is fire-and-forget: reports are
// dropped when the buffer is full and publish errors are only logged, so a
// slow or absent broker can never stall a sampling run.
type ProgressPublisher struct {
	pub        *Publisher
	routingKey string
	events     chan entity.ProgressMessage
	done       chan struct{}
	logger     *zap.Logger
}

func NewProgressPublisher(pub *Publisher, logger *zap.Logger) *ProgressPublisher {
	p := &ProgressPublisher{
		pub:        pub,
		routingKey: "batch.progress",
		events:     make(chan entity.ProgressMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
	go p.drain()
	return p
}

func (p *ProgressPublisher) drain() {
	defer close(p.done)
	for ev := range p.events {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = p.pub.channel.PublishWithContext(ctx,
			p.pub.exchange,
			p.routingKey,
			false, false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        data,
				Timestamp:   time.Now().UTC(),
			},
		)
		cancel()
		if err != nil {
			p.logger.Debug("progress publish dropped", zap.Error(err))
		}
	}
}

// Close stops the drain goroutine after flushing buffered events.
func (p *ProgressPublisher) Close() {
	close(p.events)
	<-p.done
}

// ForJob binds a job id and returns a sink usable by the sampling engine.
func (p *ProgressPublisher) ForJob(jobID uuid.UUID) sampling.ProgressSink {
	return jobSink{pub: p, jobID: jobID}
}

type jobSink struct {
	pub   *ProgressPublisher
	jobID uuid.UUID
}

func (s jobSink) Report(videoName string, fraction float64) {
	select {
	case s.pub.events <- entity.ProgressMessage{JobID: s.jobID, VideoName: videoName, Fraction: fraction}:
	default:
	}
}
