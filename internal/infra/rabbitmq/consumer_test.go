package rabbitmq

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestAttemptFromHeaders(t *testing.T) {
	tests := []struct {
		name     string
		delivery amqp.Delivery
		want     int
	}{
		{
			name:     "no headers means first attempt",
			delivery: amqp.Delivery{},
			want:     1,
		},
		{
			name:     "headers without x-death means first attempt",
			delivery: amqp.Delivery{Headers: amqp.Table{"content-type": "application/json"}},
			want:     1,
		},
		{
			name: "x-death entries count as attempts",
			delivery: amqp.Delivery{Headers: amqp.Table{
				"x-death": []interface{}{
					amqp.Table{"queue": "batch.request", "count": int64(1)},
					amqp.Table{"queue": "batch.request.dlq", "count": int64(1)},
				},
			}},
			want: 2,
		},
		{
			name:     "empty x-death list means first attempt",
			delivery: amqp.Delivery{Headers: amqp.Table{"x-death": []interface{}{}}},
			want:     1,
		},
		{
			name:     "malformed x-death value means first attempt",
			delivery: amqp.Delivery{Headers: amqp.Table{"x-death": "garbage"}},
			want:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, attemptFromHeaders(tt.delivery))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	c := &Consumer{baseDelay: time.Second}

	assert.Equal(t, 1*time.Second, c.calculateBackoff(1))
	assert.Equal(t, 2*time.Second, c.calculateBackoff(2))
	assert.Equal(t, 4*time.Second, c.calculateBackoff(3))
	assert.Equal(t, 32*time.Second, c.calculateBackoff(6))
	assert.Equal(t, 60*time.Second, c.calculateBackoff(7), "backoff is capped")
	assert.Equal(t, 60*time.Second, c.calculateBackoff(12))
}
