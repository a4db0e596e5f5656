package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"district-ai-portal/internal/domain"
	"district-ai-portal/internal/domain/ports/queue"
	red "district-ai-portal/internal/infra/redis"
)

var _ queue.Dispatcher = (*RedisDispatcher)(nil)

// RedisDispatcher sends job references to a Redis stream consumed by the
// external worker population (consumer groups give at-least-once delivery).
// The send carries a bounded timeout so a slow Redis cannot stall the
// request-handler pool.
type RedisDispatcher struct {
	client      red.RedisClient
	stream      string
	sendTimeout time.Duration
	log         *zerolog.Logger
}

func NewRedisDispatcher(client red.RedisClient, stream string, sendTimeout time.Duration, logger *zerolog.Logger) *RedisDispatcher {
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}
	l := logger.With().Str("component", "RedisDispatcher").Logger()
	return &RedisDispatcher{client: client, stream: stream, sendTimeout: sendTimeout, log: &l}
}

func (d *RedisDispatcher) Enqueue(ctx context.Context, jobID string, attrs queue.Attributes) error {
	ctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	values := map[string]interface{}{
		"job_id":   jobID,
		"job_type": attrs.JobType,
		"provider": attrs.Provider,
		"model_id": attrs.ModelID,
		"user_id":  attrs.UserID,
		"source":   attrs.Source,
	}
	if attrs.ComparisonID != "" {
		values["comparison_id"] = attrs.ComparisonID
	}

	msgID, err := d.client.XAdd(ctx, d.stream, values)
	if err != nil {
		return fmt.Errorf("xadd %s: %v: %w", d.stream, err, domain.ErrQueueDispatch)
	}
	d.log.Debug().Str("job_id", jobID).Str("stream", d.stream).Str("msg_id", msgID).Msg("job enqueued")
	return nil
}
