package publisher

import (
	"context"
	"fmt"
	"time"

	"linkpulse/internal/core/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient creates a new Redis client with connection pooling
func NewRedisClient(address, password string, db, poolSize int, logger *zap.SugaredLogger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         address,
		Password:     password,
		DB:           db,
		PoolSize:     poolSize,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger != nil {
		logger.Infow("connected to Redis",
			"address", address,
			"db", db,
			"pool_size", poolSize,
		)
	}

	return client, nil
}

// RedisPublisher appends samples to a capped Redis stream. Every XADD carries
// a MAXLEN trim, so the stream never exceeds the configured length and the
// oldest entries fall off first. It implements ports.SamplePublisher.
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zap.SugaredLogger
}

func NewRedisPublisher(client *redis.Client, stream string, maxLen int64, logger *zap.SugaredLogger) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: logger,
	}
}

// Append writes the whole batch through one pipeline. Individual failures
// are logged and do not stop the remaining samples; the error summarizes how
// many entries were lost.
func (p *RedisPublisher) Append(ctx context.Context, samples []domain.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, s := range samples {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			MaxLen: p.maxLen,
			Values: entryValues(s),
		})
	}

	cmds, execErr := pipe.Exec(ctx)

	failed := 0
	for i, cmd := range cmds {
		if err := cmd.Err(); err != nil {
			failed++
			p.logger.Errorw("failed to append sample",
				"stream", p.stream,
				"subscription_id", samples[i].SubscriptionID,
				"device_id", samples[i].DeviceID,
				"error", err,
			)
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to append %d of %d samples", failed, len(samples))
	}
	if execErr != nil {
		return fmt.Errorf("failed to exec publish pipeline: %w", execErr)
	}
	return nil
}

// Close closes the Redis client connection.
func (p *RedisPublisher) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// entryValues flattens one sample into the stream entry field set.
func entryValues(s domain.Sample) map[string]interface{} {
	return map[string]interface{}{
		"subscription_id": string(s.SubscriptionID),
		"device_id":       string(s.DeviceID),
		"queue_name":      s.Queue,
		"rx_bps":          s.RxBps,
		"tx_bps":          s.TxBps,
		"sample_at":       s.SampleAt.UnixMilli(),
	}
}
