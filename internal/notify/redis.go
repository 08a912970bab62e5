package notify

import (
	"context"
	"fmt"

	"github.com/dmccall/sports-arb/pkg/types"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisSink publishes events onto a Redis stream for downstream alert
// consumers.
type RedisSink struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// RedisConfig holds Redis sink configuration.
type RedisConfig struct {
	Addr     string
	Password string
	Stream   string
	Logger   *zap.Logger
}

// NewRedisSink connects to Redis and verifies the connection.
func NewRedisSink(ctx context.Context, cfg RedisConfig) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})

	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	cfg.Logger.Info("redis-sink-connected",
		zap.String("addr", cfg.Addr),
		zap.String("stream", cfg.Stream))

	return &RedisSink{
		client: client,
		stream: cfg.Stream,
		logger: cfg.Logger,
	}, nil
}

// Publish appends the event to the stream as a single JSON payload field
// plus a kind field for cheap consumer-side filtering.
func (s *RedisSink) Publish(ctx context.Context, ev types.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"kind":    string(ev.Kind),
			"payload": payload,
		},
	}).Err()
	if err != nil {
		PublishesTotal.WithLabelValues(string(ev.Kind), "error").Inc()
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}

	PublishesTotal.WithLabelValues(string(ev.Kind), "ok").Inc()
	return nil
}

// Close closes the Redis connection.
func (s *RedisSink) Close() error {
	s.logger.Info("closing-redis-sink")
	return s.client.Close()
}
