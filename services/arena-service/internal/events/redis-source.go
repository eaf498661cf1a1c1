package events

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/burakmert236/arenaview/common/cache"
	apperrors "github.com/burakmert236/arenaview/common/errors"
)

// RedisSource reads arena documents published on a Redis channel.
type RedisSource struct {
	redisClient *cache.RedisClient
	client      *redis.Client
	channel     string
}

func NewRedisSource(client *cache.RedisClient, channel string) *RedisSource {
	return &RedisSource{
		redisClient: client,
		client:      client.GetClient(),
		channel:     channel,
	}
}

func (s *RedisSource) Name() string {
	return "redis"
}

func (s *RedisSource) Ping(ctx context.Context) error {
	if err := s.redisClient.Ping(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "redis is unreachable")
	}
	return nil
}

func (s *RedisSource) Open(ctx context.Context) (Stream, error) {
	pubsub := s.client.Subscribe(ctx, s.channel)

	// wait for the subscription to be confirmed so nothing published after
	// Open returns is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeRedisOperationError, "failed to subscribe to "+s.channel)
	}

	return &redisStream{pubsub: pubsub}, nil
}

type redisStream struct {
	pubsub *redis.PubSub
}

func (r *redisStream) Next(ctx context.Context) ([]byte, error) {
	// blocking reads only honour deadlines, so unblock on cancel by closing
	stop := context.AfterFunc(ctx, func() { _ = r.pubsub.Close() })
	defer stop()

	msg, err := r.pubsub.ReceiveMessage(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.Wrap(err, apperrors.CodeRedisOperationError, "failed to receive message")
	}
	return []byte(msg.Payload), nil
}

func (r *redisStream) Close() error {
	// closing twice after a cancelled Next only reports "already closed"
	_ = r.pubsub.Close()
	return nil
}
