package settlement

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "settlement:session:"

const (
	redisInProgress = "in_progress"
	redisProcessed  = "processed"
)

// RedisSessions is the multi-instance SessionStore: the SetNX claim gives
// the same per-key atomicity as the in-memory mutex, shared across
// replicas.
type RedisSessions struct {
	client *redis.Client
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client}
}

func (r *RedisSessions) Begin(ctx context.Context, id string) (SessionState, error) {
	key := sessionKeyPrefix + id
	claimed, err := r.client.SetNX(ctx, key, redisInProgress, 0).Result()
	if err != nil {
		return SessionInProgress, fmt.Errorf("claim session %s: %w", id, err)
	}
	if claimed {
		return SessionNew, nil
	}
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return SessionInProgress, fmt.Errorf("read session %s: %w", id, err)
	}
	if val == redisProcessed {
		return SessionProcessed, nil
	}
	return SessionInProgress, nil
}

func (r *RedisSessions) Finish(ctx context.Context, id string) error {
	if err := r.client.Set(ctx, sessionKeyPrefix+id, redisProcessed, 0).Err(); err != nil {
		return fmt.Errorf("mark session %s processed: %w", id, err)
	}
	return nil
}
