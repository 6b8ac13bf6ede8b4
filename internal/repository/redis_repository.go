package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lixing-Zhang/storefront/internal/authflow"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "storefront:flow:"
	lockKeyPrefix    = "storefront:lock:"
	releaseTimeout   = 2 * time.Second
)

// unlockScript deletes the lock only if it still carries our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisFlowRepository implements FlowRepository on Redis. States are stored as
// JSON with a TTL; the submit lock is a SET NX key with its own TTL.
type RedisFlowRepository struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewRedisClient parses redisURL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}
	return client, nil
}

// NewRedisFlowRepository wraps an existing client.
func NewRedisFlowRepository(client *redis.Client, ttl, lockTTL time.Duration) *RedisFlowRepository {
	return &RedisFlowRepository{client: client, ttl: ttl, lockTTL: lockTTL}
}

func (r *RedisFlowRepository) Get(ctx context.Context, sessionID string) (authflow.FlowState, error) {
	var state authflow.FlowState

	raw, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return state, ErrSessionNotFound
	}
	if err != nil {
		return state, fmt.Errorf("failed to load flow session: %w", err)
	}

	if err := json.Unmarshal(raw, &state); err != nil {
		return state, fmt.Errorf("failed to decode flow session: %w", err)
	}
	return state, nil
}

func (r *RedisFlowRepository) Save(ctx context.Context, sessionID string, state authflow.FlowState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode flow session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+sessionID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save flow session: %w", err)
	}
	return nil
}

func (r *RedisFlowRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete flow session: %w", err)
	}
	return nil
}

func (r *RedisFlowRepository) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := lockKeyPrefix + sessionID
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, token, r.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to take session lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		_ = unlockScript.Run(ctx, r.client, []string{key}, token).Err()
	}, nil
}
