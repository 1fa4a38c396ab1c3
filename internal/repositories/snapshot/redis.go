package snapshot

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	redisclient "github.com/KirkDiggler/rpg-sheet/internal/redis"
)

const snapshotKeyPrefix = "sheet:snapshot:"

type redisStore struct {
	client redisclient.Client
}

// RedisConfig contains configuration for the Redis snapshot store
type RedisConfig struct {
	Client redisclient.Client
}

// Validate validates the RedisConfig
func (cfg *RedisConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument(errConfigMissing)
	}
	if cfg.Client == nil {
		return errors.InvalidArgument("client cannot be nil")
	}
	return nil
}

// NewRedis creates a new Redis-backed snapshot store
func NewRedis(cfg *RedisConfig) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &redisStore{client: cfg.Client}, nil
}

func (r *redisStore) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.Key == "" {
		return nil, errors.InvalidArgument(errKeyEmpty)
	}

	key := snapshotKeyPrefix + input.Key
	result, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if redisclient.IsNil(err) {
			return &GetOutput{}, nil
		}
		slog.ErrorContext(ctx, "failed to get snapshot from Redis",
			"key", key,
			"error", err.Error())
		return nil, errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to get snapshot %s", input.Key)
	}

	s, err := decodeEnvelope(result)
	if err != nil {
		return nil, err
	}
	return &GetOutput{Snapshot: s}, nil
}

func (r *redisStore) Set(ctx context.Context, input SetInput) (*SetOutput, error) {
	if input.Key == "" {
		return nil, errors.InvalidArgument(errKeyEmpty)
	}
	if input.Snapshot == nil {
		return nil, errors.InvalidArgument(errSnapshotNil)
	}

	data, err := encodeEnvelope(input.Snapshot)
	if err != nil {
		return nil, err
	}

	key := snapshotKeyPrefix + input.Key
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to write snapshot to Redis",
			"key", key,
			"version", input.Snapshot.Version,
			"error", err.Error())
		return nil, errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to set snapshot %s", input.Key)
	}

	slog.DebugContext(ctx, "snapshot written", "key", key, "version", input.Snapshot.Version)
	return &SetOutput{}, nil
}

func (r *redisStore) Remove(ctx context.Context, input RemoveInput) (*RemoveOutput, error) {
	if input.Key == "" {
		return nil, errors.InvalidArgument(errKeyEmpty)
	}

	key := snapshotKeyPrefix + input.Key
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return nil, errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to remove snapshot %s", input.Key)
	}
	return &RemoveOutput{}, nil
}
