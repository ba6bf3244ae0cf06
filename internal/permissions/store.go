package permissions

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"mirror/internal/constants"
)

// SettingsStore reads secure settings mirrored by the on-device agent. A
// missing setting reads as "".
type SettingsStore interface {
	Get(ctx context.Context, name string) (string, error)
}

type RedisSettingsStore struct {
	client *redis.Client
}

func NewRedisSettingsStore(client *redis.Client) *RedisSettingsStore {
	return &RedisSettingsStore{client: client}
}

func (s *RedisSettingsStore) Get(ctx context.Context, name string) (string, error) {
	val, err := s.client.Get(ctx, constants.SettingsKeyPrefix+name).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", name, err)
	}
	return val, nil
}

// Set is used by the agent bridge and tests.
func (s *RedisSettingsStore) Set(ctx context.Context, name, value string) error {
	if err := s.client.Set(ctx, constants.SettingsKeyPrefix+name, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", name, err)
	}
	return nil
}
