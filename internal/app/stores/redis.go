package stores

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore is the key-value adapter holding one hash per student.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore creates a key-value adapter over the given client.
func NewRedisStore(client *redis.Client, logger zerolog.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

// SetHashes writes every entry as a hash under its key, pipelined into a
// single round trip.
func (s *RedisStore) SetHashes(ctx context.Context, entries map[string]map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for key, fields := range entries {
		pipe.HSet(ctx, key, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing student hashes: %w", err)
	}
	s.logger.Info().Int("hashes", len(entries)).Msg("Student hashes persisted to Redis")
	return nil
}

// GetHash reads one hash. A missing key comes back as an empty map, not an
// error; the caller decides what absence means.
func (s *RedisStore) GetHash(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading hash %s: %w", key, err)
	}
	return fields, nil
}
