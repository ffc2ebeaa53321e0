package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis snapshot store.
type RedisConfig struct {
	Addr      string        `json:"addr" yaml:"addr"`
	Password  string        `json:"password" yaml:"password"`
	DB        int           `json:"db" yaml:"db"`
	KeyPrefix string        `json:"key_prefix" yaml:"key_prefix"`
	TTL       time.Duration `json:"ttl" yaml:"ttl"` // 0 = no expiry
}

// DefaultRedisConfig returns a RedisConfig with sensible defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "coterie:",
	}
}

// RedisStore is a Redis-backed snapshot store. Suitable when several
// processes share one directory view across restarts.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(config RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("directory store: connect redis: %w", err)
	}

	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "coterie:"
	}

	return &RedisStore{
		client: client,
		key:    prefix + "directory:snapshot",
		ttl:    config.TTL,
	}, nil
}

// Save persists the snapshot, replacing any previous one.
func (s *RedisStore) Save(ctx context.Context, snapshot []byte) error {
	if err := s.client.Set(ctx, s.key, snapshot, s.ttl).Err(); err != nil {
		return fmt.Errorf("directory store: save: %w", err)
	}
	return nil
}

// Load returns the most recent snapshot.
func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("directory store: load: %w", err)
	}
	return data, nil
}

// Ping checks store health.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
