package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisClient is the subset of the go-redis client the backend needs.
// *redis.Client satisfies it; tests supply fakes.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Close() error
}

// RedisBackend stores values in Redis under prefix+key. SET replaces a value atomically.
type RedisBackend struct {
	client RedisClient
	prefix string
}

// RedisOptions holds connection settings for NewRedisBackend
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisBackend connects a go-redis client with opts
func NewRedisBackend(opts RedisOptions) *RedisBackend {
	c := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisBackendWithClient(c, opts.Prefix)
}

// NewRedisBackendWithClient wraps an existing client
func NewRedisBackendWithClient(client RedisClient, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

// Store stores a key-value pair without expiration
func (s *RedisBackend) Store(ctx context.Context, key string, data string) error {
	if err := checkKey(ctx, "store", key); err != nil {
		return err
	}
	return ioErr("store", key, redisErr(s.client.Set(ctx, s.prefix+key, data, 0).Err()))
}

// Load retrieves the value for a given key
func (s *RedisBackend) Load(ctx context.Context, key string) (string, bool, error) {
	if err := checkKey(ctx, "load", key); err != nil {
		return "", false, err
	}
	data, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, ioErr("load", key, redisErr(err))
	}
	return data, true, nil
}

// Exists checks if a key exists
func (s *RedisBackend) Exists(ctx context.Context, key string) (bool, error) {
	if err := checkKey(ctx, "exists", key); err != nil {
		return false, err
	}
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, ioErr("exists", key, redisErr(err))
	}
	return n > 0, nil
}

// Delete removes a key-value pair
func (s *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := checkKey(ctx, "delete", key); err != nil {
		return err
	}
	return ioErr("delete", key, redisErr(s.client.Del(ctx, s.prefix+key).Err()))
}

// List scans for keys with the given prefix and strips the namespace prefix
func (s *RedisBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	match := escapeGlob(s.prefix+prefix) + "*"
	for {
		if err := ctx.Err(); err != nil {
			return nil, ioErr("list", prefix, err)
		}
		batch, next, err := s.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return nil, ioErr("list", prefix, redisErr(err))
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	return keys, nil
}

// Close closes the client
func (s *RedisBackend) Close() error {
	return redisErr(s.client.Close())
}

func redisErr(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return ErrStorageClosed
	}
	return err
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
