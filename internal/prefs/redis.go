package prefs

import (
	"fmt"

	"github.com/go-redis/redis/v7"
)

// RedisKeyPrefix namespaces every stored item.
const RedisKeyPrefix = "cueweb:"

// RedisStorage keeps items in Redis so several monitors can share one view.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage wraps an existing client. An empty namespace keeps items
// directly under RedisKeyPrefix.
func NewRedisStorage(client *redis.Client, namespace string) *RedisStorage {
	prefix := RedisKeyPrefix
	if namespace != "" {
		prefix += namespace + ":"
	}
	return &RedisStorage{client: client, prefix: prefix}
}

// DialRedis connects to addr and checks the connection.
func DialRedis(addr, password string, db int, namespace string) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping().Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return NewRedisStorage(client, namespace), nil
}

func (r *RedisStorage) GetItem(key string) (string, bool, error) {
	value, err := r.client.Get(r.prefix + key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *RedisStorage) SetItem(key, value string) error {
	if err := r.client.Set(r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStorage) RemoveItem(key string) error {
	if err := r.client.Del(r.prefix + key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *RedisStorage) Close() error {
	return r.client.Close()
}
