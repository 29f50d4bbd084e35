package config

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Redis is an optional dependency: the rate limiter, the category cache and
// the submission fast-lock all degrade gracefully when it is absent, so every
// helper tolerates a nil client.
type RedisStore struct {
	Client *redis.Client
	Locker *redislock.Client
}

// ConnectRedis dials REDIS_ADDRESS. Returns a store with a nil client when
// the address is unset or the server is unreachable; callers must not treat
// that as fatal.
func ConnectRedis(ctx context.Context) *RedisStore {
	address := os.Getenv("REDIS_ADDRESS")
	if address == "" {
		return &RedisStore{}
	}

	client := redis.NewClient(&redis.Options{
		Addr: address,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis not ready (%s): %v; continuing without redis", address, err)
		return &RedisStore{}
	}
	return &RedisStore{
		Client: client,
		Locker: redislock.New(client),
	}
}

func (s *RedisStore) Close() {
	if s != nil && s.Client != nil {
		_ = s.Client.Close()
	}
}

func (s *RedisStore) GetObject(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s == nil || s.Client == nil {
		return false, nil
	}
	val, err := s.Client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) SetObject(ctx context.Context, key string, obj interface{}, exp time.Duration) error {
	if s == nil || s.Client == nil {
		return nil
	}
	objInByte, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, key, objInByte, exp).Err()
}

func (s *RedisStore) RemoveKey(ctx context.Context, keys ...string) error {
	if s == nil || s.Client == nil {
		return nil
	}
	return s.Client.Del(ctx, keys...).Err()
}
